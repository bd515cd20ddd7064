package osc

import "math"

const twoPi = 2 * math.Pi

// Oscillator emits one sinusoidal partial from a wrapped phase accumulator.
// PhaseOffset shifts the output without touching the accumulator; randomizing
// it per voice decorrelates otherwise identical notes.
type Oscillator struct {
	Phasor      Phasor
	PhaseOffset float64
}

func NewOscillator(sampleRate, hz float64) Oscillator {
	return Oscillator{Phasor: NewPhasor(sampleRate, hz)}
}

// Advance moves the phase forward by one sample at the given rate and
// frequency and returns the sine value at the new phase. A zero frequency
// freezes the phase (a valid silent partial); negative or NaN frequencies
// clamp to zero so corrupted input can never propagate into the output.
func (o *Oscillator) Advance(sampleRate, hz float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	if math.IsNaN(hz) || hz < 0 {
		hz = 0
	}
	o.Phasor.SampleRate = sampleRate
	o.Phasor.Hz = hz
	phase := o.Phasor.Inc(1)
	return math.Sin(twoPi * (phase + o.PhaseOffset))
}

// Phase returns the current accumulator value in [0, 1).
func (o *Oscillator) Phase() float64 {
	return o.Phasor.Phase
}
