package osc

import "math"

// Phasor is a phase accumulator normalized to cycles: the phase always lies
// in [0, 1) after every operation. Wrapping uses modular arithmetic rather
// than repeated subtraction so precision holds up over long runtimes.
type Phasor struct {
	Hz         float64
	SampleRate float64
	Phase      float64
}

func NewPhasor(sampleRate, hz float64) Phasor {
	return Phasor{Hz: hz, SampleRate: sampleRate}
}

// Step returns the phase increment for a single sample, in cycles.
func (p *Phasor) Step() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return p.Hz / p.SampleRate
}

// Inc advances the phase by n samples and returns the wrapped phase.
func (p *Phasor) Inc(n int) float64 {
	return p.SetPhase(p.Phase + float64(n)*p.Step())
}

// SetPhase stores phase wrapped into [0, 1) and returns the wrapped value.
func (p *Phasor) SetPhase(phase float64) float64 {
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		phase = 0
	}
	phase = math.Mod(phase, 1)
	if phase < 0 {
		phase++
	}
	p.Phase = phase
	return p.Phase
}
