// Package lfo provides the global low-frequency modulator used for vibrato.
package lfo

import "math"

// Waveform selects the modulation shape.
const (
	WaveSine = iota
	WaveTriangle
)

// LFO produces per-sample modulation shared across all voices of an engine.
// Depth units are defined by the consumer (the engine uses cents for pitch).
type LFO struct {
	depth    float64
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
}

// Set configures depth, rate and waveform. Unknown waveforms fall back to
// sine.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	if math.IsNaN(depth) {
		depth = 0
	}
	if math.IsNaN(rateHz) || rateHz < 0 {
		rateHz = 0
	}
	if waveform != WaveSine && waveform != WaveTriangle {
		waveform = WaveSine
	}
	l.depth = depth
	l.rateHz = rateHz
	l.waveform = waveform
}

// Sample advances one sample and returns a value in [-depth, +depth].
// An inactive LFO returns 0 without advancing.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate <= 0 {
		return 0
	}

	var v float64
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}

	l.phase += l.rateHz / sampleRate
	l.phase = math.Mod(l.phase, 1)
	if l.phase < 0 {
		l.phase++
	}

	return v * l.depth
}

// Active reports whether the LFO contributes modulation.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
