package additive

import (
	"math"

	"github.com/SolarLiner/addsynth/internal/env"
)

type voiceState int

const (
	voiceIdle voiceState = iota
	voiceActive
	voiceReleasing
)

// voice realizes one played note: a fixed-capacity bank of partials summed
// under a shared amplitude envelope. Voices live in the engine's pool and
// are reused, never reallocated.
type voice struct {
	state       voiceState
	note        int
	age         uint64 // monotonic spawn order, drives oldest-first stealing
	velAmp      float64
	fundamental float64
	env         env.ADSR
	partials    []partial
	gains       []float64 // engine-owned normalized partial weights
	holdLeft    int       // silence hold-off before returning to the pool
}

// start (re)initializes the voice for a note. gains holds the normalized
// per-partial weights; phaseOffset decorrelates this voice from its siblings.
func (v *voice) start(note int, freq, velocity float64, age uint64, sampleRate float64, cfg env.Config, preset Preset, gains []float64, phaseOffset float64) {
	v.state = voiceActive
	v.note = note
	v.age = age
	v.velAmp = math.Sqrt(velocity)
	v.fundamental = freq
	v.env = env.New(sampleRate, cfg)
	v.gains = gains
	for i := range v.partials {
		ratio, _ := preset.partialAt(i)
		v.partials[i].reset(ratio, gains[i], phaseOffset)
	}
	v.holdLeft = 0
}

// retrigger re-attacks the envelope without touching oscillator phases:
// amplitude swells from its current level, so the output stays continuous.
func (v *voice) retrigger(velocity float64) {
	v.state = voiceActive
	v.velAmp = math.Sqrt(velocity)
	v.env.Retrigger()
	for i := range v.partials {
		v.partials[i].targetAmp = v.gains[i]
	}
	v.holdLeft = 0
}

// release moves the voice into its release tail.
func (v *voice) release() {
	if v.state == voiceActive {
		v.state = voiceReleasing
		v.env.Release()
	}
}

// fadePartials glides every partial amplitude to zero. Called once the
// envelope has finished, so the remaining fade is inaudible but lets the
// voice report silence and retire.
func (v *voice) fadePartials() {
	for i := range v.partials {
		v.partials[i].targetAmp = 0
	}
}

// nextSample renders one sample: the sum of all partials scaled by the voice
// envelope and velocity.
func (v *voice) nextSample(sampleRate, detuneMul, ratioCoef, ampCoef float64) float64 {
	level := v.env.Next()
	fund := v.fundamental * detuneMul
	var sum float64
	for i := range v.partials {
		sum += v.partials[i].nextSample(sampleRate, fund, ratioCoef, ampCoef)
	}
	return sum * level * v.velAmp
}

// silent reports whether the envelope has fully decayed and every partial
// has faded out. The engine additionally applies a hold time before the
// voice returns to the pool.
func (v *voice) silent() bool {
	if !v.env.Done() {
		return false
	}
	for i := range v.partials {
		if !v.partials[i].silent() {
			return false
		}
	}
	return true
}
