// Package env implements the per-voice amplitude envelope.
package env

import "math"

// State enumerates envelope segments.
type State int

const (
	StateAttack State = iota
	StateDecay
	StateSustain
	StateRelease
	StateOff
)

// SilenceThreshold is the level below which a releasing envelope counts as
// finished.
const SilenceThreshold = 1e-4

// Config holds segment times in seconds and the sustain level in [0, 1].
type Config struct {
	AttackSec  float64
	DecaySec   float64
	Sustain    float64
	ReleaseSec float64
}

func DefaultConfig() Config {
	return Config{
		AttackSec:  0.01,
		DecaySec:   0.3,
		Sustain:    0.5,
		ReleaseSec: 0.3,
	}
}

func (c Config) clamped() Config {
	clampTime := func(t float64) float64 {
		if math.IsNaN(t) || t < 1e-4 {
			return 1e-4
		}
		return t
	}
	c.AttackSec = clampTime(c.AttackSec)
	c.DecaySec = clampTime(c.DecaySec)
	c.ReleaseSec = clampTime(c.ReleaseSec)
	if math.IsNaN(c.Sustain) || c.Sustain < 0 {
		c.Sustain = 0
	}
	if c.Sustain > 1 {
		c.Sustain = 1
	}
	return c
}

// ADSR ramps through Attack, Decay, Sustain and Release with one-pole
// segments. The level is always within [0, 1]; segments approach their
// target monotonically so retriggering from any point cannot click.
type ADSR struct {
	cfg        Config
	sampleRate float64
	state      State
	level      float64

	attackCoef  float64
	decayCoef   float64
	releaseCoef float64
}

// New starts an envelope in the attack segment at level zero.
func New(sampleRate float64, cfg Config) ADSR {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	cfg = cfg.clamped()
	e := ADSR{cfg: cfg, sampleRate: sampleRate, state: StateAttack}
	e.attackCoef = segmentCoef(sampleRate, cfg.AttackSec)
	e.decayCoef = segmentCoef(sampleRate, cfg.DecaySec)
	e.releaseCoef = segmentCoef(sampleRate, cfg.ReleaseSec)
	return e
}

// segmentCoef yields a one-pole factor that converges within roughly sec.
func segmentCoef(sampleRate, sec float64) float64 {
	return 1 - math.Exp(-5/(sampleRate*sec))
}

// Next advances one sample and returns the new level.
func (e *ADSR) Next() float64 {
	switch e.state {
	case StateAttack:
		e.level += (1 - e.level) * e.attackCoef
		if e.level > 1-1e-3 {
			e.level = 1
			e.state = StateDecay
		}
	case StateDecay:
		e.level += (e.cfg.Sustain - e.level) * e.decayCoef
		if math.Abs(e.level-e.cfg.Sustain) < 1e-4 {
			e.level = e.cfg.Sustain
			e.state = StateSustain
		}
	case StateSustain:
		e.level = e.cfg.Sustain
	case StateRelease:
		e.level -= e.level * e.releaseCoef
		if e.level < SilenceThreshold {
			e.level = 0
			e.state = StateOff
		}
	case StateOff:
		e.level = 0
	}
	return e.level
}

// Release moves the envelope into its release segment from whatever level it
// currently holds.
func (e *ADSR) Release() {
	if e.state != StateOff {
		e.state = StateRelease
	}
}

// Retrigger restarts the attack without resetting the level, so a re-played
// note swells from where it was instead of stepping to zero.
func (e *ADSR) Retrigger() {
	e.state = StateAttack
}

// Reset forces the level, clamped into [0, 1], and restarts the attack.
// Used when a stolen voice re-attacks from the victim's current level.
func (e *ADSR) Reset(level float64) {
	if math.IsNaN(level) || level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.level = level
	e.state = StateAttack
}

// Level returns the current value without advancing.
func (e *ADSR) Level() float64 { return e.level }

// State returns the current segment.
func (e *ADSR) State() State { return e.state }

// Releasing reports whether the envelope is in its release segment.
func (e *ADSR) Releasing() bool { return e.state == StateRelease }

// Done reports whether the envelope has fully decayed.
func (e *ADSR) Done() bool { return e.state == StateOff }
