// Package smooth interpolates host-driven parameter changes so automation
// never steps audibly. The target value crosses threads through an atomic;
// the current value is owned by the audio goroutine alone.
package smooth

import (
	"math"
	"sync/atomic"
)

// Style selects the ramp shape.
type Style int

const (
	// Linear ramps at a constant rate and lands exactly on target after the
	// configured ramp time.
	Linear Style = iota
	// Exponential approaches the target with a one-pole lag, snapping once
	// within a small epsilon.
	Exponential
)

// Smoother ramps a control value toward a target without overshoot.
// SetTarget is safe to call from any goroutine; Next and NextBlock must only
// run on the audio goroutine.
type Smoother struct {
	target atomic.Uint64 // float64 bits

	style      Style
	rampSec    float64
	sampleRate float64

	current    float64
	lastTarget float64
	stepsLeft  int
	stepSize   float64
	alpha      float64
}

// New builds a Smoother starting (and targeting) initial.
func New(style Style, rampSec, sampleRate, initial float64) *Smoother {
	if rampSec < 0 {
		rampSec = 0
	}
	s := &Smoother{
		style:      style,
		rampSec:    rampSec,
		current:    initial,
		lastTarget: initial,
	}
	s.SetSampleRate(sampleRate)
	s.target.Store(math.Float64bits(initial))
	return s
}

// SetSampleRate recomputes the ramp coefficients. Audio goroutine only.
func (s *Smoother) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	s.sampleRate = sampleRate
	if s.rampSec > 0 {
		// Reach within ~0.7% of target over the ramp duration.
		s.alpha = 1 - math.Exp(-5/(sampleRate*s.rampSec))
	} else {
		s.alpha = 1
	}
	if s.stepsLeft > 0 {
		s.retarget(s.lastTarget)
	}
}

// SetTarget publishes a new target. NaN targets are dropped so a corrupted
// automation value can never reach the signal path.
func (s *Smoother) SetTarget(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.target.Store(math.Float64bits(v))
}

// Target returns the most recently published target.
func (s *Smoother) Target() float64 {
	return math.Float64frombits(s.target.Load())
}

// Current returns the last value produced by Next without advancing.
func (s *Smoother) Current() float64 { return s.current }

// Next advances the ramp one sample and returns the new current value.
func (s *Smoother) Next() float64 {
	t := math.Float64frombits(s.target.Load())
	if t != s.lastTarget {
		s.retarget(t)
	}
	switch s.style {
	case Linear:
		if s.stepsLeft > 0 {
			s.current += s.stepSize
			s.stepsLeft--
			if s.stepsLeft == 0 {
				s.current = t
			}
		} else {
			s.current = t
		}
	default:
		s.current += (t - s.current) * s.alpha
		if math.Abs(t-s.current) < 1e-6*(1+math.Abs(t)) {
			s.current = t
		}
	}
	return s.current
}

// NextBlock fills dst with consecutive smoothed values.
func (s *Smoother) NextBlock(dst []float64) {
	for i := range dst {
		dst[i] = s.Next()
	}
}

func (s *Smoother) retarget(t float64) {
	s.lastTarget = t
	if s.style != Linear {
		return
	}
	steps := int(s.rampSec*s.sampleRate + 0.5)
	if steps <= 0 {
		s.stepsLeft = 0
		s.current = t
		return
	}
	s.stepsLeft = steps
	s.stepSize = (t - s.current) / float64(steps)
}
