package additive

import (
	"github.com/SolarLiner/addsynth/internal/osc"
)

// gainEpsilon masks partials too quiet to matter; masked partials freeze
// their phase instead of advancing.
const gainEpsilon = 1e-6

// partial is one sinusoidal component of a voice: an oscillator at a
// harmonic ratio of the voice's fundamental, scaled by a smoothed amplitude.
// Ratio and amplitude both glide toward their targets so harmonic-content
// changes never step audibly.
type partial struct {
	osc         osc.Oscillator
	ratio       float64
	targetRatio float64
	amp         float64
	targetAmp   float64
}

// reset prepares the partial for a fresh note without allocating. The
// amplitude fades in from zero; the phase restarts with the given offset.
func (p *partial) reset(ratio, gain, phaseOffset float64) {
	p.osc = osc.Oscillator{PhaseOffset: phaseOffset}
	p.ratio = ratio
	p.targetRatio = ratio
	p.amp = 0
	p.targetAmp = gain
}

// retune glides the partial toward a new harmonic ratio and gain.
func (p *partial) retune(ratio, gain float64) {
	p.targetRatio = ratio
	p.targetAmp = gain
}

// nextSample advances the partial one sample. Partials at or above Nyquist
// are masked to avoid aliasing; their phase freezes until the fundamental
// drops again.
func (p *partial) nextSample(sampleRate, fundamental, ratioCoef, ampCoef float64) float64 {
	p.ratio += (p.targetRatio - p.ratio) * ratioCoef
	p.amp += (p.targetAmp - p.amp) * ampCoef

	freq := fundamental * p.ratio
	if freq >= sampleRate/2 || p.amp < gainEpsilon {
		return 0
	}
	return p.amp * p.osc.Advance(sampleRate, freq)
}

// silent reports whether the partial has faded below audibility.
func (p *partial) silent() bool {
	return p.amp < gainEpsilon
}
