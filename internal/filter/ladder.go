// Package filter implements the optional nonlinear low-pass stage: a
// one-pole saturating section and a four-stage ladder whose implicit state
// update is solved per sample with a Newton-Raphson step.
package filter

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LP1 is a one-pole low/high-pass with tanh saturation in the feedback path.
type LP1 struct {
	SampleRate float64
	Fc         float64
	fb         float64
}

func NewLP1(sampleRate, fc float64) *LP1 {
	return &LP1{SampleRate: sampleRate, Fc: fc}
}

func (f *LP1) fbGain() float64 {
	return f.Fc * math.Pi / f.SampleRate
}

// ProcessLP filters one sample through the low-pass response.
func (f *LP1) ProcessLP(x float64) float64 {
	in0 := f.fbGain() * x
	y := math.Tanh(in0 + f.fb)
	f.fb = y - in0
	return y
}

// ProcessHP filters one sample through the high-pass response.
func (f *LP1) ProcessHP(x float64) float64 {
	in0 := f.fbGain() * x
	yhp := f.fb + in0
	y := math.Tanh(yhp)
	f.fb = y - in0
	return yhp
}

const (
	ladderStages = 4
	nrMaxIters   = 4
	nrStopMagSq  = 1e-3
	ladderMinHz  = 10
)

// Ladder is a four-stage saturating ladder filter. The stage voltages form
// an implicit system each sample; Process iterates a Newton-Raphson step on
// the 4-vector of stage states until the update magnitude falls under a
// fixed bound. All solver workspace is preallocated so the audio path never
// allocates.
type Ladder struct {
	sampleRate float64
	g          float64 // pi * fc / fs
	k          float64 // resonance feedback

	u    *mat.VecDense
	s    *mat.VecDense
	eval *mat.VecDense
	step *mat.VecDense
	lu   mat.LU
}

// NewLadder builds a ladder filter with the given cutoff and resonance.
func NewLadder(sampleRate, fc, q float64) *Ladder {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	l := &Ladder{
		sampleRate: sampleRate,
		u:          mat.NewVecDense(ladderStages, nil),
		s:          mat.NewVecDense(ladderStages, nil),
		eval:       mat.NewVecDense(ladderStages, nil),
		step:       mat.NewVecDense(ladderStages, nil),
	}
	// The Jacobian of the fixed-point residual is constant (-I); factorize
	// it once so each sample is a back-substitution, not a full solve.
	jac := mat.NewDense(ladderStages, ladderStages, nil)
	for i := 0; i < ladderStages; i++ {
		jac.Set(i, i, -1)
	}
	l.lu.Factorize(jac)
	l.SetCutoff(fc)
	l.SetResonance(q)
	return l
}

// SetCutoff clamps fc into (ladderMinHz, Nyquist] and updates the stage gain.
func (l *Ladder) SetCutoff(fc float64) {
	if math.IsNaN(fc) || fc < ladderMinHz {
		fc = ladderMinHz
	}
	nyquist := l.sampleRate / 2
	if fc > nyquist {
		fc = nyquist
	}
	l.g = math.Pi * fc / l.sampleRate
}

// SetResonance sets the feedback amount. Negative or NaN values clamp to 0.
func (l *Ladder) SetResonance(q float64) {
	if math.IsNaN(q) || q < 0 {
		q = 0
	}
	l.k = q
}

// Process filters one sample.
func (l *Ladder) Process(x float64) float64 {
	for iter := 0; iter < nrMaxIters; iter++ {
		l.residual(x)
		if err := l.lu.SolveVecTo(l.step, false, l.eval); err != nil {
			break
		}
		l.u.SubVec(l.u, l.step)
		if mat.Dot(l.step, l.step) < nrStopMagSq {
			break
		}
	}
	out := l.g*l.u.AtVec(ladderStages-1) + l.s.AtVec(ladderStages-1)
	for i := 0; i < ladderStages; i++ {
		l.s.SetVec(i, l.u.AtVec(i))
	}
	if math.IsNaN(out) {
		out = 0
	}
	return out
}

// residual stores phi(u) - u into l.eval, where phi saturates the stage
// input differences and integrates them onto the previous state.
func (l *Ladder) residual(x float64) {
	s0 := l.s.AtVec(0)
	s1 := l.s.AtVec(1)
	s2 := l.s.AtVec(2)
	s3 := l.s.AtVec(3)
	v := [ladderStages]float64{
		x - l.k*s3 - s0,
		s0 - s1,
		s1 - s2,
		s2 - s3,
	}
	for i := 0; i < ladderStages; i++ {
		phi := l.g*math.Tanh(v[i]) + l.s.AtVec(i)
		l.eval.SetVec(i, phi-l.u.AtVec(i))
	}
}
