// Package shaper provides the precomputed nonlinear transfer-function table
// used by the output saturation stage. Evaluating the shaping curve per
// sample per partial sum is too expensive for the audio deadline; a one-time
// table build plus linear interpolation keeps the per-sample cost bounded.
package shaper

import (
	"fmt"
	"math"
)

// Curve is a memoryless transfer function sampled into a Table.
type Curve func(float64) float64

// diodeK shapes the knee of the diode saturator.
const diodeK = 0.2577819

// Tanh is the default saturation curve.
func Tanh(x float64) float64 { return math.Tanh(x) }

// Diode is a softer saturator, x/(k+|x|).
func Diode(x float64) float64 { return x / (diodeK + math.Abs(x)) }

// Table holds a fixed-resolution sampling of a Curve over [min, max].
// It is immutable after construction and safe for concurrent readers.
type Table struct {
	values []float64
	min    float64
	max    float64
	scale  float64 // entries per input unit
}

// NewTable samples curve at resolution points over [min, max]. It must run
// off the audio thread; all validation failures surface here, before any
// processing starts.
func NewTable(resolution int, min, max float64, curve Curve) (*Table, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("shaper: resolution %d, need at least 2", resolution)
	}
	if curve == nil {
		return nil, fmt.Errorf("shaper: nil curve")
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || min >= max {
		return nil, fmt.Errorf("shaper: invalid domain [%v, %v]", min, max)
	}
	t := &Table{
		values: make([]float64, resolution),
		min:    min,
		max:    max,
		scale:  float64(resolution-1) / (max - min),
	}
	for i := range t.values {
		x := min + (max-min)*float64(i)/float64(resolution-1)
		y := curve(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("shaper: curve not finite at x=%v", x)
		}
		t.values[i] = y
	}
	return t, nil
}

// Lookup returns the curve value at x, clamping x into the table's domain
// and linearly interpolating between the two nearest entries.
func (t *Table) Lookup(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	pos := (x - t.min) * t.scale
	if pos <= 0 {
		return t.values[0]
	}
	last := len(t.values) - 1
	if pos >= float64(last) {
		return t.values[last]
	}
	i := int(pos)
	f := pos - float64(i)
	return lerp(t.values[i], t.values[i+1], f)
}

// Resolution returns the number of table entries.
func (t *Table) Resolution() int { return len(t.values) }

// Min and Max report the table's input domain.
func (t *Table) Min() float64 { return t.min }
func (t *Table) Max() float64 { return t.max }

func lerp(x, y, f float64) float64 {
	return x + f*(y-x)
}
