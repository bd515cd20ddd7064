package additive

// Preset selects the harmonic series a voice's partials are tuned to.
type Preset int

const (
	// PresetSine carries all energy in the fundamental.
	PresetSine Preset = iota
	// PresetTriangle uses odd harmonics falling off as 1/n^2.
	PresetTriangle
	// PresetSquare uses odd harmonics falling off as 1/n.
	PresetSquare
	// PresetSaw uses every harmonic falling off as 1/n.
	PresetSaw
)

// partialAt returns the harmonic ratio and raw gain of partial i. Gains are
// normalized by the engine so the summed series peaks near unity.
func (p Preset) partialAt(i int) (ratio, gain float64) {
	switch p {
	case PresetSine:
		if i == 0 {
			return 1, 1
		}
		return float64(i + 1), 0
	case PresetTriangle:
		k := float64(2*i + 1)
		return k, 1 / (k * k)
	case PresetSquare:
		k := float64(2*i + 1)
		return k, 1 / k
	default: // PresetSaw
		n := float64(i + 1)
		return n, 1 / n
	}
}

func (p Preset) String() string {
	switch p {
	case PresetSine:
		return "sine"
	case PresetTriangle:
		return "triangle"
	case PresetSquare:
		return "square"
	default:
		return "saw"
	}
}
