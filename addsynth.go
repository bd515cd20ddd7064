// Package addsynth is a real-time polyphonic additive synthesizer. The host
// drives it with note events and parameter automation from any goroutine and
// pulls audio blocks from a single audio goroutine; the render path never
// allocates, locks or blocks.
package addsynth

import (
	"errors"
	"fmt"

	"github.com/SolarLiner/addsynth/internal/additive"
	"github.com/SolarLiner/addsynth/internal/shaper"
)

// Waveform names a harmonic preset for voices.
type Waveform string

const (
	WaveformSine     Waveform = "sine"
	WaveformTriangle Waveform = "triangle"
	WaveformSquare   Waveform = "square"
	WaveformSaw      Waveform = "saw"
)

// CurveKind selects the saturation curve sampled into the transfer table.
type CurveKind string

const (
	CurveTanh  CurveKind = "tanh"
	CurveDiode CurveKind = "diode"
)

// ParamID identifies a smoothed, automatable parameter.
type ParamID int

const (
	// ParamMasterGain is the linear output gain.
	ParamMasterGain ParamID = iota
	// ParamDriveDB is the saturation drive in dB (+/-36).
	ParamDriveDB
	// ParamDetuneCents is the global detune in cents (+/-1200).
	ParamDetuneCents
	// ParamVibratoDepth is the pitch LFO depth in cents.
	ParamVibratoDepth
	// ParamVibratoRate is the pitch LFO rate in Hz.
	ParamVibratoRate
)

// Option configures a Synth at construction.
type Option func(*config) error

type config struct {
	params additive.Params
}

func defaultConfig() config {
	return config{params: additive.DefaultParams()}
}

// WithPolyphony sets the maximum number of simultaneous voices.
func WithPolyphony(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("polyphony must be positive, got %d", n)
		}
		c.params.Polyphony = n
		return nil
	}
}

// WithPartialsPerVoice sets the size of each voice's partial bank.
func WithPartialsPerVoice(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("partials per voice must be positive, got %d", n)
		}
		c.params.PartialsPerVoice = n
		return nil
	}
}

// WithWaveform selects the harmonic preset for new voices.
func WithWaveform(w Waveform) Option {
	return func(c *config) error {
		switch w {
		case WaveformSine:
			c.params.Preset = additive.PresetSine
		case WaveformTriangle:
			c.params.Preset = additive.PresetTriangle
		case WaveformSquare:
			c.params.Preset = additive.PresetSquare
		case WaveformSaw:
			c.params.Preset = additive.PresetSaw
		default:
			return fmt.Errorf("unknown waveform %q", w)
		}
		return nil
	}
}

// WithEnvelope sets the voice amplitude envelope: attack, decay and release
// in seconds, sustain in [0, 1].
func WithEnvelope(attackSec, decaySec, sustain, releaseSec float64) Option {
	return func(c *config) error {
		c.params.Envelope.AttackSec = attackSec
		c.params.Envelope.DecaySec = decaySec
		c.params.Envelope.Sustain = sustain
		c.params.Envelope.ReleaseSec = releaseSec
		return nil
	}
}

// WithShaping sets the saturation curve and table resolution.
func WithShaping(curve CurveKind, resolution int) Option {
	return func(c *config) error {
		switch curve {
		case CurveTanh:
			c.params.Curve = shaper.Tanh
		case CurveDiode:
			c.params.Curve = shaper.Diode
		default:
			return fmt.Errorf("unknown curve %q", curve)
		}
		if resolution > 0 {
			c.params.TableResolution = resolution
		}
		return nil
	}
}

// WithSmoothingRamp sets the parameter smoothing time in seconds.
func WithSmoothingRamp(sec float64) Option {
	return func(c *config) error {
		if sec <= 0 {
			return fmt.Errorf("smoothing ramp must be positive, got %v", sec)
		}
		c.params.RampSec = sec
		return nil
	}
}

// WithFilter enables the ladder low-pass stage after saturation.
func WithFilter(cutoffHz, resonance float64) Option {
	return func(c *config) error {
		if cutoffHz <= 0 {
			return fmt.Errorf("filter cutoff must be positive, got %v", cutoffHz)
		}
		c.params.FilterCutoff = cutoffHz
		c.params.FilterResonance = resonance
		return nil
	}
}

// WithMasterGain sets the initial linear output gain.
func WithMasterGain(gain float64) Option {
	return func(c *config) error {
		if gain < 0 {
			return fmt.Errorf("master gain must be non-negative, got %v", gain)
		}
		c.params.MasterGain = gain
		return nil
	}
}

// Synth is the host-facing synthesizer. NoteOn, NoteOff and SetParam are
// safe from any goroutine; ProcessBlock and Process must be driven by a
// single audio goroutine.
type Synth struct {
	engine     *additive.Engine
	sampleRate int
}

// New builds a Synth. All configuration errors surface here, before any
// audio processing starts.
func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	engine, err := additive.New(sampleRate, cfg.params)
	if err != nil {
		return nil, err
	}
	return &Synth{engine: engine, sampleRate: sampleRate}, nil
}

// NoteOn starts (or retriggers) a note. velocity is in [0, 1].
func (s *Synth) NoteOn(note int, velocity float64) {
	s.engine.NoteOn(note, velocity)
}

// NoteOff releases a note. Releasing an unknown note (e.g. one whose voice
// was stolen) is a no-op.
func (s *Synth) NoteOff(note int) {
	s.engine.NoteOff(note)
}

// SetParam retargets a smoothed parameter. Unknown IDs are ignored.
func (s *Synth) SetParam(id ParamID, value float64) {
	switch id {
	case ParamMasterGain:
		s.engine.SetMasterGain(value)
	case ParamDriveDB:
		s.engine.SetDriveDB(value)
	case ParamDetuneCents:
		s.engine.SetDetune(value)
	case ParamVibratoDepth:
		s.engine.SetVibratoDepth(value)
	case ParamVibratoRate:
		s.engine.SetVibratoRate(value)
	}
}

// SetPartialGain glides the weight of one partial (across all voices) to
// gain, reshaping the spectrum without clicks.
func (s *Synth) SetPartialGain(index int, gain float64) {
	s.engine.SetPartialGain(index, gain)
}

// ProcessBlock renders len(dst) mono samples at the given rate. The rate may
// change between calls and takes effect immediately. Audio goroutine only.
func (s *Synth) ProcessBlock(sampleRate int, dst []float32) {
	if sampleRate > 0 && sampleRate != s.sampleRate {
		s.sampleRate = sampleRate
		s.engine.SetSampleRate(sampleRate)
	}
	s.engine.RenderBlock(dst)
}

// Process implements the audio.SampleSource contract at the current rate.
func (s *Synth) Process(dst []float32) {
	s.engine.RenderBlock(dst)
}

// ActiveVoices returns the number of sounding voices, for release-tail
// tracking on the host side.
func (s *Synth) ActiveVoices() int {
	return s.engine.ActiveVoiceCount()
}

// DroppedEvents reports how many note events overflowed the hand-off queue.
func (s *Synth) DroppedEvents() uint64 {
	return s.engine.DroppedEvents()
}
