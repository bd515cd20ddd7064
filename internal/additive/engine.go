// Package additive implements the real-time additive synthesis engine: a
// fixed pool of voices, each summing a bank of sinusoidal partials, with a
// saturating transfer-function table on the output. All pools and tables are
// allocated at construction; the render path never allocates, locks or
// blocks.
package additive

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/SolarLiner/addsynth/internal/env"
	"github.com/SolarLiner/addsynth/internal/filter"
	"github.com/SolarLiner/addsynth/internal/lfo"
	"github.com/SolarLiner/addsynth/internal/shaper"
	"github.com/SolarLiner/addsynth/internal/smooth"
)

const (
	// maxBlockSize bounds the chunk the engine renders between event-queue
	// drains, so note timing stays within ~1.3ms at 48kHz.
	maxBlockSize = 64

	maxPolyphony   = 64
	maxPartials    = 128
	eventRingSize  = 256
	silenceHoldSec = 0.005

	// Deterministic PRNG seeds for per-voice phase offsets, so repeated
	// offline renders are bit-identical.
	prngSeed1 = 420
	prngSeed2 = 1337
)

// Params configures an Engine. Zero values fall back to DefaultParams.
type Params struct {
	Polyphony        int
	PartialsPerVoice int
	Preset           Preset
	Envelope         env.Config
	MasterGain       float64 // linear output gain
	DriveDB          float64 // saturation drive in dB, +/-36
	RampSec          float64 // smoothing ramp for parameter changes
	TableResolution  int
	TableLimit       float64      // saturation input domain is [-limit, +limit]
	Curve            shaper.Curve // nil means tanh
	FilterCutoff     float64      // ladder cutoff in Hz (0 = filter disabled)
	FilterResonance  float64
}

func DefaultParams() Params {
	return Params{
		Polyphony:        16,
		PartialsPerVoice: 32,
		Preset:           PresetSaw,
		Envelope:         env.DefaultConfig(),
		MasterGain:       0.5,
		DriveDB:          0,
		RampSec:          0.02,
		TableResolution:  2048,
		TableLimit:       4,
		FilterCutoff:     0,
		FilterResonance:  0,
	}
}

// Engine owns the voice pool and every piece of state the audio goroutine
// touches. Host threads interact only through the event ring and the
// smoothers' atomic targets.
type Engine struct {
	sampleRate float64
	params     Params

	voices  []voice
	gains   []float64 // normalized partial weights, shared by all voices
	nextAge uint64

	masterGain *smooth.Smoother
	drive      *smooth.Smoother
	detune     *smooth.Smoother // cents

	table  *shaper.Table
	events *eventRing
	prng   *rand.Rand
	ladder *filter.Ladder

	// vibrato state is audio-thread owned; depth and rate cross threads as
	// atomic float bits and are applied at chunk boundaries.
	vibrato      lfo.LFO
	vibDepthBits atomic.Uint64
	vibRateBits  atomic.Uint64

	ratioCoef   float64
	ampCoef     float64
	holdSamples int

	activeCount atomic.Int64
}

// New validates params and preallocates every pool and table. All failure
// modes live here, off the audio thread; once New returns, processing
// cannot fail.
func New(sampleRate int, params Params) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("additive: sample rate %d, need > 0", sampleRate)
	}
	if params.Polyphony <= 0 {
		params.Polyphony = DefaultParams().Polyphony
	}
	if params.Polyphony > maxPolyphony {
		return nil, fmt.Errorf("additive: polyphony %d exceeds ceiling %d", params.Polyphony, maxPolyphony)
	}
	if params.PartialsPerVoice <= 0 {
		params.PartialsPerVoice = DefaultParams().PartialsPerVoice
	}
	if params.PartialsPerVoice > maxPartials {
		return nil, fmt.Errorf("additive: %d partials per voice exceeds ceiling %d", params.PartialsPerVoice, maxPartials)
	}
	if params.TableResolution <= 0 {
		params.TableResolution = DefaultParams().TableResolution
	}
	if params.TableLimit <= 0 {
		params.TableLimit = DefaultParams().TableLimit
	}
	if params.RampSec <= 0 {
		params.RampSec = DefaultParams().RampSec
	}
	if params.MasterGain < 0 || math.IsNaN(params.MasterGain) {
		params.MasterGain = 0
	}
	curve := params.Curve
	if curve == nil {
		curve = shaper.Tanh
	}
	table, err := shaper.NewTable(params.TableResolution, -params.TableLimit, params.TableLimit, curve)
	if err != nil {
		return nil, err
	}

	fs := float64(sampleRate)
	e := &Engine{
		sampleRate: fs,
		params:     params,
		voices:     make([]voice, params.Polyphony),
		gains:      make([]float64, params.PartialsPerVoice),
		table:      table,
		events:     newEventRing(eventRingSize),
		prng:       rand.New(rand.NewPCG(prngSeed1, prngSeed2)),
	}
	for i := range e.voices {
		e.voices[i].partials = make([]partial, params.PartialsPerVoice)
	}

	var gainSum float64
	for i := range e.gains {
		_, g := params.Preset.partialAt(i)
		e.gains[i] = g
		gainSum += g
	}
	if gainSum > 0 {
		for i := range e.gains {
			e.gains[i] /= gainSum
		}
	}

	e.masterGain = smooth.New(smooth.Exponential, params.RampSec, fs, params.MasterGain)
	e.drive = smooth.New(smooth.Exponential, params.RampSec, fs, dbToGain(clampDriveDB(params.DriveDB)))
	e.detune = smooth.New(smooth.Linear, params.RampSec, fs, 0)
	if params.FilterCutoff > 0 {
		e.ladder = filter.NewLadder(fs, params.FilterCutoff, params.FilterResonance)
	}
	e.updateCoefs()
	return e, nil
}

// updateCoefs derives per-sample smoothing factors from the sample rate.
func (e *Engine) updateCoefs() {
	e.ratioCoef = 1 - math.Exp(-5/(e.sampleRate*e.params.RampSec))
	e.ampCoef = e.ratioCoef
	e.holdSamples = int(silenceHoldSec * e.sampleRate)
}

// SetSampleRate adjusts to a new host rate. Audio goroutine only; takes
// effect on the next sample.
func (e *Engine) SetSampleRate(sampleRate int) {
	if sampleRate <= 0 || float64(sampleRate) == e.sampleRate {
		return
	}
	e.sampleRate = float64(sampleRate)
	e.masterGain.SetSampleRate(e.sampleRate)
	e.drive.SetSampleRate(e.sampleRate)
	e.detune.SetSampleRate(e.sampleRate)
	e.updateCoefs()
}

// SampleRate returns the current rate. Audio goroutine only.
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// NoteOn enqueues a note-on. Safe from any goroutine; if the event ring is
// full the event is dropped and counted rather than blocking the audio path.
func (e *Engine) NoteOn(note int, velocity float64) {
	e.events.push(noteEvent{kind: evNoteOn, note: note, value: velocity})
}

// NoteOff enqueues a note-off. Unknown notes are a no-op at drain time.
func (e *Engine) NoteOff(note int) {
	e.events.push(noteEvent{kind: evNoteOff, note: note})
}

// SetPartialGain enqueues a harmonic-content change: partial index across
// all voices glides to the given weight.
func (e *Engine) SetPartialGain(index int, gain float64) {
	if math.IsNaN(gain) || gain < 0 {
		gain = 0
	}
	e.events.push(noteEvent{kind: evPartialGain, note: index, value: gain})
}

// SetMasterGain retargets the output gain smoother. Any goroutine.
func (e *Engine) SetMasterGain(gain float64) {
	if math.IsNaN(gain) || gain < 0 {
		gain = 0
	}
	e.masterGain.SetTarget(gain)
}

// MasterGain returns the current gain target.
func (e *Engine) MasterGain() float64 { return e.masterGain.Target() }

// SetDriveDB retargets the saturation drive, clamped to +/-36 dB.
// At unity drive and above the saturator bounds the output to [-1, 1].
// Below unity the post-gain compensation makes the stage near-transparent,
// so headroom follows the summed voice level instead of the saturator.
func (e *Engine) SetDriveDB(db float64) {
	e.drive.SetTarget(dbToGain(clampDriveDB(db)))
}

// SetDetune retargets the global detune in cents, clamped to +/-1200.
func (e *Engine) SetDetune(cents float64) {
	if math.IsNaN(cents) {
		return
	}
	e.detune.SetTarget(clamp(cents, -1200, 1200))
}

// SetVibratoDepth publishes a new pitch LFO depth in cents. Any goroutine.
func (e *Engine) SetVibratoDepth(cents float64) {
	if math.IsNaN(cents) {
		return
	}
	e.vibDepthBits.Store(math.Float64bits(clamp(cents, 0, 1200)))
}

// SetVibratoRate publishes a new pitch LFO rate in Hz. Any goroutine.
func (e *Engine) SetVibratoRate(hz float64) {
	if math.IsNaN(hz) || hz < 0 {
		hz = 0
	}
	e.vibRateBits.Store(math.Float64bits(hz))
}

// DroppedEvents reports how many host events overflowed the ring.
func (e *Engine) DroppedEvents() uint64 { return e.events.droppedCount() }

// ActiveVoiceCount returns the number of sounding (active or releasing)
// voices. Safe from any goroutine.
func (e *Engine) ActiveVoiceCount() int {
	return int(e.activeCount.Load())
}

// RenderBlock fills dst with mono samples. This is the audio-thread entry
// point: it drains pending events at chunk boundaries, sums every sounding
// voice, applies the smoothed gain and the saturation table, and reclaims
// voices that have fallen silent. It always runs to completion and performs
// no allocation.
func (e *Engine) RenderBlock(dst []float32) {
	for start := 0; start < len(dst); start += maxBlockSize {
		end := start + maxBlockSize
		if end > len(dst) {
			end = len(dst)
		}
		e.drainEvents()
		e.vibrato.Set(
			math.Float64frombits(e.vibDepthBits.Load()),
			math.Float64frombits(e.vibRateBits.Load()),
			lfo.WaveSine,
		)
		e.renderChunk(dst[start:end])
		e.reclaimVoices(end - start)
	}
}

func (e *Engine) renderChunk(dst []float32) {
	for i := range dst {
		detuneCents := e.detune.Next() + e.vibrato.Sample(e.sampleRate)
		detuneMul := centsToRatio(detuneCents)

		var sum float64
		for vi := range e.voices {
			v := &e.voices[vi]
			if v.state == voiceIdle {
				continue
			}
			sum += v.nextSample(e.sampleRate, detuneMul, e.ratioCoef, e.ampCoef)
		}

		g := e.masterGain.Next()
		d := e.drive.Next()
		y := e.table.Lookup(d*sum*g) / math.Min(d, 1)
		if e.ladder != nil {
			y = e.ladder.Process(y)
		}
		if math.IsNaN(y) {
			y = 0
		}
		dst[i] = float32(y)
	}
}

func (e *Engine) drainEvents() {
	for {
		ev, ok := e.events.pop()
		if !ok {
			return
		}
		switch ev.kind {
		case evNoteOn:
			e.noteOn(ev.note, ev.value)
		case evNoteOff:
			e.noteOff(ev.note)
		case evPartialGain:
			e.partialGain(ev.note, ev.value)
		}
	}
}

func (e *Engine) noteOn(note int, velocity float64) {
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	velocity = clamp(velocity, 0, 1)
	if math.IsNaN(velocity) {
		velocity = 0
	}

	// Retrigger an already-sounding note: re-attack only, phases intact.
	for i := range e.voices {
		v := &e.voices[i]
		if v.state == voiceActive && v.note == note {
			v.retrigger(velocity)
			return
		}
	}

	slot := e.allocVoice()
	v := &e.voices[slot]
	stolenLevel := 0.0
	wasSounding := v.state != voiceIdle
	if wasSounding {
		stolenLevel = v.env.Level()
	}
	e.nextAge++
	v.start(note, midiToFreq(note), velocity, e.nextAge, e.sampleRate, e.params.Envelope, e.params.Preset, e.gains, e.prng.Float64())
	if wasSounding {
		// A stolen voice re-attacks from the victim's level rather than
		// stepping down to zero.
		v.env.Reset(stolenLevel)
	}
	e.refreshActiveCount()
}

func (e *Engine) noteOff(note int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.state == voiceActive && v.note == note {
			v.release()
		}
	}
	e.refreshActiveCount()
}

func (e *Engine) partialGain(index int, gain float64) {
	if index < 0 || index >= len(e.gains) {
		return
	}
	e.gains[index] = gain
	for i := range e.voices {
		v := &e.voices[i]
		if v.state == voiceActive {
			ratio, _ := e.params.Preset.partialAt(index)
			v.partials[index].retune(ratio, gain)
		}
	}
}

// allocVoice picks the slot for a new note: a free voice if one exists,
// otherwise the releasing voice closest to silence, otherwise the oldest
// active voice.
func (e *Engine) allocVoice() int {
	for i := range e.voices {
		if e.voices[i].state == voiceIdle {
			return i
		}
	}

	steal := -1
	quietest := math.Inf(1)
	for i := range e.voices {
		v := &e.voices[i]
		if v.state == voiceReleasing && v.env.Level() < quietest {
			quietest = v.env.Level()
			steal = i
		}
	}
	if steal >= 0 {
		return steal
	}

	oldest := 0
	for i := range e.voices {
		if e.voices[i].age < e.voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

// reclaimVoices returns fully silent voices to the pool after a short hold
// time, reusing slots without freeing memory.
func (e *Engine) reclaimVoices(elapsed int) {
	changed := false
	for i := range e.voices {
		v := &e.voices[i]
		if v.state == voiceIdle {
			continue
		}
		if !v.env.Done() {
			v.holdLeft = e.holdSamples
			continue
		}
		v.fadePartials()
		if !v.silent() {
			continue
		}
		v.holdLeft -= elapsed
		if v.holdLeft <= 0 {
			v.state = voiceIdle
			changed = true
		}
	}
	if changed {
		e.refreshActiveCount()
	}
}

func (e *Engine) refreshActiveCount() {
	n := int64(0)
	for i := range e.voices {
		if e.voices[i].state != voiceIdle {
			n++
		}
	}
	e.activeCount.Store(n)
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func centsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return math.Pow(2, cents/1200)
}

func clampDriveDB(db float64) float64 {
	if math.IsNaN(db) {
		return 0
	}
	return clamp(db, -36, 36)
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
