package addsynth

import (
	"sync"

	intaudio "github.com/SolarLiner/addsynth/internal/audio"
)

// Player couples a Synth to the realtime audio backend. The synth remains
// directly usable for note events and automation while playback runs.
type Player struct {
	mu         sync.Mutex
	synth      *Synth
	audio      *intaudio.Player
	sampleRate int
	baseGain   float64
	volume     float64
}

// NewPlayer builds a Synth with the given options and connects it to the
// audio device at sampleRate.
func NewPlayer(sampleRate int, opts ...Option) (*Player, error) {
	synth, err := New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	backend, err := intaudio.NewPlayer(sampleRate, synth)
	if err != nil {
		return nil, err
	}
	return &Player{
		synth:      synth,
		audio:      backend,
		sampleRate: sampleRate,
		baseGain:   synth.engine.MasterGain(),
		volume:     1,
	}, nil
}

// Synth returns the synthesizer driven by this player.
func (p *Player) Synth() *Synth { return p.synth }

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// SetMasterVolume scales the synth's configured gain by a runtime volume.
// 1.0 is default; negative values clamp to 0.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.synth.SetParam(ParamMasterGain, p.baseGain*p.volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// PlaybackPosition returns the output position of the audio driver in
// samples, i.e. what the listener actually hears right now.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
