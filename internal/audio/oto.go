package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// sourceHolder boxes a SampleSource so it can cross threads through an
// atomic pointer.
type sourceHolder struct {
	src SampleSource
}

// OtoBackend drives a SampleSource through a low-latency mono oto stream.
// The source pointer is read atomically on the hot path; the mutex guards
// setup and control only.
type OtoBackend struct {
	ctx    *oto.Context
	player *oto.Player
	source atomic.Pointer[sourceHolder]
	buf    []float32
	mu     sync.Mutex
}

// NewOtoBackend opens a mono float32 oto context at the given rate and
// blocks until the device is ready.
func NewOtoBackend(sampleRate int) (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoBackend{ctx: ctx}, nil
}

// SetSource installs the source feeding the stream and creates the player
// on first use.
func (b *OtoBackend) SetSource(src SampleSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source.Store(&sourceHolder{src: src})
	if b.player == nil {
		b.player = b.ctx.NewPlayer(b)
		b.buf = make([]float32, 4096)
	}
}

// Read implements io.Reader for the oto player: it pulls samples from the
// source and encodes them as float32 LE. With no source installed it emits
// silence.
func (b *OtoBackend) Read(p []byte) (int, error) {
	holder := b.source.Load()
	if holder == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := len(p) / 4
	if len(b.buf) < n {
		b.buf = make([]float32, n)
	}
	samples := b.buf[:n]
	holder.src.Process(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}

// Start begins playback.
func (b *OtoBackend) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player != nil {
		b.player.Play()
	}
}

// Stop pauses and closes the stream.
func (b *OtoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player == nil {
		return nil
	}
	b.player.Pause()
	err := b.player.Close()
	b.player = nil
	return err
}
