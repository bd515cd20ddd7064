package addsynth

import (
	"math"
	"testing"
)

func blockRMS(buf []float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func blockPeak(buf []float32) float64 {
	var m float64
	for _, s := range buf {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}

func TestNoteLifecycle(t *testing.T) {
	s, err := New(48000,
		WithPolyphony(4),
		WithPartialsPerVoice(8),
		WithShaping(CurveTanh, 2048),
	)
	if err != nil {
		t.Fatal(err)
	}

	s.NoteOn(60, 1)
	buf := make([]float32, 512)
	s.ProcessBlock(48000, buf)
	// Let the attack develop past its first block.
	s.ProcessBlock(48000, buf)

	if rms := blockRMS(buf); rms <= 0 {
		t.Fatalf("sounding note produced silence, RMS %f", rms)
	}
	if peak := blockPeak(buf); peak > 1 {
		t.Fatalf("output peak %f exceeds full scale", peak)
	}
	if got := s.ActiveVoices(); got != 1 {
		t.Fatalf("ActiveVoices = %d, want 1", got)
	}

	s.NoteOff(60)
	// Default release is 0.3s; render two seconds to cover the tail and the
	// reclaim hold.
	for i := 0; i < 2*48000/512; i++ {
		s.ProcessBlock(48000, buf)
	}
	if got := s.ActiveVoices(); got != 0 {
		t.Fatalf("ActiveVoices = %d after release, want 0", got)
	}
	s.ProcessBlock(48000, buf)
	if rms := blockRMS(buf); rms != 0 {
		t.Fatalf("released synth still audible, RMS %e", rms)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	for _, tc := range []struct {
		name string
		rate int
		opts []Option
	}{
		{"zero sample rate", 0, nil},
		{"negative polyphony", 48000, []Option{WithPolyphony(-1)}},
		{"zero partials", 48000, []Option{WithPartialsPerVoice(0)}},
		{"unknown waveform", 48000, []Option{WithWaveform("noise")}},
		{"unknown curve", 48000, []Option{WithShaping("hardclip", 2048)}},
		{"zero ramp", 48000, []Option{WithSmoothingRamp(0)}},
		{"negative cutoff", 48000, []Option{WithFilter(-100, 0)}},
		{"negative gain", 48000, []Option{WithMasterGain(-1)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.rate, tc.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAllWaveformsProduceOutput(t *testing.T) {
	for _, w := range []Waveform{WaveformSine, WaveformTriangle, WaveformSquare, WaveformSaw} {
		t.Run(string(w), func(t *testing.T) {
			s, err := New(48000, WithWaveform(w))
			if err != nil {
				t.Fatal(err)
			}
			s.NoteOn(69, 1)
			buf := make([]float32, 4096)
			s.ProcessBlock(48000, buf)
			if blockRMS(buf) < 0.001 {
				t.Fatalf("waveform %s silent", w)
			}
		})
	}
}

func TestSetParamAffectsOutput(t *testing.T) {
	play := func(configure func(*Synth)) float64 {
		s, err := New(48000)
		if err != nil {
			t.Fatal(err)
		}
		configure(s)
		s.NoteOn(60, 1)
		buf := make([]float32, 48000)
		s.ProcessBlock(48000, buf)
		return blockRMS(buf[24000:])
	}

	loud := play(func(s *Synth) {})
	quiet := play(func(s *Synth) { s.SetParam(ParamMasterGain, 0.05) })
	if quiet >= loud {
		t.Fatalf("master gain automation had no effect: %f vs %f", quiet, loud)
	}

	driven := play(func(s *Synth) { s.SetParam(ParamDriveDB, 36) })
	if driven == loud {
		t.Fatal("drive automation had no effect")
	}

	// Unknown parameter IDs are ignored.
	if got := play(func(s *Synth) { s.SetParam(ParamID(99), 123) }); got != loud {
		t.Fatalf("unknown param changed the output: %f vs %f", got, loud)
	}
}

func TestSampleRateChangeBetweenBlocks(t *testing.T) {
	s, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}
	s.NoteOn(60, 1)
	buf := make([]float32, 1024)
	s.ProcessBlock(48000, buf)
	s.ProcessBlock(44100, buf)
	for i, v := range buf {
		if math.IsNaN(float64(v)) || math.Abs(float64(v)) > 1 {
			t.Fatalf("sample %d out of range after rate change: %f", i, v)
		}
	}
	if blockRMS(buf) < 0.001 {
		t.Fatal("note lost across sample-rate change")
	}
}

func TestPolyphonyLimitHonored(t *testing.T) {
	s, err := New(48000, WithPolyphony(4))
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 10; n++ {
		s.NoteOn(50+n, 1)
	}
	buf := make([]float32, 2048)
	s.ProcessBlock(48000, buf)
	if got := s.ActiveVoices(); got > 4 {
		t.Fatalf("ActiveVoices = %d, want <= 4", got)
	}
	if blockPeak(buf) > 1 {
		t.Fatal("stolen pool exceeded full scale")
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	s, err := New(48000, WithPolyphony(16), WithPartialsPerVoice(32))
	if err != nil {
		b.Fatal(err)
	}
	for n := 0; n < 16; n++ {
		s.NoteOn(40+3*n, 1)
	}
	buf := make([]float32, 512)
	s.ProcessBlock(48000, buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Process(buf)
	}
}
