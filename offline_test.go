package addsynth

import (
	"encoding/binary"
	"testing"
)

func testScore() []ScoreEvent {
	return []ScoreEvent{
		{At: 0, Note: 60, Velocity: 1},
		{At: 0.5, Note: 60, Off: true},
		{At: 0.25, Note: 64, Velocity: 0.8},
		{At: 0.75, Note: 64, Off: true},
	}
}

func TestRenderScoreProducesAudio(t *testing.T) {
	out, err := RenderScore(testScore(), 48000, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 72000 {
		t.Fatalf("rendered %d frames, want 72000", len(out))
	}
	if blockRMS(out[:24000]) < 0.001 {
		t.Fatal("score rendered silent")
	}
	if blockPeak(out) > 1 {
		t.Fatalf("score peaked at %f", blockPeak(out))
	}
	// The tail after both releases must decay to silence.
	if tail := blockRMS(out[len(out)-4800:]); tail > 1e-3 {
		t.Fatalf("tail RMS %e, expected near silence", tail)
	}
}

func TestRenderScoreDeterministic(t *testing.T) {
	a, err := RenderScore(testScore(), 48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RenderScore(testScore(), 48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at frame %d", i)
		}
	}
}

func TestRenderScoreEventOrderIrrelevant(t *testing.T) {
	score := testScore()
	reversed := make([]ScoreEvent, len(score))
	for i, ev := range score {
		reversed[len(score)-1-i] = ev
	}
	a, err := RenderScore(score, 48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RenderScore(reversed, 48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event order changed the render at frame %d", i)
		}
	}
}

func TestRenderScoreRejectsBadArgs(t *testing.T) {
	if _, err := RenderScore(nil, 48000, 0); err == nil {
		t.Error("zero duration should fail")
	}
	if _, err := RenderScore(nil, 0, 1); err == nil {
		t.Error("zero sample rate should fail")
	}
	if _, err := RenderScore(nil, 48000, 1, WithWaveform("noise")); err == nil {
		t.Error("bad option should surface")
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := make([]float32, 100)
	wav := EncodeWAVFloat32LE(samples, 48000, 1)

	if len(wav) != 44+400 {
		t.Fatalf("encoded %d bytes, want %d", len(wav), 44+400)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if string(wav[12:16]) != "fmt " || string(wav[36:40]) != "data" {
		t.Fatal("missing fmt/data chunks")
	}
	if got := binary.LittleEndian.Uint16(wav[20:]); got != 3 {
		t.Errorf("format tag %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:]); got != 1 {
		t.Errorf("channels %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 48000 {
		t.Errorf("sample rate %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:]); got != 32 {
		t.Errorf("bits per sample %d, want 32", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != 400 {
		t.Errorf("data size %d, want 400", got)
	}
	if got := binary.LittleEndian.Uint32(wav[4:]); got != 36+400 {
		t.Errorf("RIFF size %d, want %d", got, 36+400)
	}
}
