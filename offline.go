package addsynth

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
)

// ScoreEvent is one timed note event for offline rendering.
type ScoreEvent struct {
	At       float64 // seconds from the start
	Note     int     // MIDI note number
	Velocity float64 // 0..1; ignored for note-offs
	Off      bool    // true for a note-off
}

const offlineBlock = 256

// RenderScore renders a timed event list to mono samples. Rendering is
// deterministic: the same score and options always produce the same buffer.
func RenderScore(events []ScoreEvent, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	if seconds <= 0 {
		return nil, errors.New("seconds must be positive")
	}
	synth, err := New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}

	sorted := make([]ScoreEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames)
	next := 0
	for start := 0; start < frames; start += offlineBlock {
		t := float64(start) / float64(sampleRate)
		for next < len(sorted) && sorted[next].At <= t {
			ev := sorted[next]
			if ev.Off {
				synth.NoteOff(ev.Note)
			} else {
				synth.NoteOn(ev.Note, ev.Velocity)
			}
			next++
		}
		end := start + offlineBlock
		if end > frames {
			end = frames
		}
		synth.ProcessBlock(sampleRate, out[start:end])
	}
	return out, nil
}

// EncodeWAVFloat32LE wraps samples in a minimal IEEE-float WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
