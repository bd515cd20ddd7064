// addsynth-render renders a Lua performance script to a WAV file.
//
// The script builds a score by calling note(timeSec, midiNote, durationSec
// [, velocity]); globals sample_rate and duration are available for
// convenience. Example:
//
//	for i = 0, 7 do
//		note(i * 0.25, 57 + i, 0.2, 0.9)
//	end
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SolarLiner/addsynth"
	lua "github.com/yuin/gopher-lua"
)

func main() {
	var (
		script     = flag.String("script", "", "path to a Lua performance script (required)")
		out        = flag.String("o", "out.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		seconds    = flag.Float64("seconds", 0, "render length; 0 = last event plus release tail")
		waveform   = flag.String("waveform", "saw", "harmonic preset: sine|triangle|square|saw")
		polyphony  = flag.Int("polyphony", 16, "maximum simultaneous voices")
		partials   = flag.Int("partials", 32, "partials per voice")
	)
	flag.Parse()

	if *script == "" {
		flag.Usage()
		os.Exit(2)
	}

	events, lastEnd, err := runScript(*script, *sampleRate, *seconds)
	if err != nil {
		log.Fatal(err)
	}
	if len(events) == 0 {
		log.Fatal("script produced no notes")
	}

	length := *seconds
	if length <= 0 {
		length = lastEnd + 1 // leave room for the release tail
	}

	samples, err := addsynth.RenderScore(events, *sampleRate, length,
		addsynth.WithWaveform(addsynth.Waveform(*waveform)),
		addsynth.WithPolyphony(*polyphony),
		addsynth.WithPartialsPerVoice(*partials),
	)
	if err != nil {
		log.Fatal(err)
	}

	wav := addsynth.EncodeWAVFloat32LE(samples, *sampleRate, 1)
	if err := os.WriteFile(*out, wav, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d samples, %.2fs at %d Hz)\n", *out, len(samples), length, *sampleRate)
}

// runScript executes the Lua file and collects the score it builds.
func runScript(path string, sampleRate int, seconds float64) ([]addsynth.ScoreEvent, float64, error) {
	var (
		events  []addsynth.ScoreEvent
		lastEnd float64
	)

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("sample_rate", lua.LNumber(sampleRate))
	L.SetGlobal("duration", lua.LNumber(seconds))
	L.SetGlobal("note", L.NewFunction(func(L *lua.LState) int {
		at := float64(L.CheckNumber(1))
		note := L.CheckInt(2)
		dur := float64(L.CheckNumber(3))
		vel := float64(L.OptNumber(4, 1.0))
		if at < 0 || dur <= 0 {
			L.ArgError(1, "note needs at >= 0 and duration > 0")
			return 0
		}
		events = append(events,
			addsynth.ScoreEvent{At: at, Note: note, Velocity: vel},
			addsynth.ScoreEvent{At: at + dur, Note: note, Off: true},
		)
		if at+dur > lastEnd {
			lastEnd = at + dur
		}
		return 0
	}))

	if err := L.DoFile(path); err != nil {
		return nil, 0, fmt.Errorf("script %s: %w", path, err)
	}
	return events, lastEnd, nil
}
