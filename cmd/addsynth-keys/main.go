// addsynth-keys is an interactive terminal keyboard for the synthesizer.
// The home row plays notes (z..m for the lower octave, q..u above), '[' and
// ']' shift octaves, '-' and '=' adjust volume, Esc or Ctrl-C quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SolarLiner/addsynth"
	"github.com/SolarLiner/addsynth/internal/audio"
	"golang.org/x/term"
)

// keymap lays two octaves of semitones over the letter rows.
var keymap = map[byte]int{
	'z': 0, 's': 1, 'x': 2, 'd': 3, 'c': 4, 'v': 5, 'g': 6,
	'b': 7, 'h': 8, 'n': 9, 'j': 10, 'm': 11,
	'q': 12, '2': 13, 'w': 14, '3': 15, 'e': 16, 'r': 17, '5': 18,
	't': 19, '6': 20, 'y': 21, '7': 22, 'u': 23,
}

const noteHold = 250 * time.Millisecond

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		waveform   = flag.String("waveform", "saw", "harmonic preset: sine|triangle|square|saw")
		baseNote   = flag.Int("base-note", 48, "MIDI note of the lowest key")
	)
	flag.Parse()

	synth, err := addsynth.New(*sampleRate,
		addsynth.WithWaveform(addsynth.Waveform(*waveform)),
	)
	if err != nil {
		log.Fatal(err)
	}

	backend, err := audio.NewOtoBackend(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	backend.SetSource(synth)
	backend.Start()
	defer backend.Stop()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatal(err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("addsynth-keys: z..m / q..u play, [ ] octave, - = volume, Esc quits\r\n")

	octave := 0
	volume := 0.5
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return
		}
		key := buf[0]
		switch key {
		case 27, 3: // Esc, Ctrl-C
			return
		case '[':
			if octave > -3 {
				octave--
			}
			fmt.Printf("octave %+d\r\n", octave)
		case ']':
			if octave < 3 {
				octave++
			}
			fmt.Printf("octave %+d\r\n", octave)
		case '-':
			if volume > 0.05 {
				volume -= 0.05
			}
			synth.SetParam(addsynth.ParamMasterGain, volume)
		case '=':
			if volume < 1 {
				volume += 0.05
			}
			synth.SetParam(addsynth.ParamMasterGain, volume)
		default:
			semitone, ok := keymap[key]
			if !ok {
				continue
			}
			note := *baseNote + 12*octave + semitone
			synth.NoteOn(note, 0.9)
			// Terminals report no key-up, so every press plays a fixed-length
			// note.
			time.AfterFunc(noteHold, func() { synth.NoteOff(note) })
		}
	}
}
