// Package chime plays the end-of-song signal.
package chime

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"

	"go-lyrica/debug"
)

const sampleRate beep.SampleRate = 44100

type tone struct {
	freq float64
	dur  time.Duration
}

var melody = []tone{
	{880, 120 * time.Millisecond},
	{1320, 180 * time.Millisecond},
}

// Chime plays a short two-tone signal on the speaker, or rings the terminal
// bell when no audio device is available.
type Chime struct {
	bell     io.Writer
	audioOff bool

	once    sync.Once
	initErr error
}

// New returns a chime using the default audio device.
func New() *Chime {
	return &Chime{bell: os.Stdout}
}

// Bell returns a chime that only writes the terminal bell to w.
func Bell(w io.Writer) *Chime {
	return &Chime{bell: w, audioOff: true}
}

// Ring starts the signal and returns without waiting for it to finish.
func (c *Chime) Ring() {
	if !c.audioOff {
		c.once.Do(func() {
			c.initErr = speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond))
			if c.initErr != nil {
				debug.Log("chime", "speaker init failed, using bell: %v", c.initErr)
			}
		})
		if c.initErr == nil {
			s, err := build(sampleRate, melody)
			if err == nil {
				speaker.Play(s)
				return
			}
			debug.Log("chime", "build tone: %v", err)
		}
	}
	io.WriteString(c.bell, "\a")
}

// build chains the tones at a comfortable volume.
func build(sr beep.SampleRate, tones []tone) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sr, t.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sr.N(t.dur), sine))
	}
	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: -2}, nil
}
