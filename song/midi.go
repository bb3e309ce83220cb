package song

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-lyrica/debug"
)

// The in-game instrument has 15 keys laid out as two octaves of a major
// scale plus the top tonic.
const NumKeys = 15

var majorScale = [12]int{0, -1, 1, -1, 2, 3, -1, 4, -1, 5, -1, 6}

// MIDIOptions control ImportMIDI
type MIDIOptions struct {
	// Root is the MIDI pitch played by Key0. Zero means middle C (60).
	Root uint8
	// Channel restricts import to one channel (1-16); zero imports all.
	Channel uint8
}

// KeyForPitch maps a MIDI pitch onto a logical key id. Pitches outside the
// two-octave range are folded by octaves; pitches off the scale return false.
func KeyForPitch(pitch, root uint8) (string, bool) {
	if root == 0 {
		root = 60
	}
	rel := int(pitch) - int(root)
	for rel < 0 {
		rel += 12
	}
	for rel > 24 {
		rel -= 12
	}
	if rel == 24 {
		return "Key" + strconv.Itoa(NumKeys-1), true
	}
	deg := majorScale[rel%12]
	if deg < 0 {
		return "", false
	}
	return "Key" + strconv.Itoa(rel/12*7+deg), true
}

type tempoChange struct {
	tick int64
	bpm  float64
}

type noteStart struct {
	tick int64
	key  uint8
}

// ImportMIDI reads a Standard MIDI File and converts note-ons to a sheet.
func ImportMIDI(path string, opts MIDIOptions) (*Song, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, invalid(err, "read midi file", "The MIDI file could not be read.")
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, invalid(nil, "smpte time format", "MIDI files with SMPTE timing are not supported.")
	}

	var tempos []tempoChange
	var starts []noteStart
	for _, tr := range s.Tracks {
		var abs int64
		for _, ev := range tr {
			abs += int64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				tempos = append(tempos, tempoChange{tick: abs, bpm: bpm})
				continue
			}

			var ch, key, vel uint8
			if midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
				if opts.Channel != 0 && ch != opts.Channel-1 {
					continue
				}
				starts = append(starts, noteStart{tick: abs, key: key})
			}
		}
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	sort.SliceStable(starts, func(i, j int) bool { return starts[i].tick < starts[j].tick })

	out := &Song{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), BPM: 120}
	if len(tempos) > 0 {
		out.BPM = int(tempos[0].bpm + 0.5)
	}

	// Walk notes and tempo changes together, accumulating wall time.
	var (
		elapsed  time.Duration
		lastTick int64
		bpm      = 120.0
		ti       int
		dropped  int
		seen     = map[string]int{}
	)
	for _, st := range starts {
		for ti < len(tempos) && tempos[ti].tick <= st.tick {
			elapsed += ticks.Duration(bpm, uint32(tempos[ti].tick-lastTick))
			lastTick = tempos[ti].tick
			bpm = tempos[ti].bpm
			ti++
		}
		at := elapsed + ticks.Duration(bpm, uint32(st.tick-lastTick))

		key, ok := KeyForPitch(st.key, opts.Root)
		if !ok {
			dropped++
			continue
		}
		ms := int(at / time.Millisecond)
		if t, dup := seen[key]; dup && t == ms {
			continue
		}
		seen[key] = ms
		out.Notes = append(out.Notes, Note{Key: key, Time: ms})
	}

	debug.Log("song", "imported %s: %d notes, %d off-scale dropped", path, len(out.Notes), dropped)
	return out, nil
}
