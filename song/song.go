// Package song loads note sheets into time-ordered note sequences.
package song

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// KindInvalidSheet tags files that cannot be turned into a note sequence.
const KindInvalidSheet ftag.Kind = "INVALID_SHEET"

// Note is one scheduled key event, Time in milliseconds from song start.
type Note struct {
	Key  string `json:"key"`
	Time int    `json:"time"`
}

// UnmarshalJSON accepts fractional timestamps, which some sheet exporters
// write, and rounds them to the nearest millisecond.
func (n *Note) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key  string  `json:"key"`
		Time float64 `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Key = raw.Key
	n.Time = int(math.Round(raw.Time))
	return nil
}

// Song is a parsed sheet
type Song struct {
	Name   string `json:"name"`
	Author string `json:"author,omitempty"`
	BPM    int    `json:"bpm,omitempty"`
	Notes  []Note `json:"songNotes"`
}

// Duration returns the timestamp of the last note in milliseconds
func (s *Song) Duration() int {
	if len(s.Notes) == 0 {
		return 0
	}
	return s.Notes[len(s.Notes)-1].Time
}

// SheetExtensions are the accepted sheet file suffixes.
var SheetExtensions = []string{".json", ".txt", ".skysheet"}

// MIDIExtensions are routed to ImportMIDI.
var MIDIExtensions = []string{".mid", ".midi"}

// Options control Load.
type Options struct {
	// BaseDir, when set, confines loading to files under this directory.
	BaseDir string
	MIDI    MIDIOptions
}

func invalid(err error, internal, desc string) error {
	if err == nil {
		return fault.New(internal, ftag.With(KindInvalidSheet), fmsg.WithDesc(internal, desc))
	}
	return fault.Wrap(err, ftag.With(KindInvalidSheet), fmsg.WithDesc(internal, desc))
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a sheet or MIDI file from disk.
func Load(path string, opts Options) (*Song, error) {
	if opts.BaseDir != "" {
		if err := confine(path, opts.BaseDir); err != nil {
			return nil, err
		}
	}

	if hasExt(path, MIDIExtensions) {
		return ImportMIDI(path, opts.MIDI)
	}
	if !hasExt(path, SheetExtensions) {
		return nil, invalid(nil, "unsupported file format", "Invalid file format: "+filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func confine(path, base string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}
	if resolved, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = resolved
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return invalid(nil, "path outside base directory",
			"For security reasons only files inside "+absBase+" can be opened.")
	}
	return nil
}

// decodeText returns UTF-8 text. Sheets exported by the game are often UTF-16
// with a BOM; UTF-16LE without BOM is detected by a zero second byte.
func decodeText(data []byte) ([]byte, error) {
	var dec transform.Transformer
	switch {
	case len(data) >= 2 && data[0] != 0 && data[1] == 0:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}
	return io.ReadAll(transform.NewReader(bytes.NewReader(data), dec))
}

// Parse decodes sheet JSON: a single song object, or a list whose first
// element is the song.
func Parse(data []byte) (*Song, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, invalid(err, "decode sheet text", "The file is not readable text.")
	}
	text = bytes.TrimSpace(text)
	if len(text) == 0 {
		return nil, invalid(nil, "empty sheet", "The file is empty.")
	}

	var raw json.RawMessage = text
	if text[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(text, &list); err != nil {
			return nil, invalid(err, "decode sheet list", "The file is not a valid song sheet.")
		}
		if len(list) == 0 {
			return nil, invalid(nil, "empty sheet list", "The file contains no songs.")
		}
		raw = list[0]
	}

	var probe struct {
		Encrypted bool            `json:"isEncrypted"`
		Notes     json.RawMessage `json:"songNotes"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, invalid(err, "decode sheet", "The file is not a valid song sheet.")
	}
	if probe.Encrypted {
		return nil, invalid(nil, "encrypted sheet", "Encrypted sheets cannot be played.")
	}

	var s Song
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalid(err, "decode sheet notes", "The songNotes list is malformed.")
	}
	return &s, nil
}
