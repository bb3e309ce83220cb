package song

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestParseObjectAndList(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"object", `{"name":"Ode","songNotes":[{"key":"1Key0","time":0},{"key":"1Key2","time":250.4}]}`},
		{"list", `[{"name":"Ode","songNotes":[{"key":"1Key0","time":0},{"key":"1Key2","time":250}]},{"name":"other"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if s.Name != "Ode" || len(s.Notes) != 2 {
				t.Fatalf("song = %+v", s)
			}
			if s.Notes[1] != (Note{Key: "1Key2", Time: 250}) {
				t.Fatalf("note = %+v", s.Notes[1])
			}
		})
	}
}

func TestParseUTF16WithBOM(t *testing.T) {
	doc := `[{"name":"X","songNotes":[{"key":"Key3","time":10}]}]`
	data := []byte{0xFF, 0xFE}
	for _, r := range doc {
		data = append(data, byte(r), 0)
	}
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Notes) != 1 || s.Notes[0].Key != "Key3" {
		t.Fatalf("song = %+v", s)
	}
}

func TestParseUTF16WithoutBOM(t *testing.T) {
	doc := `{"songNotes":[{"key":"Key1","time":5}]}`
	var data []byte
	for _, r := range doc {
		data = append(data, byte(r), 0)
	}
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Notes) != 1 || s.Notes[0].Time != 5 {
		t.Fatalf("song = %+v", s)
	}
}

func TestParseRejectsBadSheets(t *testing.T) {
	for _, doc := range []string{"", "[]", "{oops", `{"isEncrypted":true,"songNotes":"abc"}`} {
		_, err := Parse([]byte(doc))
		if err == nil {
			t.Fatalf("expected error for %q", doc)
		}
		if ftag.Get(err) != KindInvalidSheet {
			t.Fatalf("kind for %q = %q", doc, ftag.Get(err))
		}
	}
}

func TestParseKeepsMissingNotesEmpty(t *testing.T) {
	s, err := Parse([]byte(`{"name":"silent"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Notes) != 0 {
		t.Fatalf("notes = %v", s.Notes)
	}
}

func TestLoadChecksExtensionAndBaseDir(t *testing.T) {
	base := t.TempDir()
	good := filepath.Join(base, "song.skysheet")
	if err := os.WriteFile(good, []byte(`{"songNotes":[{"key":"Key0","time":0}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(good, Options{BaseDir: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "song" {
		t.Fatalf("name = %q, want file stem", s.Name)
	}

	bad := filepath.Join(base, "song.xml")
	if err := os.WriteFile(bad, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad, Options{}); err == nil {
		t.Fatalf("expected extension error")
	}

	outside := filepath.Join(t.TempDir(), "song.json")
	if err := os.WriteFile(outside, []byte(`{"songNotes":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(outside, Options{BaseDir: base}); err == nil {
		t.Fatalf("expected base dir error")
	}
}

func TestKeyForPitch(t *testing.T) {
	tests := []struct {
		pitch uint8
		want  string
		ok    bool
	}{
		{60, "Key0", true},
		{62, "Key1", true},
		{71, "Key6", true},
		{72, "Key7", true},
		{84, "Key14", true},
		{61, "", false},
		{48, "Key0", true}, // folded up an octave
		{96, "Key7", true}, // folded down
	}
	for _, tt := range tests {
		got, ok := KeyForPitch(tt.pitch, 0)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("KeyForPitch(%d) = %q,%v want %q,%v", tt.pitch, got, ok, tt.want, tt.ok)
		}
	}
}

func TestImportMIDIConvertsTicksToMilliseconds(t *testing.T) {
	clock := smf.MetricTicks(96)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(clock.Ticks4th(), midi.NoteOff(0, 60))
	tr.Add(0, midi.NoteOn(0, 64, 100))
	tr.Add(clock.Ticks4th(), midi.NoteOff(0, 64))
	tr.Add(0, midi.NoteOn(0, 61, 100)) // off-scale
	tr.Add(clock.Ticks4th(), midi.NoteOff(0, 61))
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = clock
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scale.mid")
	if err := s.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []Note{{Key: "Key0", Time: 0}, {Key: "Key2", Time: 500}}
	if len(got.Notes) != len(want) {
		t.Fatalf("notes = %+v, want %+v", got.Notes, want)
	}
	for i := range want {
		if got.Notes[i] != want[i] {
			t.Fatalf("note %d = %+v, want %+v", i, got.Notes[i], want[i])
		}
	}
	if got.BPM != 120 || got.Name != "scale" {
		t.Fatalf("meta = %q %d", got.Name, got.BPM)
	}
}
