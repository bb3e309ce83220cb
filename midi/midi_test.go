package midi

import (
	"testing"

	"go-lyrica/config"
)

func TestMappingCommand(t *testing.T) {
	m := NewRemote(config.DefaultSettings().MIDIRemote).mapping
	tests := []struct {
		note uint8
		want Command
		ok   bool
	}{
		{60, CommandPlay, true},
		{62, CommandPause, true},
		{64, CommandStop, true},
		{61, 0, false},
	}
	for _, tt := range tests {
		got, ok := m.Command(tt.note)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Command(%d) = %v,%v want %v,%v", tt.note, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPickPort(t *testing.T) {
	names := []string{"Midi Through:0", "nanoKEY2:nanoKEY2 MIDI 1 24:0"}
	tests := []struct {
		want string
		idx  int
	}{
		{"", 0},
		{"nanokey", 1},
		{"launchpad", -1},
	}
	for _, tt := range tests {
		if got := pickPort(names, tt.want); got != tt.idx {
			t.Fatalf("pickPort(%q) = %d, want %d", tt.want, got, tt.idx)
		}
	}
	if got := pickPort(nil, ""); got != -1 {
		t.Fatalf("empty port list = %d", got)
	}
}

func TestShutdownWaitsForForwarding(t *testing.T) {
	cfg := config.DefaultSettings().MIDIRemote
	for round := 0; round < 50; round++ {
		r := NewRemote(cfg)
		in := &Input{id: "test", noteChan: make(chan NoteEvent, 32)}
		r.attach(in)
		for i := 0; i < 32; i++ {
			in.noteChan <- NoteEvent{Note: cfg.PlayNote, Velocity: 100}
		}

		r.shutdown()

		n := 0
		for range r.Commands() {
			n++
		}
		if n > cap(r.commands) {
			t.Fatalf("got %d commands from a buffer of %d", n, cap(r.commands))
		}
	}
}
