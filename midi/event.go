package midi

// Command is a transport action requested from a MIDI controller
type Command int

const (
	CommandPlay Command = iota
	CommandPause
	CommandStop
)

func (c Command) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandStop:
		return "stop"
	}
	return "unknown"
}

// NoteEvent is a note-on received from an input port
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Mapping assigns transport commands to note numbers
type Mapping struct {
	Play  uint8
	Pause uint8
	Stop  uint8
}

// Command returns the command bound to note.
func (m Mapping) Command(note uint8) (Command, bool) {
	switch note {
	case m.Play:
		return CommandPlay, true
	case m.Pause:
		return CommandPause, true
	case m.Stop:
		return CommandStop, true
	}
	return 0, false
}
