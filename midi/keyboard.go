package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Input listens to one MIDI input port and forwards note-ons
type Input struct {
	id       string
	stopFunc func()
	noteChan chan NoteEvent
}

// OpenInput starts listening on inPort
func OpenInput(id string, inPort drivers.In) (*Input, error) {
	in := &Input{
		id:       id,
		noteChan: make(chan NoteEvent, 32),
	}
	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		var channel, note, velocity uint8
		if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
			select {
			case in.noteChan <- NoteEvent{Note: note, Velocity: velocity, Channel: channel}:
			default:
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", id, err)
	}
	in.stopFunc = stop
	return in, nil
}

// ID returns the port name
func (in *Input) ID() string {
	return in.id
}

// Notes delivers note-ons; closed by Close
func (in *Input) Notes() <-chan NoteEvent {
	return in.noteChan
}

func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}
	close(in.noteChan)
	return nil
}
