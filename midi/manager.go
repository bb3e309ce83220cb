// Package midi lets a MIDI controller drive the player: notes on a chosen
// input port become play, pause and stop commands.
package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-lyrica/config"
	"go-lyrica/debug"
)

// DeviceEvent is emitted when the remote port connects/disconnects
type DeviceEvent struct {
	Type DeviceEventType
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// Remote handles hot-plug of the control port and turns its notes into
// commands
type Remote struct {
	port    string
	mapping Mapping

	mu      sync.Mutex
	input   *Input
	forward sync.WaitGroup // running forward loops; commands closes after them

	commands chan Command
	events   chan DeviceEvent
	pollRate time.Duration
}

// NewRemote creates a remote for the configured port. An empty port name
// takes the first input.
func NewRemote(cfg config.MIDIRemoteConfig) *Remote {
	return &Remote{
		port:     cfg.Port,
		mapping:  Mapping{Play: cfg.PlayNote, Pause: cfg.PauseNote, Stop: cfg.StopNote},
		commands: make(chan Command, 8),
		events:   make(chan DeviceEvent, 8),
		pollRate: time.Second,
	}
}

// Commands returns mapped transport commands
func (r *Remote) Commands() <-chan Command {
	return r.commands
}

// Events returns connect/disconnect events
func (r *Remote) Events() <-chan DeviceEvent {
	return r.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (r *Remote) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollRate)
	defer ticker.Stop()

	r.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case <-ticker.C:
			r.scan(ctx)
		}
	}
}

// pickPort returns the index of the port matching want, or -1.
func pickPort(names []string, want string) int {
	if len(names) == 0 {
		return -1
	}
	if want == "" {
		return 0
	}
	want = strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

func (r *Remote) scan(ctx context.Context) {
	// Get current MIDI ports with timeout (some backends hang)
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return
	case <-ctx.Done():
		return
	}

	names := make([]string, len(inPorts))
	for i, p := range inPorts {
		names[i] = p.String()
	}
	idx := pickPort(names, r.port)

	r.mu.Lock()
	current := r.input
	r.mu.Unlock()

	if current != nil {
		if idx >= 0 && names[idx] == current.ID() {
			return
		}
		r.disconnect()
	}
	if idx < 0 {
		return
	}

	in, err := OpenInput(names[idx], inPorts[idx])
	if err != nil {
		debug.Log("midi", "open %s: %v", names[idx], err)
		return
	}
	r.attach(in)
}

func (r *Remote) attach(in *Input) {
	r.mu.Lock()
	r.input = in
	r.mu.Unlock()
	r.forward.Add(1)
	go func() {
		defer r.forward.Done()
		r.forwardNotes(in)
	}()

	debug.Log("midi", "remote connected: %s", in.ID())
	r.send(DeviceEvent{Type: DeviceConnected, ID: in.ID()})
}

// shutdown closes the input and, once no forward loop can still send,
// the output channels.
func (r *Remote) shutdown() {
	r.disconnect()
	r.forward.Wait()
	close(r.events)
	close(r.commands)
}

// forwardNotes maps notes from in until it is closed.
func (r *Remote) forwardNotes(in *Input) {
	for ev := range in.Notes() {
		cmd, ok := r.mapping.Command(ev.Note)
		if !ok {
			continue
		}
		debug.Log("midi", "note %d -> %s", ev.Note, cmd)
		select {
		case r.commands <- cmd:
		default:
		}
	}
}

func (r *Remote) disconnect() {
	r.mu.Lock()
	in := r.input
	r.input = nil
	r.mu.Unlock()
	if in == nil {
		return
	}
	in.Close()
	r.send(DeviceEvent{Type: DeviceDisconnected, ID: in.ID()})
}

func (r *Remote) send(ev DeviceEvent) {
	select {
	case r.events <- ev:
	default:
	}
}
