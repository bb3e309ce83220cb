package player

// State of the transport
type State int32

const (
	Idle State = iota
	Running
	Paused
	Stopped
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// EventKind identifies an Event
type EventKind int

const (
	EventStarted EventKind = iota
	EventNote
	EventPaused
	EventResumed
	EventStopped
	EventDone
	EventFailed
)

// Event reports session progress to watchers. For EventNote, Key is empty
// when the note had no bound key.
type Event struct {
	Kind  EventKind
	Index int
	Total int
	Key   string
	Speed float64
	Err   error
}
