package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"

	"go-lyrica/song"
)

type atomicDuration struct{ v atomic.Int64 }

func (a *atomicDuration) Load() time.Duration   { return time.Duration(a.v.Load()) }
func (a *atomicDuration) Store(d time.Duration) { a.v.Store(int64(d)) }

// session is one run of the engine over a note sequence.
type session struct {
	t        *Transport
	notes    []song.Note
	rel      *releaser
	cancel   context.CancelFunc
	done     chan struct{}
	detached atomic.Bool // abandoned by a timed-out join; must not touch shared state

	// keys the keyboard could not type, warned about once; worker only
	unmapped map[string]bool
}

func (s *session) paused() bool {
	return s.t.paused.Load()
}

func (s *session) setState(st State) {
	if !s.detached.Load() {
		s.t.state.Store(int32(st))
	}
}

func (s *session) report(ev Event) {
	if !s.detached.Load() {
		s.t.emit(ev)
	}
}

// Transport starts, stops and pauses playback sessions. At most one session
// is active; all methods are safe for concurrent use.
type Transport struct {
	engine *Engine

	mu  sync.Mutex // serialises Start and Stop
	cur *session

	paused atomic.Bool
	state  atomic.Int32

	events chan Event

	errMu   sync.Mutex
	lastErr error
}

// NewTransport creates the engine and its transport.
func NewTransport(cfg Config, deps Deps) (*Transport, error) {
	e, err := NewEngine(cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Transport{
		engine: e,
		events: make(chan Event, 64),
	}, nil
}

// Engine returns the underlying engine
func (t *Transport) Engine() *Engine { return t.engine }

// Watch returns the event stream. Events are dropped when nobody reads.
func (t *Transport) Watch() <-chan Event { return t.events }

func (t *Transport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
	}
}

// State returns the current transport state
func (t *Transport) State() State { return State(t.state.Load()) }

// Err returns the fault that ended the last session, if any.
func (t *Transport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.lastErr
}

func (t *Transport) setErr(err error) {
	t.errMu.Lock()
	t.lastErr = err
	t.errMu.Unlock()
}

// SetSpeed changes the target speed, effective from the next note.
func (t *Transport) SetSpeed(v float64) error { return t.engine.tempo.SetSpeed(v) }

// Speed returns the target speed
func (t *Transport) Speed() float64 { return t.engine.tempo.Speed() }

// SetPressDuration changes the key hold time.
func (t *Transport) SetPressDuration(d time.Duration) error { return t.engine.SetPressDuration(d) }

// PressDuration returns the key hold time
func (t *Transport) PressDuration() time.Duration { return t.engine.PressDuration() }

// Start stops any active session and plays notes in a new one. Precondition
// errors are returned before anything is started.
func (t *Transport) Start(ctx context.Context, notes []song.Note) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if err := t.engine.Check(ctx, notes); err != nil {
		t.state.Store(int32(Idle))
		return err
	}

	t.paused.Store(false)
	t.setErr(nil)
	t.engine.focus(ctx)

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		t:        t,
		notes:    notes,
		rel:      newReleaser(t.engine.kb, t.engine.clock, t.engine.log),
		cancel:   cancel,
		done:     make(chan struct{}),
		unmapped: make(map[string]bool),
	}
	t.cur = s
	t.state.Store(int32(Running))
	t.engine.log.Infow("playback started", "notes", len(notes), "speed", t.engine.tempo.Speed())

	go t.work(sctx, s)
	return nil
}

func (t *Transport) work(ctx context.Context, s *session) {
	defer close(s.done)
	defer s.cancel()

	err := t.safeRun(ctx, s)
	s.rel.Cancel()

	switch {
	case err == nil:
		s.setState(Done)
		s.report(Event{Kind: EventDone, Index: len(s.notes) - 1, Total: len(s.notes)})
		t.engine.log.Infow("playback finished", "notes", len(s.notes))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.setState(Stopped)
		s.report(Event{Kind: EventStopped, Total: len(s.notes)})
		t.engine.log.Infow("playback stopped")
	default:
		if s.detached.Load() {
			return
		}
		t.setErr(err)
		s.setState(Failed)
		s.report(Event{Kind: EventFailed, Total: len(s.notes), Err: err})
		t.engine.log.Errorw("playback failed", "error", err)
	}
}

// safeRun turns a panic in the loop into a session fault.
func (t *Transport) safeRun(ctx context.Context, s *session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fault.New(fmt.Sprintf("playback panic: %v", r), ftag.With(KindInternal))
		}
	}()
	return t.engine.run(ctx, s)
}

// Stop ends the active session and waits for it, at most JoinTimeout. Held
// keys are released. Calling Stop with nothing playing only resets the state
// to Idle.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.state.Store(int32(Idle))
}

func (t *Transport) stopLocked() {
	defer t.engine.tempo.StopRamp()

	s := t.cur
	if s == nil {
		return
	}
	t.cur = nil
	s.cancel()
	t.paused.Store(false)

	timer := time.NewTimer(t.engine.cfg.JoinTimeout)
	defer timer.Stop()
	select {
	case <-s.done:
		// the worker released its keys on the way out
	case <-timer.C:
		s.detached.Store(true)
		t.engine.log.Warnw("playback worker did not stop in time", "timeout", t.engine.cfg.JoinTimeout)
		// the worker may be stuck inside the keyboard; release its keys
		// whenever it lets go
		go s.rel.Cancel()
	}
}

// Wait blocks until the active session ends or ctx is done.
func (t *Transport) Wait(ctx context.Context) error {
	t.mu.Lock()
	s := t.cur
	t.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports whether a session exists and has not finished.
func (t *Transport) Active() bool {
	t.mu.Lock()
	s := t.cur
	t.mu.Unlock()
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Pause asks the engine to stop at the next note boundary.
func (t *Transport) Pause() {
	if t.Active() {
		t.paused.Store(true)
	}
}

// Resume clears the pause flag after bringing the target to the front.
func (t *Transport) Resume() {
	if !t.paused.Load() {
		return
	}
	t.engine.focus(context.Background())
	t.paused.Store(false)
}

// TogglePause flips between Pause and Resume and returns the new pause flag.
func (t *Transport) TogglePause() bool {
	if t.paused.Load() {
		t.Resume()
		return false
	}
	t.Pause()
	return t.paused.Load()
}

// Paused reports the pause flag
func (t *Transport) Paused() bool { return t.paused.Load() }
