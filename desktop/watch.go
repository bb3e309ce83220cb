package desktop

import (
	"context"
	"time"

	"go-lyrica/debug"
)

// Prober reports whether the target is up.
type Prober interface {
	Running(ctx context.Context) (bool, error)
}

// TargetEvent is emitted when the target appears or goes away
type TargetEvent struct {
	Running bool
	Err     error
}

// Watcher polls a Prober and reports changes
type Watcher struct {
	prober   Prober
	events   chan TargetEvent
	pollRate time.Duration
	timeout  time.Duration
}

// NewWatcher creates a watcher polling once a second
func NewWatcher(p Prober) *Watcher {
	return &Watcher{
		prober:   p,
		events:   make(chan TargetEvent, 4),
		pollRate: time.Second,
		timeout:  3 * time.Second,
	}
}

// Events returns target change events. Closed when Run returns.
func (w *Watcher) Events() <-chan TargetEvent {
	return w.events
}

// Run polls until ctx is done (blocking - run in goroutine). The first scan
// always emits.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	var last *bool
	scan := func() {
		sctx, cancel := context.WithTimeout(ctx, w.timeout)
		up, err := w.prober.Running(sctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if last != nil && *last == up && err == nil {
			return
		}
		last = &up
		debug.Log("target", "running=%v err=%v", up, err)
		select {
		case w.events <- TargetEvent{Running: up, Err: err}:
		case <-ctx.Done():
		}
	}

	scan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scan()
		}
	}
}
