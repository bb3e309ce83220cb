package player

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// releaser owns the pending key-up timers of one session, one per key.
type releaser struct {
	mu        sync.Mutex
	kb        Keyboard
	clock     Clock
	log       *zap.SugaredLogger
	pending   map[string]Timer
	cancelled bool
}

func newReleaser(kb Keyboard, clock Clock, log *zap.SugaredLogger) *releaser {
	return &releaser{kb: kb, clock: clock, log: log, pending: make(map[string]Timer)}
}

// press sends key-down and schedules key-up after hold. A key that is still
// held from an earlier note is released first.
func (r *releaser) press(key string, hold time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return nil
	}

	if t, ok := r.pending[key]; ok {
		t.Stop()
		delete(r.pending, key)
		if err := r.kb.Release(key); err != nil {
			return err
		}
	}
	if err := r.kb.Press(key); err != nil {
		return err
	}

	var t Timer
	t = r.clock.AfterFunc(hold, func() { r.fire(key, t) })
	r.pending[key] = t
	return nil
}

func (r *releaser) fire(key string, t Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.pending[key] != t {
		return
	}
	delete(r.pending, key)
	if err := r.kb.Release(key); err != nil {
		r.log.Warnw("key release failed", "key", key, "error", err)
	}
}

// held lists keys whose release is still pending.
func (r *releaser) held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Cancel releases every held key now. Timers that fire afterwards do nothing.
func (r *releaser) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.cancelled = true
	for key, t := range r.pending {
		t.Stop()
		if err := r.kb.Release(key); err != nil {
			r.log.Warnw("key release failed", "key", key, "error", err)
		}
	}
	r.pending = nil
}
