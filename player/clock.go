package player

import (
	"context"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock supplies the engine's waits and delayed callbacks.
type Clock interface {
	// Wait blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Wait(ctx context.Context, d time.Duration) error
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock uses the runtime timers.
func RealClock() Clock { return realClock{} }

func (realClock) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
