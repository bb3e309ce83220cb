package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"

	"go-lyrica/song"
)

type fakeKeyboard struct {
	mu       sync.Mutex
	events   []string
	failOn   string
	panicOn  string
	unmapped string

	// Press of stuckOn signals entered and blocks until gate is closed.
	stuckOn string
	entered chan struct{}
	gate    chan struct{}
}

func (k *fakeKeyboard) Press(key string) error {
	if key == k.panicOn {
		panic("keyboard exploded")
	}
	if key == k.stuckOn {
		k.entered <- struct{}{}
		<-k.gate
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if key == k.failOn {
		return errors.New("xtest: bad keycode")
	}
	if key == k.unmapped {
		return fault.New("no keycode for "+key, ftag.With(KindUnmappedKey))
	}
	k.events = append(k.events, "down:"+key)
	return nil
}

func (k *fakeKeyboard) Release(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.events = append(k.events, "up:"+key)
	return nil
}

func (k *fakeKeyboard) log() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.events...)
}

func (k *fakeKeyboard) downs() []string {
	var out []string
	for _, ev := range k.log() {
		if key, ok := strings.CutPrefix(ev, "down:"); ok {
			out = append(out, key)
		}
	}
	return out
}

type fakeTarget struct {
	mu      sync.Mutex
	running bool
	focused int
}

func (t *fakeTarget) Running(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running, nil
}

func (t *fakeTarget) Focus(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focused++
	return errors.New("window not found")
}

// fakeClock returns from Wait at once, recording each duration. onWait runs
// on the waiting goroutine before Wait returns.
type fakeClock struct {
	mu     sync.Mutex
	waits  []time.Duration
	timers []*fakeTimer
	onWait func(d time.Duration)
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	hook := c.onWait
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fire runs the callback even if stopped, like a timer that already
// triggered before Stop was called.
func (t *fakeTimer) fire() {
	t.mu.Lock()
	t.fired = true
	t.mu.Unlock()
	t.f()
}

func testConfig() Config {
	return Config{
		KeyMapping:    map[string]string{"Key0": "z", "Key1": "u", "Key2": "i"},
		AliasPrefixes: DefaultAliasPrefixes,
		Speed:         1000,
		PressDuration: 100 * time.Millisecond,
		RampSteps:     0,
		RampFloor:     500,
		ResumeDelay:   600 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
		JoinTimeout:   time.Second,
	}
}

func notesAt(keys []string, times ...int) []song.Note {
	notes := make([]song.Note, len(times))
	for i, ms := range times {
		notes[i] = song.Note{Key: keys[i%len(keys)], Time: ms}
	}
	return notes
}

func newTestTransport(t *testing.T, cfg Config, kb *fakeKeyboard, clock Clock) *Transport {
	t.Helper()
	tr, err := NewTransport(cfg, Deps{Keyboard: kb, Clock: clock})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	return tr
}

func waitDone(t *testing.T, tr *Transport) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Wait(ctx); err != nil {
		t.Fatalf("session did not finish: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func drain(tr *Transport) []Event {
	var out []Event
	for {
		select {
		case ev := <-tr.Watch():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
