package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-lyrica/player"
	"go-lyrica/song"
)

func withConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
	return path
}

func TestLoadSettingsLayoutOverrideIsNotSaved(t *testing.T) {
	path := withConfig(t)

	s, err := loadSettings("azerty")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.KeyMapping["Key14"] != "!" {
		t.Fatalf("Key14 = %q, want !", s.KeyMapping["Key14"])
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("settings file should not be written, stat err = %v", err)
	}

	if _, err := loadSettings("nope"); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestLoadSongFallsBackToSongsDir(t *testing.T) {
	withConfig(t)
	s, err := loadSettings("")
	if err != nil {
		t.Fatal(err)
	}
	s.SongsDir = t.TempDir()
	doc := `{"name":"Ode","songNotes":[{"key":"Key0","time":0}]}`
	if err := os.WriteFile(filepath.Join(s.SongsDir, "ode.json"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	sg, err := loadSong("ode.json", s, song.Options{}, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sg.Name != "Ode" || len(sg.Notes) != 1 {
		t.Fatalf("song = %+v", sg)
	}

	if _, err := loadSong("missing.json", s, song.Options{}, true); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
}

func TestLoadSongFallbackStaysInSongsDir(t *testing.T) {
	withConfig(t)
	s, err := loadSettings("")
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	s.SongsDir = filepath.Join(root, "songs")
	if err := os.MkdirAll(s.SongsDir, 0755); err != nil {
		t.Fatal(err)
	}
	doc := `{"name":"Outside","songNotes":[{"key":"Key0","time":0}]}`
	if err := os.WriteFile(filepath.Join(root, "secret.json"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	if sg, err := loadSong("../secret.json", s, song.Options{}, true); err == nil {
		t.Fatalf("loaded %q from outside the songs directory", sg.Name)
	}
	if _, err := loadSong("../secret.json", s, song.Options{}, false); err != nil {
		t.Fatalf("unconfined load: %v", err)
	}
}

func TestDescribePrefersIssue(t *testing.T) {
	err := fault.Wrap(errors.New("boom"), fmsg.WithDesc("internal", "Something friendly."))
	if got := describe(err); got != "Something friendly." {
		t.Fatalf("describe = %q", got)
	}
	if got := describe(errors.New("plain")); got != "plain" {
		t.Fatalf("describe = %q", got)
	}
}

// holdClock never finishes a wait on its own; only cancellation ends it.
type holdClock struct{}

func (holdClock) Wait(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (holdClock) AfterFunc(d time.Duration, f func()) player.Timer {
	return time.AfterFunc(d, f)
}

type recordingKeyboard struct {
	mu      sync.Mutex
	presses []string
}

func (k *recordingKeyboard) Press(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.presses = append(k.presses, key)
	return nil
}

func (k *recordingKeyboard) Release(key string) error { return nil }

func (k *recordingKeyboard) pressed() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.presses...)
}

func newHeldTransport(t *testing.T, kb *recordingKeyboard) *player.Transport {
	t.Helper()
	cfg := player.Config{
		KeyMapping:    map[string]string{"Key0": "z", "Key1": "u"},
		AliasPrefixes: player.DefaultAliasPrefixes,
		Speed:         1000,
		PressDuration: 10 * time.Millisecond,
		RampFloor:     500,
		PollInterval:  10 * time.Millisecond,
		JoinTimeout:   time.Second,
	}
	tr, err := player.NewTransport(cfg, player.Deps{Keyboard: kb, Clock: holdClock{}})
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

type waitResult struct {
	state player.State
	err   error
}

func startWaiting(t *testing.T, tr *player.Transport, kb *recordingKeyboard) <-chan waitResult {
	t.Helper()
	ctx := context.Background()
	if err := tr.Start(ctx, []song.Note{{Key: "Key0", Time: 0}, {Key: "Key0", Time: 1000}}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(kb.pressed()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first note never pressed")
		}
		time.Sleep(2 * time.Millisecond)
	}
	out := make(chan waitResult, 1)
	go func() {
		st, err := waitSessions(ctx, tr)
		out <- waitResult{st, err}
	}()
	return out
}

func TestWaitSessionsFollowsRestart(t *testing.T) {
	kb := &recordingKeyboard{}
	tr := newHeldTransport(t, kb)
	defer tr.Stop()
	res := startWaiting(t, tr, kb)

	time.Sleep(20 * time.Millisecond)
	select {
	case r := <-res:
		t.Fatalf("returned %v while the first session was playing", r.state)
	default:
	}

	if err := tr.Start(context.Background(), []song.Note{{Key: "Key1", Time: 0}}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	select {
	case r := <-res:
		if r.err != nil || r.state != player.Done {
			t.Fatalf("state = %v err = %v, want done", r.state, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitSessions did not return after the restarted session")
	}
	if got := kb.pressed(); len(got) != 2 || got[1] != "u" {
		t.Fatalf("presses = %v", got)
	}
}

func TestWaitSessionsReportsStop(t *testing.T) {
	kb := &recordingKeyboard{}
	tr := newHeldTransport(t, kb)
	res := startWaiting(t, tr, kb)

	tr.Stop()
	select {
	case r := <-res:
		if r.err != nil || r.state == player.Done {
			t.Fatalf("state = %v err = %v, want a stop", r.state, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitSessions did not return after stop")
	}
}
