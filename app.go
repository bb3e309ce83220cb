package main

import (
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-lyrica/chime"
	"go-lyrica/config"
	"go-lyrica/debug"
	"go-lyrica/desktop"
	"go-lyrica/player"
	"go-lyrica/song"
)

func store() config.Store {
	if configPath != "" {
		return config.Store{Path: configPath}
	}
	return config.DefaultStore()
}

// loadSettings reads and validates the settings file. A non-empty layout
// replaces the key mapping for this run only.
func loadSettings(layout string) (*config.Settings, error) {
	s, err := store().Load()
	if err != nil {
		return nil, err
	}
	if layout != "" {
		m, err := config.LoadLayout(config.LayoutsDir, layout)
		if err != nil {
			return nil, err
		}
		s.KeyboardLayout = layout
		s.KeyMapping = m
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadSong reads a sheet. Relative paths are also tried under the songs
// directory.
func loadSong(path string, s *config.Settings, opts song.Options, confine bool) (*song.Song, error) {
	if confine {
		opts.BaseDir = "."
	}
	sg, err := song.Load(path, opts)
	if err != nil && s.SongsDir != "" && !filepath.IsAbs(path) {
		alt := song.Options{MIDI: opts.MIDI}
		if confine {
			alt.BaseDir = s.SongsDir
		}
		if sg, aerr := song.Load(filepath.Join(s.SongsDir, path), alt); aerr == nil {
			return sg, nil
		}
	}
	return sg, err
}

// app holds the desktop collaborators for one run
type app struct {
	settings  *config.Settings
	display   *desktop.Display
	windows   *desktop.Windows
	target    *desktop.Target
	transport *player.Transport
	unlock    func()
}

// newApp takes the instance lock, connects to the display and builds the
// transport. noTarget skips the process check and window focus.
func newApp(s *config.Settings, noTarget bool) (*app, error) {
	unlock, err := desktop.AcquireLock(desktop.DefaultLockPath())
	if err != nil {
		return nil, err
	}

	d, err := desktop.OpenDisplay()
	if err != nil {
		unlock()
		return nil, fault.Wrap(err, fmsg.WithDesc("open display",
			"Cannot connect to the X display. Key presses need X11 or XWayland."))
	}

	a := &app{settings: s, display: d, unlock: unlock}
	a.windows = desktop.NewWindows(d)
	a.target = desktop.NewTarget(s.Target.Process, s.Target.Window, desktop.NewProcesses(), a.windows)

	deps := player.Deps{
		Keyboard: desktop.NewKeyboard(d),
		Chime:    chime.New(),
		Log:      debug.Logger(),
	}
	if !noTarget {
		deps.Target = a.target
	}
	a.transport, err = player.NewTransport(player.ConfigFromSettings(s), deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	debug.Log("app", "ready: layout=%s keys=%d target=%q", s.KeyboardLayout, len(s.KeyMapping), s.Target.Process)
	return a, nil
}

// Close stops playback and releases the display and lock
func (a *app) Close() {
	if a.transport != nil {
		a.transport.Stop()
	}
	a.display.Close()
	a.unlock()
}
