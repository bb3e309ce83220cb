package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-lyrica/debug"
	"go-lyrica/desktop"
	"go-lyrica/midi"
	"go-lyrica/song"
	"go-lyrica/theme"
	"go-lyrica/tui"
)

var panelOpts struct {
	layout   string
	noTarget bool
	anyPath  bool
}

var panelCmd = &cobra.Command{
	Use:   "panel [sheet]",
	Short: "Open the interactive control panel",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPanel,
}

func init() {
	f := panelCmd.Flags()
	f.StringVar(&panelOpts.layout, "layout", "", "keyboard layout for this session")
	f.BoolVar(&panelOpts.noTarget, "no-target", false, "skip the game process check and window focus")
	f.BoolVar(&panelOpts.anyPath, "any-path", false, "allow sheets outside the current directory")
}

func runPanel(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(panelOpts.layout)
	if err != nil {
		return err
	}

	var sheet *song.Song
	if len(args) == 1 {
		if sheet, err = loadSong(args[0], s, song.Options{}, !panelOpts.anyPath); err != nil {
			return err
		}
	}

	palette, err := theme.LoadOrDefault(s.Palette)
	if err != nil {
		debug.Log("panel", "palette %s: %v, using default", s.Palette, err)
	}

	a, err := newApp(s, panelOpts.noTarget)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tui.Options{
		Transport: a.transport,
		Theme:     theme.New(palette),
		Settings:  s,
		Song:      sheet,
	}

	if !panelOpts.noTarget {
		w := desktop.NewWatcher(a.target)
		go w.Run(ctx)
		opts.Target = w.Events()
	}

	if s.PauseKey != "" {
		if hk, err := desktop.GrabHotkey(s.PauseKey); err == nil {
			go hk.Run(ctx)
			opts.Hotkey = hk.Presses()
		}
	}

	if s.MIDIRemote.Port != "" {
		r := midi.NewRemote(s.MIDIRemote)
		go r.Run(ctx)
		opts.Remote = r.Commands()
		opts.Devices = r.Events()
	}

	p := tea.NewProgram(tui.NewModel(ctx, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
