package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"go-lyrica/debug"
	"go-lyrica/desktop"
	"go-lyrica/midi"
	"go-lyrica/player"
	"go-lyrica/song"
	"go-lyrica/widgets"
)

var playOpts struct {
	speed    float64
	press    float64
	layout   string
	noTarget bool
	noWait   bool
	anyPath  bool
	midiRoot uint8
	midiChan uint8
	verbose  bool
}

var playCmd = &cobra.Command{
	Use:   "play <sheet>",
	Short: "Play a sheet without the control panel",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	f := playCmd.Flags()
	f.Float64Var(&playOpts.speed, "speed", 0, "playback speed, 1000 is the recorded pace")
	f.Float64Var(&playOpts.press, "press", 0, "key press duration in seconds")
	f.StringVar(&playOpts.layout, "layout", "", "keyboard layout for this run (QWERTY, AZERTY, QWERTZ or an XML file name)")
	f.BoolVar(&playOpts.noTarget, "no-target", false, "skip the game process check and window focus")
	f.BoolVar(&playOpts.noWait, "no-wait", false, "fail instead of waiting for the game to start")
	f.BoolVar(&playOpts.anyPath, "any-path", false, "allow sheets outside the current directory")
	f.Uint8Var(&playOpts.midiRoot, "midi-root", 0, "MIDI pitch played by Key0 (default middle C)")
	f.Uint8Var(&playOpts.midiChan, "midi-channel", 0, "import only this MIDI channel (1-16)")
	f.BoolVarP(&playOpts.verbose, "verbose", "v", false, "log playback details to stderr")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playOpts.verbose && debugPath == "" {
		debug.EnableConsole(zapcore.DebugLevel)
	}

	s, err := loadSettings(playOpts.layout)
	if err != nil {
		return err
	}
	sheet, err := loadSong(args[0], s, song.Options{
		MIDI: song.MIDIOptions{Root: playOpts.midiRoot, Channel: playOpts.midiChan},
	}, !playOpts.anyPath)
	if err != nil {
		return err
	}

	a, err := newApp(s, playOpts.noTarget)
	if err != nil {
		return err
	}
	defer a.Close()
	tr := a.transport

	if cmd.Flags().Changed("speed") {
		if err := tr.SetSpeed(playOpts.speed); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("press") {
		if err := tr.SetPressDuration(time.Duration(playOpts.press * float64(time.Second))); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !playOpts.noTarget && !playOpts.noWait {
		if err := waitForTarget(ctx, a.target, s.Target.Process); err != nil {
			return err
		}
	}

	listenPauseKey(ctx, s.PauseKey, tr)
	if s.MIDIRemote.Port != "" {
		listenRemote(ctx, midi.NewRemote(s.MIDIRemote), tr, sheet)
	}

	fmt.Printf("▶ %s  (%d notes, %s at speed %.0f)\n", sheet.Name, len(sheet.Notes),
		widgets.FormatClock(time.Duration(sheet.Duration())*time.Millisecond), tr.Speed())
	if s.PauseKey != "" {
		fmt.Printf("  press %s to pause or resume, Ctrl+C to stop\n", s.PauseKey)
	}

	if err := tr.Start(ctx, sheet.Notes); err != nil {
		return err
	}
	go printEvents(tr)

	state, err := waitSessions(ctx, tr)
	if err != nil {
		tr.Stop()
		fmt.Println("\n■ stopped")
		return nil
	}
	switch state {
	case player.Failed:
		fmt.Println()
		return tr.Err()
	case player.Done:
		fmt.Println("\n■ done")
	default:
		fmt.Println("\n■ stopped")
	}
	return nil
}

// waitSessions blocks until playback ends and returns the final state. A
// session replaced by a restart from the MIDI remote is followed into the
// new one.
func waitSessions(ctx context.Context, tr *player.Transport) (player.State, error) {
	for {
		if err := tr.Wait(ctx); err != nil {
			return tr.State(), err
		}
		if !tr.Active() {
			return tr.State(), nil
		}
	}
}

// waitForTarget blocks until the game process shows up
func waitForTarget(ctx context.Context, target *desktop.Target, name string) error {
	if ok, err := target.Running(ctx); err == nil && ok {
		return nil
	}
	fmt.Printf("waiting for %s to start...\n", name)

	w := desktop.NewWatcher(target)
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(wctx)

	for ev := range w.Events() {
		if ev.Err != nil {
			debug.Log("play", "target probe: %v", ev.Err)
			continue
		}
		if ev.Running {
			return nil
		}
	}
	return ctx.Err()
}

// listenPauseKey toggles pause on each global press of key. A failed grab
// only disables the hotkey.
func listenPauseKey(ctx context.Context, key string, tr *player.Transport) {
	if key == "" {
		return
	}
	hk, err := desktop.GrabHotkey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pause key %s unavailable: %s\n", key, describe(err))
		return
	}
	go hk.Run(ctx)
	go func() {
		for range hk.Presses() {
			if tr.TogglePause() {
				fmt.Print("\n‖ pausing at next note")
			} else {
				fmt.Print("\n▶ resuming")
			}
		}
	}()
}

// listenRemote maps MIDI controller notes onto the transport
func listenRemote(ctx context.Context, r *midi.Remote, tr *player.Transport, sheet *song.Song) {
	go r.Run(ctx)
	go func() {
		for ev := range r.Events() {
			debug.Log("play", "midi remote %s: %s", ev.Type, ev.ID)
		}
	}()
	go func() {
		for c := range r.Commands() {
			switch c {
			case midi.CommandPlay:
				if err := tr.Start(ctx, sheet.Notes); err != nil {
					fmt.Fprintln(os.Stderr, "\n"+describe(err))
				}
			case midi.CommandPause:
				tr.TogglePause()
			case midi.CommandStop:
				tr.Stop()
			}
		}
	}()
}

// printEvents keeps a one-line progress readout until the session ends
func printEvents(tr *player.Transport) {
	for ev := range tr.Watch() {
		switch ev.Kind {
		case player.EventNote:
			fmt.Printf("\r  %d/%d  %-6s speed %.0f   ", ev.Index+1, ev.Total, ev.Key, ev.Speed)
		case player.EventPaused:
			fmt.Print("\n‖ paused")
		case player.EventResumed:
			fmt.Print("\n▶ resumed\n")
		case player.EventFailed:
			fmt.Fprintf(os.Stderr, "\nplayback failed: %s\n", describe(ev.Err))
		}
	}
}
