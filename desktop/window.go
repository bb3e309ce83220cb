package desktop

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/jezek/xgb/xproto"

	"go-lyrica/debug"
)

// ErrWindowNotFound is returned when no window title matches.
var ErrWindowNotFound = fault.New("window not found")

// Window is a top-level window
type Window struct {
	ID    uint32
	Title string
}

// Windows finds and activates windows. With a nil Display, or under Wayland,
// it shells out to xdotool.
type Windows struct {
	d *Display
}

// NewWindows creates a window finder; d may be nil.
func NewWindows(d *Display) *Windows {
	return &Windows{d: d}
}

func (w *Windows) useXdotool() bool {
	return w.d == nil || Wayland()
}

// List returns all titled windows.
func (w *Windows) List(ctx context.Context) ([]Window, error) {
	if w.useXdotool() {
		return xdotoolSearch(ctx, ".")
	}
	var out []Window
	err := w.walk(w.d.root, func(win xproto.Window, title string) bool {
		out = append(out, Window{ID: uint32(win), Title: title})
		return true
	})
	return out, err
}

// Find returns the first window whose title contains title.
func (w *Windows) Find(ctx context.Context, title string) (Window, error) {
	if w.useXdotool() {
		wins, err := xdotoolSearch(ctx, title)
		if err != nil {
			return Window{}, err
		}
		if len(wins) == 0 {
			return Window{}, ErrWindowNotFound
		}
		return wins[0], nil
	}

	var found Window
	err := w.walk(w.d.root, func(win xproto.Window, t string) bool {
		if strings.Contains(t, title) {
			found = Window{ID: uint32(win), Title: t}
			return false
		}
		return true
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return Window{}, err
	}
	if found.ID == 0 {
		return Window{}, ErrWindowNotFound
	}
	return found, nil
}

// walk visits windows depth-first until visit returns false.
func (w *Windows) walk(win xproto.Window, visit func(xproto.Window, string) bool) error {
	tree, err := xproto.QueryTree(w.d.conn, win).Reply()
	if err != nil {
		return fault.Wrap(err, fmsg.With("query window tree"))
	}
	for _, child := range tree.Children {
		if title := w.title(child); title != "" {
			if !visit(child, title) {
				return errStopWalk
			}
		}
		if err := w.walk(child, visit); err != nil {
			return err
		}
	}
	return nil
}

var errStopWalk = fault.New("stop walk")

func (w *Windows) title(win xproto.Window) string {
	if netName, err := w.d.atom("_NET_WM_NAME"); err == nil {
		if t := w.property(win, netName); t != "" {
			return t
		}
	}
	return w.property(win, xproto.AtomWmName)
}

func (w *Windows) property(win xproto.Window, atom xproto.Atom) string {
	reply, err := xproto.GetProperty(w.d.conn, false, win, atom,
		xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil || reply == nil {
		return ""
	}
	return string(reply.Value)
}

// Activate raises and focuses win.
func (w *Windows) Activate(ctx context.Context, win Window) error {
	if w.useXdotool() {
		return runXdotool(ctx, "windowactivate", "--sync", strconv.FormatUint(uint64(win.ID), 10))
	}

	xw := xproto.Window(win.ID)
	if active, err := w.d.atom("_NET_ACTIVE_WINDOW"); err == nil {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: xw,
			Type:   active,
			Data:   xproto.ClientMessageDataUnionData32New([]uint32{2, uint32(xproto.TimeCurrentTime), 0, 0, 0}),
		}
		mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
		if err := xproto.SendEventChecked(w.d.conn, false, w.d.root, mask, string(ev.Bytes())).Check(); err != nil {
			debug.Log("window", "_NET_ACTIVE_WINDOW failed: %v", err)
		}
	}
	xproto.ConfigureWindow(w.d.conn, xw, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	if err := xproto.SetInputFocusChecked(w.d.conn, xproto.InputFocusParent, xw, xproto.TimeCurrentTime).Check(); err != nil {
		return fault.Wrap(err, fmsg.With("set input focus"))
	}
	return nil
}

// FocusTitle finds a window by title and activates it.
func (w *Windows) FocusTitle(ctx context.Context, title string) error {
	win, err := w.Find(ctx, title)
	if err != nil {
		return err
	}
	debug.Log("window", "activating %d %q", win.ID, win.Title)
	return w.Activate(ctx, win)
}

func runXdotool(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "xdotool", args...).CombinedOutput()
	if err != nil {
		return fault.Wrap(err, fmsg.With("xdotool "+args[0]+": "+strings.TrimSpace(string(out))))
	}
	return nil
}

func xdotoolSearch(ctx context.Context, title string) ([]Window, error) {
	out, err := exec.CommandContext(ctx, "xdotool", "search", "--name", title).Output()
	if err != nil {
		// xdotool exits 1 when nothing matches
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fault.Wrap(err, fmsg.WithDesc("xdotool search",
			"Window search needs xdotool. Install it with your package manager."))
	}
	return parseWindowIDs(out), nil
}

func parseWindowIDs(out []byte) []Window {
	var wins []Window
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		id, err := strconv.ParseUint(strings.TrimSpace(sc.Text()), 10, 32)
		if err != nil {
			continue
		}
		wins = append(wins, Window{ID: uint32(id)})
	}
	return wins
}
