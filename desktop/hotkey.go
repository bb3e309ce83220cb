package desktop

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/jezek/xgb/xproto"

	"go-lyrica/debug"
)

// Hotkey grabs one key on the root window so presses reach us whichever
// window has focus.
type Hotkey struct {
	d     *Display
	key   string
	code  xproto.Keycode
	press chan struct{}
}

// GrabHotkey grabs key with any modifiers on a connection of its own, since
// Run closes it on shutdown.
func GrabHotkey(key string) (*Hotkey, error) {
	d, err := OpenDisplay()
	if err != nil {
		return nil, err
	}
	rk, err := NewKeyboard(d).resolve(key)
	if err != nil {
		d.Close()
		return nil, err
	}
	err = xproto.GrabKeyChecked(d.conn, true, d.root, xproto.ModMaskAny, rk.code,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
	if err != nil {
		d.Close()
		return nil, fault.Wrap(err, fmsg.WithDesc("grab key "+key,
			"Could not register the pause key "+key+"; another program may own it."))
	}
	return &Hotkey{d: d, key: key, code: rk.code, press: make(chan struct{}, 1)}, nil
}

// Presses delivers one value per key press. Closed when Run returns.
func (h *Hotkey) Presses() <-chan struct{} {
	return h.press
}

// Run reads X events until ctx is done or the connection closes.
func (h *Hotkey) Run(ctx context.Context) {
	defer close(h.press)
	go func() {
		<-ctx.Done()
		xproto.UngrabKey(h.d.conn, h.code, h.d.root, xproto.ModMaskAny)
		// wake WaitForEvent
		h.d.conn.Close()
	}()

	for {
		ev, xerr := h.d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			debug.Log("hotkey", "x error: %v", xerr)
			continue
		}
		kp, ok := ev.(xproto.KeyPressEvent)
		if !ok || kp.Detail != h.code {
			continue
		}
		debug.Log("hotkey", "%s pressed", h.key)
		select {
		case h.press <- struct{}{}:
		default:
		}
	}
}
