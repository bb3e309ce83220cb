// Package desktop talks to the X server and the process table: key
// injection, window focus, the global pause key and target detection.
package desktop

import (
	"os"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

// Display is a shared X connection.
type Display struct {
	conn *xgb.Conn
	root xproto.Window

	mu      sync.Mutex
	mapping *keyboardMapping
	atoms   map[string]xproto.Atom
}

// Wayland reports whether the session runs under Wayland.
func Wayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland"
}

// OpenDisplay connects to $DISPLAY and enables the XTEST extension.
func OpenDisplay() (*Display, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("connect to X server",
			"Could not connect to the X server. Is DISPLAY set?"))
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fault.Wrap(err, fmsg.WithDesc("init xtest",
			"The X server does not support the XTEST extension."))
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &Display{conn: conn, root: screen.Root, atoms: make(map[string]xproto.Atom)}, nil
}

// Close drops the connection
func (d *Display) Close() {
	d.conn.Close()
}

func (d *Display) keyboardMapping() (*keyboardMapping, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mapping != nil {
		return d.mapping, nil
	}
	setup := xproto.Setup(d.conn)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	reply, err := xproto.GetKeyboardMapping(d.conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("get keyboard mapping"))
	}
	d.mapping = &keyboardMapping{
		min:  setup.MinKeycode,
		per:  int(reply.KeysymsPerKeycode),
		syms: reply.Keysyms,
	}
	return d.mapping, nil
}

func (d *Display) atom(name string) (xproto.Atom, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(d.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	d.atoms[name] = reply.Atom
	return reply.Atom, nil
}
