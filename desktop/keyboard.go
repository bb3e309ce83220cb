package desktop

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"go-lyrica/debug"
	"go-lyrica/player"
)

// Keyboard injects key events through XTEST.
type Keyboard struct {
	resolve func(key string) (resolvedKey, error)
	send    func(kind byte, code xproto.Keycode) error

	mu      sync.Mutex
	shifted int // shifted keys currently down; Shift is held while > 0
}

// NewKeyboard creates a keyboard on d
func NewKeyboard(d *Display) *Keyboard {
	return &Keyboard{
		resolve: func(key string) (resolvedKey, error) { return resolveKey(d, key) },
		send: func(kind byte, code xproto.Keycode) error {
			return xtest.FakeInputChecked(d.conn, kind, byte(code), 0, d.root, 0, 0, 0).Check()
		},
	}
}

type resolvedKey struct {
	code  xproto.Keycode
	shift xproto.Keycode
}

// resolveKey finds the keycode for key. Keys the layout cannot type are
// tagged player.KindUnmappedKey.
func resolveKey(d *Display, key string) (resolvedKey, error) {
	sym, ok := KeysymFor(key)
	if !ok {
		return resolvedKey{}, fault.New("unknown key "+key,
			ftag.With(player.KindUnmappedKey),
			fmsg.WithDesc("unknown key "+key, "The key mapping contains a key that cannot be typed: "+key))
	}
	m, err := d.keyboardMapping()
	if err != nil {
		return resolvedKey{}, err
	}
	code, shifted, ok := m.lookup(sym)
	if !ok {
		return resolvedKey{}, fault.New("no keycode for "+key,
			ftag.With(player.KindUnmappedKey),
			fmsg.WithDesc("no keycode for "+key, "The current keyboard layout has no key for "+key))
	}
	rk := resolvedKey{code: code}
	if shifted {
		rk.shift, _, _ = m.lookup(keysymShiftL)
	}
	return rk, nil
}

// Press sends key-down, holding Shift first for shifted symbols.
func (k *Keyboard) Press(key string) error {
	rk, err := k.resolve(key)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if rk.shift != 0 {
		if k.shifted == 0 {
			if err := k.send(xproto.KeyPress, rk.shift); err != nil {
				return err
			}
		}
		k.shifted++
	}
	debug.Log("keys", "press %q code=%d", key, rk.code)
	if err := k.send(xproto.KeyPress, rk.code); err != nil {
		if rk.shift != 0 {
			k.releaseShift(rk.shift)
		}
		return err
	}
	return nil
}

// Release sends key-up. Shift goes up with the last shifted key.
func (k *Keyboard) Release(key string) error {
	rk, err := k.resolve(key)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	err = k.send(xproto.KeyRelease, rk.code)
	if rk.shift != 0 {
		if serr := k.releaseShift(rk.shift); err == nil {
			err = serr
		}
	}
	return err
}

func (k *Keyboard) releaseShift(code xproto.Keycode) error {
	if k.shifted == 0 {
		return nil
	}
	k.shifted--
	if k.shifted > 0 {
		return nil
	}
	return k.send(xproto.KeyRelease, code)
}

// Tap presses and releases key at once.
func (k *Keyboard) Tap(key string) error {
	if err := k.Press(key); err != nil {
		return err
	}
	return k.Release(key)
}
