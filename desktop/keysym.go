package desktop

import (
	"strings"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"
)

// Named keysyms accepted in key mappings, besides single characters.
var namedKeysyms = map[string]xproto.Keysym{
	"space":     0x0020,
	"enter":     0xff0d,
	"return":    0xff0d,
	"tab":       0xff09,
	"escape":    0xff1b,
	"esc":       0xff1b,
	"backspace": 0xff08,
	"left":      0xff51,
	"up":        0xff52,
	"right":     0xff53,
	"down":      0xff54,
	"shift":     0xffe1,
	"ctrl":      0xffe3,
	"alt":       0xffe9,
	"f1":        0xffbe,
	"f2":        0xffbf,
	"f3":        0xffc0,
	"f4":        0xffc1,
	"f5":        0xffc2,
	"f6":        0xffc3,
	"f7":        0xffc4,
	"f8":        0xffc5,
	"f9":        0xffc6,
	"f10":       0xffc7,
	"f11":       0xffc8,
	"f12":       0xffc9,
}

const keysymShiftL xproto.Keysym = 0xffe1

// KeysymFor converts a key symbol from the settings (a single character or
// a name like "space") to an X keysym.
func KeysymFor(key string) (xproto.Keysym, bool) {
	if sym, ok := namedKeysyms[strings.ToLower(key)]; ok {
		return sym, true
	}
	if utf8.RuneCountInString(key) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return 0, false
	}
	if r < 0x100 {
		return xproto.Keysym(r), true
	}
	return xproto.Keysym(0x01000000 | r), true
}

// keyboardMapping is the server's keycode to keysym table.
type keyboardMapping struct {
	min  xproto.Keycode
	per  int
	syms []xproto.Keysym
}

// lookup finds the keycode producing sym. shift is set when the keysym sits
// in a shifted column.
func (m keyboardMapping) lookup(sym xproto.Keysym) (code xproto.Keycode, shift, ok bool) {
	if m.per == 0 {
		return 0, false, false
	}
	cols := m.per
	if cols > 4 {
		cols = 4
	}
	for col := 0; col < cols; col++ {
		for i := 0; i*m.per+col < len(m.syms); i++ {
			if m.syms[i*m.per+col] == sym {
				return m.min + xproto.Keycode(i), col%2 == 1, true
			}
		}
	}
	return 0, false, false
}
