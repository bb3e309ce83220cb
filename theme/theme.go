package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Instrument keys
	KeyIdle   rune // ○ not sounding
	KeyActive rune // ● just pressed

	// Transport
	Play  rune // ▶
	Pause rune // ‖
	Stop  rune // ■

	// Target status
	TargetUp   rune // ◆ game running
	TargetDown rune // ◇ game not found
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			KeyIdle:   '○',
			KeyActive: '●',

			Play:  '▶',
			Pause: '‖',
			Stop:  '■',

			TargetUp:   '◆',
			TargetDown: '◇',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // night
	RoleSurface = 0.1
	RoleMuted   = 0.3 // dusk blue
	RoleFG      = 0.45
	RoleAccent  = 0.55 // peach
	RoleActive  = 0.7  // ember
	RoleWarning = 0.8
	RoleSuccess = 1.0 // candle
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Hex returns the "#rrggbb" form of the colour at norm, as bubbles'
// progress gradient expects.
func (t *Theme) Hex(norm float64) string {
	return string(rgbToLipgloss(t.Palette.Lookup(norm)))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
