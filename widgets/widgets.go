package widgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// KeyGridColumns is the width of the in-game instrument: three rows of five.
const KeyGridColumns = 5

// RenderKeyCell renders one instrument key with its label
func RenderKeyCell(label string, symbol rune, color lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(color).Width(4).Align(lipgloss.Center)
	if label == "" {
		label = " "
	}
	return style.Render(string(symbol) + label)
}

// KeyGrid describes the 15-key instrument for rendering.
type KeyGrid struct {
	Labels []string // physical key per logical key, "" when unbound
	Active int      // index of the last pressed key, -1 for none

	Idle, Lit         rune
	IdleColor, LitColor lipgloss.Color
}

// Render draws the keys row by row, top row first.
func (g KeyGrid) Render() string {
	var lines []string
	for start := 0; start < len(g.Labels); start += KeyGridColumns {
		end := start + KeyGridColumns
		if end > len(g.Labels) {
			end = len(g.Labels)
		}
		var line strings.Builder
		for i := start; i < end; i++ {
			sym, col := g.Idle, g.IdleColor
			if i == g.Active {
				sym, col = g.Lit, g.LitColor
			}
			line.WriteString(RenderKeyCell(g.Labels[i], sym, col))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// FormatClock renders d as m:ss
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
