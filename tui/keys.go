package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play    key.Binding
	Stop    key.Binding
	Pause   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Presets key.Binding
	Press   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(pauseKey string) keyMap {
	pauseKeys := []string{"p"}
	if pauseKey != "" && pauseKey != "p" {
		pauseKeys = append(pauseKeys, pauseKey)
	}
	return keyMap{
		Play:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "play/restart")),
		Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Pause:   key.NewBinding(key.WithKeys(pauseKeys...), key.WithHelp(pauseKeys[len(pauseKeys)-1], "pause/resume")),
		Faster:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Presets: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "speed preset")),
		Press:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "press duration")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Pause, k.Faster, k.Slower, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Stop, k.Pause},
		{k.Faster, k.Slower, k.Presets, k.Press},
		{k.Help, k.Quit},
	}
}
