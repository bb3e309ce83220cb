package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-lyrica/config"
	"go-lyrica/desktop"
	"go-lyrica/midi"
	"go-lyrica/player"
	"go-lyrica/song"
	"go-lyrica/theme"
	"go-lyrica/widgets"
)

// speedStep is the +/- increment
const speedStep = 50

// Options wires the panel to its sources. Only Transport, Theme and
// Settings are required.
type Options struct {
	Transport *player.Transport
	Theme     *theme.Theme
	Settings  *config.Settings
	Song      *song.Song

	Target  <-chan desktop.TargetEvent
	Hotkey  <-chan struct{}
	Remote  <-chan midi.Command
	Devices <-chan midi.DeviceEvent
}

type Model struct {
	ctx  context.Context
	opts Options

	keys     keyMap
	help     help.Model
	progress progress.Model

	labels   []string
	keyIndex map[string]int

	state    player.State
	index    int
	lastKey  int
	pressIdx int
	targetUp *bool
	remote   string
	status   string
	quitting bool
}

type PlayerEventMsg player.Event
type TargetEventMsg desktop.TargetEvent
type HotkeyMsg struct{}
type RemoteCommandMsg midi.Command
type DeviceEventMsg midi.DeviceEvent

// startedMsg carries the result of Transport.Start
type startedMsg struct{ err error }

type stoppedMsg struct{}

type pauseToggledMsg struct{ paused bool }

func NewModel(ctx context.Context, opts Options) Model {
	th := opts.Theme
	labels := make([]string, song.NumKeys)
	keyIndex := make(map[string]int, song.NumKeys)
	for i := range labels {
		labels[i] = opts.Settings.KeyMapping["Key"+strconv.Itoa(i)]
		if labels[i] != "" {
			keyIndex[labels[i]] = i
		}
	}
	m := Model{
		ctx:      ctx,
		opts:     opts,
		keys:     newKeyMap(opts.Settings.PauseKey),
		help:     help.New(),
		progress: progress.New(progress.WithGradient(th.Hex(0.3), th.Hex(1.0)), progress.WithoutPercentage()),
		labels:   labels,
		keyIndex: keyIndex,
		lastKey:  -1,
		pressIdx: -1,
	}
	m.progress.Width = 40
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Accent())
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	m.help.Styles.FullKey = m.help.Styles.ShortKey
	m.help.Styles.FullDesc = m.help.Styles.ShortDesc
	return m
}

func ListenForEvents(tr *player.Transport) tea.Cmd {
	return func() tea.Msg {
		return PlayerEventMsg(<-tr.Watch())
	}
}

func ListenForTarget(ch <-chan desktop.TargetEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return TargetEventMsg(ev)
	}
}

func ListenForHotkey(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return HotkeyMsg{}
	}
}

func ListenForRemote(ch <-chan midi.Command) tea.Cmd {
	return func() tea.Msg {
		cmd, ok := <-ch
		if !ok {
			return nil
		}
		return RemoteCommandMsg(cmd)
	}
}

func ListenForDevices(ch <-chan midi.DeviceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return DeviceEventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForEvents(m.opts.Transport)}
	if m.opts.Target != nil {
		cmds = append(cmds, ListenForTarget(m.opts.Target))
	}
	if m.opts.Hotkey != nil {
		cmds = append(cmds, ListenForHotkey(m.opts.Hotkey))
	}
	if m.opts.Remote != nil {
		cmds = append(cmds, ListenForRemote(m.opts.Remote))
	}
	if m.opts.Devices != nil {
		cmds = append(cmds, ListenForDevices(m.opts.Devices))
	}
	return tea.Batch(cmds...)
}

func (m Model) start() tea.Cmd {
	if m.opts.Song == nil {
		return nil
	}
	tr, notes, ctx := m.opts.Transport, m.opts.Song.Notes, m.ctx
	return func() tea.Msg {
		return startedMsg{err: tr.Start(ctx, notes)}
	}
}

func (m Model) stop() tea.Cmd {
	tr := m.opts.Transport
	return func() tea.Msg {
		tr.Stop()
		return stoppedMsg{}
	}
}

// togglePause runs off the update loop: resuming focuses the game window
// and pausing waits behind a running start or stop.
func (m Model) togglePause() tea.Cmd {
	tr := m.opts.Transport
	return func() tea.Msg {
		return pauseToggledMsg{paused: tr.TogglePause()}
	}
}

func describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

func (m *Model) setSpeed(v float64) {
	if err := m.opts.Transport.SetSpeed(v); err != nil {
		m.status = describe(err)
		return
	}
	m.status = fmt.Sprintf("speed %.0f", v)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	tr := m.opts.Transport

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			tr.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Play):
			if m.opts.Song == nil {
				m.status = "no song loaded"
				return m, nil
			}
			m.status = "starting…"
			return m, m.start()

		case key.Matches(msg, m.keys.Stop):
			return m, m.stop()

		case key.Matches(msg, m.keys.Pause):
			return m, m.togglePause()

		case key.Matches(msg, m.keys.Faster):
			m.setSpeed(tr.Speed() + speedStep)

		case key.Matches(msg, m.keys.Slower):
			m.setSpeed(tr.Speed() - speedStep)

		case key.Matches(msg, m.keys.Presets):
			idx := int(msg.String()[0] - '1')
			if presets := m.opts.Settings.SpeedPresets; idx < len(presets) {
				m.setSpeed(presets[idx])
			}

		case key.Matches(msg, m.keys.Press):
			durations := m.opts.Settings.KeyPressDurations
			if len(durations) > 0 {
				m.pressIdx = (m.pressIdx + 1) % len(durations)
				d := config.Seconds(durations[m.pressIdx])
				if err := tr.SetPressDuration(d); err != nil {
					m.status = describe(err)
				} else {
					m.status = "press " + d.String()
				}
			}

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.progress.Width = min(60, max(10, msg.Width-30))

	case startedMsg:
		if msg.err != nil {
			m.status = describe(msg.err)
		} else {
			m.status = ""
			m.index = 0
			m.lastKey = -1
		}
		m.state = tr.State()

	case stoppedMsg:
		m.state = tr.State()
		m.lastKey = -1
		m.status = "stopped"

	case PlayerEventMsg:
		m.applyEvent(player.Event(msg))
		return m, ListenForEvents(tr)

	case TargetEventMsg:
		up := msg.Running
		m.targetUp = &up
		return m, ListenForTarget(m.opts.Target)

	case HotkeyMsg:
		return m, tea.Batch(m.togglePause(), ListenForHotkey(m.opts.Hotkey))

	case pauseToggledMsg:
		if msg.paused {
			m.status = "pausing at next note"
		}
		return m, nil

	case RemoteCommandMsg:
		var cmd tea.Cmd
		switch midi.Command(msg) {
		case midi.CommandPlay:
			cmd = m.start()
		case midi.CommandPause:
			cmd = m.togglePause()
		case midi.CommandStop:
			cmd = m.stop()
		}
		return m, tea.Batch(cmd, ListenForRemote(m.opts.Remote))

	case DeviceEventMsg:
		if msg.Type == midi.DeviceConnected {
			m.remote = msg.ID
		} else if msg.ID == m.remote {
			m.remote = ""
		}
		return m, ListenForDevices(m.opts.Devices)
	}

	return m, nil
}

func (m *Model) applyEvent(ev player.Event) {
	m.state = m.opts.Transport.State()
	switch ev.Kind {
	case player.EventStarted:
		m.index = 0
	case player.EventNote:
		m.index = ev.Index + 1
		if i, ok := m.keyIndex[ev.Key]; ok {
			m.lastKey = i
		}
	case player.EventDone:
		m.index = ev.Total
		m.lastKey = -1
		m.status = "finished"
	case player.EventFailed:
		m.lastKey = -1
		m.status = "playback failed: " + describe(ev.Err)
	case player.EventStopped:
		m.lastKey = -1
	}
}

// remaining estimates the time left at the current target speed.
func (m Model) remaining() time.Duration {
	s := m.opts.Song
	if s == nil || len(s.Notes) == 0 || m.index >= len(s.Notes) {
		return 0
	}
	ms := float64(s.Duration() - s.Notes[m.index].Time)
	return time.Duration(ms * 1000 / m.opts.Transport.Speed() * float64(time.Millisecond))
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	th := m.opts.Theme
	tr := m.opts.Transport

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	symbol := th.Symbols.Stop
	switch m.state {
	case player.Running:
		symbol = th.Symbols.Play
	case player.Paused:
		symbol = th.Symbols.Pause
	}
	if tr.Paused() && m.state == player.Running {
		symbol = th.Symbols.Pause
	}

	target := ""
	if m.targetUp != nil {
		if *m.targetUp {
			target = "  " + string(th.Symbols.TargetUp) + " " + m.opts.Settings.Target.Window
		} else {
			target = "  " + warnStyle.Render(string(th.Symbols.TargetDown)+" "+m.opts.Settings.Target.Window+" not running")
		}
	}
	remote := ""
	if m.remote != "" {
		remote = "  midi:" + m.remote
	}
	header := headerStyle.Render(fmt.Sprintf("go-lyrica  %c %s", symbol, m.state)) +
		dimStyle.Render(fmt.Sprintf("  speed %.0f  press %s", tr.Speed(), tr.PressDuration())) +
		target + dimStyle.Render(remote)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	if s := m.opts.Song; s != nil {
		title := s.Name
		if s.Author != "" {
			title += dimStyle.Render(" by " + s.Author)
		}
		out.WriteString(title)
		out.WriteString("\n")

		frac := 0.0
		if len(s.Notes) > 0 {
			frac = float64(m.index) / float64(len(s.Notes))
		}
		out.WriteString(m.progress.ViewAs(frac))
		out.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d  %s left", m.index, len(s.Notes), widgets.FormatClock(m.remaining()))))
		out.WriteString("\n\n")
	} else {
		out.WriteString(dimStyle.Render("no song loaded"))
		out.WriteString("\n\n")
	}

	grid := widgets.KeyGrid{
		Labels:    m.labels,
		Active:    m.lastKey,
		Idle:      th.Symbols.KeyIdle,
		Lit:       th.Symbols.KeyActive,
		IdleColor: th.Muted(),
		LitColor:  th.Success(),
	}
	out.WriteString(grid.Render())
	out.WriteString("\n\n")

	if m.status != "" {
		out.WriteString(warnStyle.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(m.keys))
	return out.String()
}
