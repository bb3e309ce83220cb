package desktop

import (
	"context"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/shirou/gopsutil/v4/process"

	"go-lyrica/debug"
)

// Processes checks the process table
type Processes struct {
	// names lists process names; replaced in tests.
	names func(ctx context.Context) ([]string, error)
}

// NewProcesses reads the real process table.
func NewProcesses() *Processes {
	return &Processes{names: processNames}
}

func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list processes"))
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// processes can exit between listing and reading
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Running reports whether any process name contains name, ignoring case.
func (p *Processes) Running(ctx context.Context, name string) (bool, error) {
	names, err := p.names(ctx)
	if err != nil {
		return false, err
	}
	want := strings.ToLower(name)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			debug.LogEvery(30, "target", "found process %q", n)
			return true, nil
		}
	}
	return false, nil
}

// Target is the game: a process to detect and a window to focus. It
// satisfies player.Target.
type Target struct {
	Process string
	Title   string

	procs   *Processes
	windows *Windows
}

// NewTarget creates a target
func NewTarget(process, title string, procs *Processes, windows *Windows) *Target {
	return &Target{Process: process, Title: title, procs: procs, windows: windows}
}

// Running checks the process table.
func (t *Target) Running(ctx context.Context) (bool, error) {
	if t.Process == "" {
		return true, nil
	}
	return t.procs.Running(ctx, t.Process)
}

// Focus brings the game window to the front.
func (t *Target) Focus(ctx context.Context) error {
	if t.windows == nil || t.Title == "" {
		return nil
	}
	return t.windows.FocusTitle(ctx, t.Title)
}
