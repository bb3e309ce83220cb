package desktop

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultLockPath is the single-instance lock file
func DefaultLockPath() string {
	return filepath.Join(os.TempDir(), "go-lyrica.lock")
}

// AcquireLock writes our PID to path. A lock held by another live process
// is an error; a stale one is replaced. The returned func removes the lock.
func AcquireLock(path string) (func(), error) {
	if data, err := os.ReadFile(path); err == nil {
		pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr == nil && pid > 0 && pid != os.Getpid() {
			if alive, _ := process.PidExists(int32(pid)); alive {
				return nil, fault.New("already running", fmsg.WithDesc("instance lock held by pid "+strconv.Itoa(pid),
					"Another instance is already running."))
			}
		}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return nil, fault.Wrap(err, fmsg.With("write lock file"))
	}
	return func() { os.Remove(path) }, nil
}
