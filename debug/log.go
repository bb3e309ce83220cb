package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	file    *os.File
	logger  = zap.NewNop().Sugar()
	enabled bool
)

// DefaultPath returns ~/.config/go-lyrica/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-lyrica", "debug.log")
}

// Enable starts debug logging to path (DefaultPath when empty).
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	file = f
	logger = zap.New(core).Sugar()
	enabled = true

	logger.Infow("=== Debug logging started ===", "category", "debug")
	return nil
}

// EnableConsole routes debug output to stderr instead of a file. Used by the
// headless play command where there is no TUI to corrupt.
func EnableConsole(level zapcore.Level) {
	mu.Lock()
	defer mu.Unlock()

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	logger = zap.New(core).Sugar()
	enabled = true
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	_ = logger.Sync()
	if file != nil {
		file.Close()
		file = nil
	}
	logger = zap.NewNop().Sugar()
	enabled = false
}

// Logger returns the current logger. It is a no-op logger until Enable is
// called, so callers can hold it unconditionally.
func Logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	l := logger
	on := enabled
	mu.Unlock()

	if !on {
		return
	}
	l.Debugw(fmt.Sprintf(format, args...), "category", category)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
