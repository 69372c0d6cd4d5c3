// Package logging holds the process-wide structured logger. Stdout belongs
// to answers, so nothing is written until the CLI picks a destination.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the log file created inside the data directory.
const FileName = "termagent.log"

// Level represents a logging level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewJSONHandler(io.Discard, nil))
	logFile *os.File
	session string
)

// ParseLevel maps a config value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch l := Level(strings.ToLower(s)); l {
	case LevelDebug, LevelWarn, LevelError:
		return l
	case "warning":
		return LevelWarn
	}
	return LevelInfo
}

func (l Level) slog() slog.Level {
	switch ParseLevel(string(l)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// install swaps the active handler. f, if set, is closed on the next swap.
func install(h slog.Handler, f *os.File) {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil && logFile != f {
		logFile.Close()
	}
	logFile = f
	logger = slog.New(h)
	if session != "" {
		logger = logger.With("session", session)
	}
}

// Configure writes JSON records at level or above to w (stderr if nil).
func Configure(level Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	install(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slog()}), nil)
}

// EnableFileLogging appends JSON records to FileName inside dir.
func EnableFileLogging(dir string, level Level) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	install(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level.slog()}), f)
	return nil
}

// EnableDebug writes human-readable debug lines to w. Used by --debug.
func EnableDebug(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	install(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}), nil)
}

// SetSession tags every later record with the REPL session id.
func SetSession(id string) {
	mu.Lock()
	session = id
	logger = logger.With("session", id)
	mu.Unlock()
}

// DisableLogging discards all output and closes the log file.
func DisableLogging() {
	mu.Lock()
	session = ""
	mu.Unlock()
	install(slog.NewJSONHandler(io.Discard, nil), nil)
}

// Close closes the log file if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns the current logger with extra attributes.
func With(args ...any) *slog.Logger { return current().With(args...) }
