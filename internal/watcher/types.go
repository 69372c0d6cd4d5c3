// Package watcher notices executables appearing in or leaving $PATH.
package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation is what happened to a $PATH entry.
type Operation int

const (
	OpInstalled Operation = iota
	OpUpdated
	OpRemoved
)

var operationNames = map[Operation]string{
	OpInstalled: "installed",
	OpUpdated:   "updated",
	OpRemoved:   "removed",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return "unknown"
}

// operationOf folds fsnotify events into the three outcomes that matter for
// command recognition. A rename away is a removal.
func operationOf(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Create):
		return OpInstalled
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemoved
	}
	return OpUpdated
}

// Config tunes event batching. Package managers touch many files at once.
type Config struct {
	Debounce time.Duration
}

// DefaultConfig waits for half a second of quiet before reporting.
func DefaultConfig() Config {
	return Config{Debounce: 500 * time.Millisecond}
}

// ChangeHandler receives one debounced batch: each changed path with the
// last operation seen for it.
type ChangeHandler func(changes map[string]Operation)
