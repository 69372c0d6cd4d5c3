package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPathWatcherReportsNewBinary(t *testing.T) {
	dir := t.TempDir()
	changes := make(chan map[string]Operation, 4)

	w, err := NewPathWatcher([]string{dir, filepath.Join(dir, "missing")}, Config{Debounce: 50 * time.Millisecond},
		func(c map[string]Operation) { changes <- c })
	require.NoError(t, err)
	assert.Equal(t, 1, w.WatchedPaths())

	w.Start()
	defer w.Stop()

	target := filepath.Join(dir, "newtool")
	require.NoError(t, os.WriteFile(target, []byte("#!/bin/sh\n"), 0755))

	select {
	case batch := <-changes:
		require.Contains(t, batch, target)
		assert.Contains(t, []Operation{OpInstalled, OpUpdated}, batch[target])
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestPathWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewPathWatcher([]string{t.TempDir()}, DefaultConfig(), nil)
	require.NoError(t, err)
	w.Start()
	w.Start()
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "installed", OpInstalled.String())
	assert.Equal(t, "removed", OpRemoved.String())
	assert.Equal(t, "unknown", Operation(42).String())
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, OpInstalled, operationOf(fsnotify.Create))
	assert.Equal(t, OpRemoved, operationOf(fsnotify.Rename))
	assert.Equal(t, OpRemoved, operationOf(fsnotify.Remove))
	assert.Equal(t, OpUpdated, operationOf(fsnotify.Write))
}
