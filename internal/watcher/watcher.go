package watcher

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"termagent/internal/logging"
)

// PathWatcher watches a flat set of directories (the entries of $PATH) and
// reports debounced batches of changes. Installing or removing a binary
// shows up here.
type PathWatcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  ChangeHandler

	mu      sync.Mutex
	pending map[string]Operation
	last    time.Time
	running bool

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPathWatcher creates a watcher for dirs. Directories that cannot be
// watched are skipped.
func NewPathWatcher(dirs []string, cfg Config, onChange ChangeHandler) (*PathWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultConfig().Debounce
	}

	w := &PathWatcher{
		fsWatcher: fsWatcher,
		debounce:  debounce,
		onChange:  onChange,
		pending:   make(map[string]Operation),
		done:      make(chan struct{}),
	}

	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			logging.Debug("skipping unwatchable directory", "dir", dir, "error", err)
		}
	}
	return w, nil
}

// Start begins processing events in the background.
func (w *PathWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	w.wg.Add(2)
	go w.processEvents()
	go w.processDebounce()
}

// Stop stops the watcher and waits for its goroutines to exit.
func (w *PathWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	})
	return err
}

// WatchedPaths returns the number of watched directories.
func (w *PathWatcher) WatchedPaths() int {
	return len(w.fsWatcher.WatchList())
}

func (w *PathWatcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = operationOf(event.Op)
			w.last = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("path watcher error", "error", err)
		}
	}
}

func (w *PathWatcher) processDebounce() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

// flush delivers pending changes once no event has arrived for the
// debounce interval.
func (w *PathWatcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 || time.Since(w.last) < w.debounce {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]Operation)
	w.mu.Unlock()

	logging.Debug("path changed", "entries", len(batch))
	if w.onChange != nil {
		w.onChange(batch)
	}
}
