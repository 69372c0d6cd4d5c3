package history

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"termagent/internal/fileutil"
)

// Turn is one completed exchange kept as short-term conversation context.
type Turn struct {
	Input    string    `json:"input"`
	Response string    `json:"response"`
	Handler  string    `json:"handler"`
	Model    string    `json:"model,omitempty"`
	Time     time.Time `json:"time"`
}

// MessageCache keeps the most recent successful turns in messages.json.
type MessageCache struct {
	path string
	max  int

	mu    sync.Mutex
	turns []Turn
}

// MessagesPath returns ~/.termagent/messages.json.
func MessagesPath(dataDir string) string {
	return filepath.Join(dataDir, "messages.json")
}

// OpenMessages loads the cache. A missing or corrupt file starts empty.
func OpenMessages(path string, max int) *MessageCache {
	if max <= 0 {
		max = 50
	}
	c := &MessageCache{path: path, max: max}
	if path != "" {
		var turns []Turn
		if err := fileutil.ReadJSON(path, &turns); err == nil {
			c.turns = turns
			c.trimLocked()
		}
	}
	return c
}

// Add records a turn and persists the cache.
func (c *MessageCache) Add(t Turn) error {
	if t.Input == "" || t.Response == "" {
		return nil
	}
	if t.Time.IsZero() {
		t.Time = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
	c.trimLocked()
	if c.path == "" {
		return nil
	}
	return fileutil.WriteJSON(c.path, c.turns, 0600)
}

// Recent returns up to n turns, oldest first.
func (c *MessageCache) Recent(n int) []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.turns) {
		n = len(c.turns)
	}
	return append([]Turn(nil), c.turns[len(c.turns)-n:]...)
}

// Clear empties the cache and removes the file.
func (c *MessageCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *MessageCache) trimLocked() {
	if len(c.turns) > c.max {
		c.turns = c.turns[len(c.turns)-c.max:]
	}
}
