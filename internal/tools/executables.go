package tools

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"termagent/internal/fileutil"
	"termagent/internal/logging"
)

// ExecutableCache remembers which names on $PATH are executable. The scan is
// persisted and reused until the TTL expires or $PATH changes.
type ExecutableCache struct {
	file string
	ttl  time.Duration

	mu        sync.RWMutex
	names     map[string]bool
	pathHash  string
	scannedAt time.Time
	stale     bool

	now     func() time.Time
	pathEnv func() string
}

type executableCacheFile struct {
	PathHash    string    `json:"path_hash"`
	ScannedAt   time.Time `json:"scanned_at"`
	Executables []string  `json:"executables"`
}

// NewExecutableCache creates a cache persisted at file. An empty file keeps
// the cache in memory only.
func NewExecutableCache(file string, ttl time.Duration) *ExecutableCache {
	return &ExecutableCache{
		file:    file,
		ttl:     ttl,
		names:   make(map[string]bool),
		stale:   true,
		now:     time.Now,
		pathEnv: func() string { return os.Getenv("PATH") },
	}
}

// Load reads the persisted scan when it is still valid and rescans otherwise.
func (c *ExecutableCache) Load() error {
	if c.file != "" {
		var f executableCacheFile
		if err := fileutil.ReadJSON(c.file, &f); err == nil {
			c.mu.Lock()
			fresh := f.PathHash == hashPath(c.pathEnv()) && c.now().Sub(f.ScannedAt) < c.ttl
			if fresh {
				c.names = make(map[string]bool, len(f.Executables))
				for _, n := range f.Executables {
					c.names[n] = true
				}
				c.pathHash = f.PathHash
				c.scannedAt = f.ScannedAt
				c.stale = false
			}
			c.mu.Unlock()
			if fresh {
				logging.Debug("executable cache loaded", "count", len(f.Executables))
				return nil
			}
		}
	}
	return c.Refresh()
}

// Has reports whether name is an executable on $PATH, rescanning first if
// the cache is stale.
func (c *ExecutableCache) Has(name string) bool {
	if c.needsRefresh() {
		if err := c.Refresh(); err != nil {
			logging.Warn("executable scan failed", "error", err)
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names[name]
}

// Len returns the number of cached executables.
func (c *ExecutableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Invalidate forces a rescan on the next lookup.
func (c *ExecutableCache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Dirs returns the directories listed in $PATH.
func (c *ExecutableCache) Dirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, d := range filepath.SplitList(c.pathEnv()) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}

func (c *ExecutableCache) needsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale ||
		c.now().Sub(c.scannedAt) >= c.ttl ||
		c.pathHash != hashPath(c.pathEnv())
}

// Refresh rescans $PATH and persists the result.
func (c *ExecutableCache) Refresh() error {
	pathEnv := c.pathEnv()
	names := scanExecutables(c.Dirs())

	c.mu.Lock()
	c.names = names
	c.pathHash = hashPath(pathEnv)
	c.scannedAt = c.now()
	c.stale = false
	snapshot := executableCacheFile{PathHash: c.pathHash, ScannedAt: c.scannedAt}
	c.mu.Unlock()

	logging.Debug("executable cache refreshed", "count", len(names))
	if c.file == "" {
		return nil
	}

	snapshot.Executables = make([]string, 0, len(names))
	for n := range names {
		snapshot.Executables = append(snapshot.Executables, n)
	}
	sort.Strings(snapshot.Executables)
	return fileutil.WriteJSON(c.file, snapshot, 0600)
}

func scanExecutables(dirs []string) map[string]bool {
	names := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
				continue
			}
			names[e.Name()] = true
		}
	}
	return names
}

func hashPath(p string) string {
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:8])
}
