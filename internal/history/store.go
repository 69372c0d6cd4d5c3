package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"termagent/internal/fileutil"
	"termagent/internal/logging"
)

// Entry is one input line the user submitted.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Input     string    `json:"input"`
	Handler   string    `json:"handler,omitempty"`
	Command   string    `json:"command,omitempty"` // the shell command actually run, if any
	ExitCode  int       `json:"exit_code"`
	Success   bool      `json:"success"`
	Time      time.Time `json:"time"`
}

// CommandCount is an input and how often it was submitted.
type CommandCount struct {
	Input string
	Count int
}

// Stats summarizes the history.
type Stats struct {
	Total       int
	Unique      int
	Successful  int
	SuccessRate float64
	TopCommands []CommandCount
	Sessions    int
}

// Store is the command history persisted as JSON lines.
type Store struct {
	path       string
	maxEntries int
	sessionID  string

	mu      sync.RWMutex
	entries []Entry
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// DefaultPath returns ~/.termagent/history.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "history")
}

// Open loads the history at path. A missing file starts an empty history;
// unreadable lines are skipped.
func Open(path string, maxEntries int, sessionID string) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	s := &Store{path: path, maxEntries: maxEntries, sessionID: sessionID}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	skipped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			skipped++
			continue
		}
		s.entries = append(s.entries, e)
	}
	if skipped > 0 {
		logging.Warn("skipped unreadable history lines", "count", skipped)
	}
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}
	return scanner.Err()
}

// Add records an entry. Blank inputs and exact repeats of the previous input
// are ignored. The file is appended to, and rewritten only when the history
// exceeds its limit.
func (s *Store) Add(e Entry) error {
	e.Input = strings.TrimSpace(e.Input)
	if e.Input == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.entries); n > 0 && s.entries[n-1].Input == e.Input {
		// Keep the latest outcome for the repeated input.
		last := &s.entries[n-1]
		last.ExitCode, last.Success, last.Time = e.ExitCode, e.Success, e.Time
		return s.rewriteLocked()
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SessionID == "" {
		e.SessionID = s.sessionID
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.entries = append(s.entries, e)

	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
		return s.rewriteLocked()
	}
	return s.appendLocked(e)
}

func (s *Store) appendLocked(e Entry) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *Store) rewriteLocked() error {
	if s.path == "" {
		return nil
	}
	var buf strings.Builder
	for _, e := range s.entries {
		line, err := json.Marshal(e)
		if err != nil {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return fileutil.AtomicWrite(s.path, []byte(buf.String()), 0600)
}

// Entries returns all entries, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Inputs returns the submitted inputs, oldest first, for line editing.
func (s *Store) Inputs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inputs := make([]string, len(s.entries))
	for i, e := range s.entries {
		inputs[i] = e.Input
	}
	return inputs
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = s.entries[len(s.entries)-1-i]
	}
	return out
}

// Last returns the most recent entry.
func (s *Store) Last() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Search returns entries whose input or command contains query,
// case-insensitively, newest first.
func (s *Store) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if strings.Contains(strings.ToLower(e.Input), q) || strings.Contains(strings.ToLower(e.Command), q) {
			out = append(out, e)
		}
	}
	return out
}

// Stats computes summary statistics. TopCommands holds at most five inputs,
// most frequent first, ties broken alphabetically.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.entries)}
	counts := make(map[string]int)
	sessions := make(map[string]bool)
	for _, e := range s.entries {
		counts[e.Input]++
		if e.Success {
			st.Successful++
		}
		if e.SessionID != "" {
			sessions[e.SessionID] = true
		}
	}
	st.Unique = len(counts)
	st.Sessions = len(sessions)
	if st.Total > 0 {
		st.SuccessRate = float64(st.Successful) / float64(st.Total)
	}

	for input, n := range counts {
		st.TopCommands = append(st.TopCommands, CommandCount{Input: input, Count: n})
	}
	sort.Slice(st.TopCommands, func(i, j int) bool {
		a, b := st.TopCommands[i], st.TopCommands[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Input < b.Input
	})
	if len(st.TopCommands) > 5 {
		st.TopCommands = st.TopCommands[:5]
	}
	return st
}

// Clear removes all entries and the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history: %w", err)
	}
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
