package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotRepo is returned when the directory is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

// Snapshot is the git state of a directory at one moment. It is gathered per
// request and never cached.
type Snapshot struct {
	Branch        string
	Upstream      string
	Ahead         int
	Behind        int
	Staged        []string
	Modified      []string
	Untracked     []string
	Conflicted    []string
	Stashes       int
	RecentCommits []Commit
}

// Commit is one entry of the recent history.
type Commit struct {
	Hash    string
	Author  string
	Subject string
	Date    time.Time
}

// Reader collects snapshots by running the git binary.
type Reader struct {
	maxCommits int
}

// NewReader creates a Reader that includes up to maxCommits recent commits.
func NewReader(maxCommits int) *Reader {
	return &Reader{maxCommits: maxCommits}
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	out, err := runGit(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Read gathers the snapshot for dir.
func (r *Reader) Read(ctx context.Context, dir string) (*Snapshot, error) {
	if !IsRepo(ctx, dir) {
		return nil, ErrNotRepo
	}

	out, err := runGit(ctx, dir, "status", "--porcelain=v1", "--branch")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}
	s := ParseStatus(out)

	if stashes, err := runGit(ctx, dir, "stash", "list"); err == nil {
		if trimmed := strings.TrimSpace(stashes); trimmed != "" {
			s.Stashes = len(strings.Split(trimmed, "\n"))
		}
	}

	if r.maxCommits > 0 {
		if log, err := runGit(ctx, dir, "log", "--format=%h|%an|%at|%s", fmt.Sprintf("-n%d", r.maxCommits)); err == nil {
			s.RecentCommits = parseLog(log)
		}
	}
	return s, nil
}

var branchHeader = regexp.MustCompile(`^## (?:No commits yet on |Initial commit on )?(\S+?)(?:\.\.\.(\S+))?(?: \[(.*)\])?$`)

// ParseStatus parses `git status --porcelain=v1 --branch` output.
func ParseStatus(out string) *Snapshot {
	s := &Snapshot{}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "## ") {
			parseBranchLine(s, line)
			continue
		}
		if len(line) < 4 {
			continue
		}

		x, y := line[0], line[1]
		file := line[3:]
		if i := strings.Index(file, " -> "); i >= 0 {
			file = file[i+4:]
		}

		switch {
		case x == '?' && y == '?':
			s.Untracked = append(s.Untracked, file)
			continue
		case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
			s.Conflicted = append(s.Conflicted, file)
			continue
		}
		if strings.ContainsRune("MADRC", rune(x)) {
			s.Staged = append(s.Staged, file)
		}
		if y == 'M' || y == 'D' {
			s.Modified = append(s.Modified, file)
		}
	}
	return s
}

func parseBranchLine(s *Snapshot, line string) {
	if strings.HasPrefix(line, "## HEAD (no branch)") {
		s.Branch = "HEAD (detached)"
		return
	}
	m := branchHeader.FindStringSubmatch(line)
	if m == nil {
		return
	}
	s.Branch = m[1]
	s.Upstream = m[2]
	for _, part := range strings.Split(m[3], ", ") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "ahead":
			s.Ahead = n
		case "behind":
			s.Behind = n
		}
	}
}

func parseLog(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		ts, _ := strconv.ParseInt(parts[2], 10, 64)
		commits = append(commits, Commit{
			Hash:    parts[0],
			Author:  parts[1],
			Date:    time.Unix(ts, 0),
			Subject: parts[3],
		})
	}
	return commits
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	return string(output), err
}

// IsClean returns true if the working tree has no changes.
func (s *Snapshot) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 &&
		len(s.Untracked) == 0 && len(s.Conflicted) == 0
}

// FormatForPrompt renders the snapshot for inclusion in a model prompt.
func (s *Snapshot) FormatForPrompt() string {
	if s == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Branch: %s", s.Branch)
	if s.Upstream != "" {
		fmt.Fprintf(&sb, " (tracking %s)", s.Upstream)
	}
	sb.WriteString("\n")

	if s.Ahead > 0 || s.Behind > 0 {
		fmt.Fprintf(&sb, "Remote: %d ahead, %d behind\n", s.Ahead, s.Behind)
	}

	if s.IsClean() {
		sb.WriteString("Working tree: clean\n")
	} else {
		sb.WriteString("Working tree:\n")
		writeFiles(&sb, "Staged", s.Staged)
		writeFiles(&sb, "Modified", s.Modified)
		writeFiles(&sb, "Conflicted", s.Conflicted)
		if len(s.Untracked) > 0 {
			fmt.Fprintf(&sb, "- Untracked: %d file(s)\n", len(s.Untracked))
		}
	}

	if s.Stashes > 0 {
		fmt.Fprintf(&sb, "Stashes: %d\n", s.Stashes)
	}

	if len(s.RecentCommits) > 0 {
		sb.WriteString("Recent commits:\n")
		for _, c := range s.RecentCommits {
			fmt.Fprintf(&sb, "- %s %s (%s, %s)\n", c.Hash, c.Subject, c.Author, formatTimeAgo(c.Date))
		}
	}
	return sb.String()
}

// FormatCompact returns a compact one-line summary.
func (s *Snapshot) FormatCompact() string {
	if s == nil {
		return ""
	}

	parts := []string{s.Branch}
	if changes := len(s.Staged) + len(s.Modified) + len(s.Conflicted); changes > 0 {
		parts = append(parts, fmt.Sprintf("%d changes", changes))
	}
	if len(s.Untracked) > 0 {
		parts = append(parts, fmt.Sprintf("%d untracked", len(s.Untracked)))
	}
	if s.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("↑%d", s.Ahead))
	}
	if s.Behind > 0 {
		parts = append(parts, fmt.Sprintf("↓%d", s.Behind))
	}
	return strings.Join(parts, " | ")
}

func writeFiles(sb *strings.Builder, label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(sb, "- %s: %d file(s)\n", label, len(files))
	for _, f := range limitList(files, 5) {
		fmt.Fprintf(sb, "  - %s\n", f)
	}
}

func limitList(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	default:
		return plural(int(d.Hours()/24/7), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
