package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"termagent/internal/config"
	"termagent/internal/git"
	"termagent/internal/logging"
)

// Snapshot is the workspace context for one request: the directory tree and
// the git state. Snapshots are built per request and never cached.
type Snapshot struct {
	Root       string
	Tree       *Node
	Git        *git.Snapshot // nil outside a repository
	Relevant   map[string][]string
	Errors     []string
	GatheredAt time.Time
}

// Gatherer builds snapshots.
type Gatherer struct {
	cfg       config.WorkspaceConfig
	gitReader *git.Reader
}

// NewGatherer creates a gatherer bounded by cfg.
func NewGatherer(cfg config.WorkspaceConfig) *Gatherer {
	return &Gatherer{cfg: cfg, gitReader: git.NewReader(5)}
}

// Gather collects the tree, git status and relevant files for dir
// concurrently. Partial failures are recorded in Snapshot.Errors; only a
// missing directory is an error.
func (g *Gatherer) Gather(ctx context.Context, dir string) (*Snapshot, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Root: root, GatheredAt: time.Now()}

	var mu sync.Mutex
	addError := func(format string, args ...any) {
		mu.Lock()
		snap.Errors = append(snap.Errors, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		opts := TreeOptions{
			MaxDepth:       g.cfg.MaxDepth,
			MaxFilesPerDir: g.cfg.MaxFilesPerDir,
			ShowHidden:     g.cfg.ShowHidden,
		}
		if g.cfg.RespectIgnore {
			ig, err := git.NewGitIgnore(root)
			if err != nil {
				addError("gitignore: %v", err)
			} else {
				opts.Ignore = ig
			}
		}
		tree, err := BuildTree(root, opts)
		if err != nil {
			return err
		}
		snap.Tree = tree
		return nil
	})

	eg.Go(func() error {
		gs, err := g.gitReader.Read(egCtx, root)
		switch {
		case errors.Is(err, git.ErrNotRepo):
		case err != nil:
			addError("git: %v", err)
		default:
			snap.Git = gs
		}
		return nil
	})

	eg.Go(func() error {
		relevant, err := RelevantFiles(root, DefaultRelevantPatterns, 8)
		if err != nil {
			addError("relevant files: %v", err)
			return nil
		}
		snap.Relevant = relevant
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logging.Debug("workspace snapshot gathered",
		"root", root,
		"git", snap.Git != nil,
		"errors", len(snap.Errors))
	return snap, nil
}

// Format renders the snapshot for a model prompt.
func (s *Snapshot) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workspace: %s\n", filepath.Base(s.Root))
	fmt.Fprintf(&sb, "Full path: %s\n\n", s.Root)

	if s.Tree != nil {
		sb.WriteString(s.Tree.Format())
		sb.WriteString("\n")
	}

	if s.Git != nil {
		sb.WriteString("\nGit:\n")
		sb.WriteString(s.Git.FormatForPrompt())
	} else {
		sb.WriteString("\nGit: not a repository\n")
	}

	if len(s.Relevant) > 0 {
		sb.WriteString("\nRelevant files:\n")
		patterns := make([]string, 0, len(s.Relevant))
		for p := range s.Relevant {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		for _, p := range patterns {
			fmt.Fprintf(&sb, "  %s: %s\n", p, strings.Join(s.Relevant[p], ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Summary is a short one-paragraph context for prompts that do not need the
// full tree.
func (s *Snapshot) Summary() string {
	var parts []string
	parts = append(parts, "cwd "+s.Root)
	if s.Tree != nil {
		parts = append(parts, fmt.Sprintf("%d dirs, %d files at top level", len(s.Tree.Dirs), s.Tree.FileCount()))
	}
	if s.Git != nil {
		parts = append(parts, "git "+s.Git.FormatCompact())
	}
	return strings.Join(parts, "; ")
}
