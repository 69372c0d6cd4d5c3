package git

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern is a single gitignore rule.
type pattern struct {
	glob     string
	negation bool   // starts with !
	dirOnly  bool   // ends with /
	anchored bool   // contains / before the end
	base     string // slash-separated directory of the defining file, "" for root
}

// GitIgnore matches paths relative to a root against .gitignore rules.
// Nested .gitignore files are added as the tree walk reaches them, so a
// GitIgnore is built fresh for each walk and is not safe for concurrent use.
type GitIgnore struct {
	root     string
	patterns []pattern
}

// NewGitIgnore loads the root .gitignore and .git/info/exclude. Missing
// files are not an error.
func NewGitIgnore(root string) (*GitIgnore, error) {
	g := &GitIgnore{root: root}
	g.patterns = append(g.patterns, pattern{glob: ".git", dirOnly: true})

	for _, file := range []string{
		filepath.Join(root, ".git", "info", "exclude"),
		filepath.Join(root, ".gitignore"),
	} {
		if err := g.loadFile(file, ""); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return g, nil
}

// LoadDir adds the rules of dir/.gitignore, where dir is relative to root.
// The root file is loaded by NewGitIgnore.
func (g *GitIgnore) LoadDir(rel string) error {
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return nil
	}
	err := g.loadFile(filepath.Join(g.root, filepath.FromSlash(rel), ".gitignore"), rel)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// AddPattern adds a root-level rule.
func (g *GitIgnore) AddPattern(line string) {
	if p, ok := parseLine(line, ""); ok {
		g.patterns = append(g.patterns, p)
	}
}

// Match reports whether rel (relative to root) is ignored. The last
// matching rule wins, so negations can re-include a path.
func (g *GitIgnore) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, p := range g.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negation
		}
	}
	return ignored
}

func (g *GitIgnore) loadFile(file, base string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parseLine(scanner.Text(), base); ok {
			g.patterns = append(g.patterns, p)
		}
	}
	return scanner.Err()
}

func parseLine(line, base string) (pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return pattern{}, false
	}

	p := pattern{base: base}
	if strings.HasPrefix(line, "!") {
		p.negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return pattern{}, false
	}
	p.glob = line
	return p, true
}

func (p pattern) matches(rel string, isDir bool) bool {
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}

	if p.anchored {
		return globMatch(p.glob, rel, isDir, p.dirOnly)
	}

	// Unanchored rules match at any depth.
	return globMatch("**/"+p.glob, rel, isDir, p.dirOnly)
}

// globMatch matches rel against glob. Anything strictly below a matching
// directory is covered as well.
func globMatch(glob, rel string, isDir, dirOnly bool) bool {
	if matchGlob(glob+"/**", rel) && !matchGlob(glob, rel) {
		return true
	}
	if dirOnly && !isDir {
		return false
	}
	return matchGlob(glob, rel)
}

func matchGlob(glob, name string) bool {
	ok, err := doublestar.Match(glob, name)
	return err == nil && ok
}
