package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"termagent/internal/git"
)

// Node is one directory in the workspace tree.
type Node struct {
	Name    string
	Dirs    []*Node
	Files   []string
	Omitted int    // files beyond the per-directory limit
	Err     string // set when the directory could not be read
}

// TreeOptions bounds a tree walk.
type TreeOptions struct {
	MaxDepth       int
	MaxFilesPerDir int
	ShowHidden     bool
	// Ignore is consulted with paths relative to the root. Nil disables it.
	Ignore *git.GitIgnore
}

// BuildTree walks root up to MaxDepth levels. Directories come before files
// and both are sorted case-insensitively.
func BuildTree(root string, opts TreeOptions) (*Node, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace path is not a directory: %s", root)
	}

	node := &Node{Name: filepath.Base(root)}
	walk(node, root, "", opts.MaxDepth, opts)
	return node, nil
}

func walk(node *Node, abs, rel string, depth int, opts TreeOptions) {
	if depth <= 0 {
		return
	}
	if opts.Ignore != nil && rel != "" {
		if err := opts.Ignore.LoadDir(rel); err != nil {
			node.Err = err.Error()
		}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsPermission(err) {
			node.Err = "permission denied"
		} else {
			node.Err = err.Error()
		}
		return
	}

	var dirs, files []string
	for _, e := range entries {
		name := e.Name()
		if !opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		childRel := filepath.ToSlash(filepath.Join(rel, name))
		isDir := e.IsDir()
		if !isDir && e.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(abs, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if opts.Ignore != nil && opts.Ignore.Match(childRel, isDir) {
			continue
		}
		if isDir {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	sortFold(dirs)
	sortFold(files)

	for _, d := range dirs {
		child := &Node{Name: d}
		node.Dirs = append(node.Dirs, child)
		if depth > 1 {
			walk(child, filepath.Join(abs, d), filepath.ToSlash(filepath.Join(rel, d)), depth-1, opts)
		}
	}

	if opts.MaxFilesPerDir > 0 && len(files) > opts.MaxFilesPerDir {
		node.Omitted = len(files) - opts.MaxFilesPerDir
		files = files[:opts.MaxFilesPerDir]
	}
	node.Files = files
}

func sortFold(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}

// Format renders the tree with two-space indentation per level.
func (n *Node) Format() string {
	var sb strings.Builder
	n.format(&sb, "")
	return strings.TrimRight(sb.String(), "\n")
}

func (n *Node) format(sb *strings.Builder, prefix string) {
	if n.Err != "" {
		fmt.Fprintf(sb, "%s(error: %s)\n", prefix, n.Err)
	}
	for _, d := range n.Dirs {
		fmt.Fprintf(sb, "%s%s/\n", prefix, d.Name)
		d.format(sb, prefix+"  ")
	}
	for _, f := range n.Files {
		fmt.Fprintf(sb, "%s%s\n", prefix, f)
	}
	if n.Omitted > 0 {
		fmt.Fprintf(sb, "%s... and %d more files\n", prefix, n.Omitted)
	}
}

// FileCount returns the number of files listed at the top level, including
// omitted ones.
func (n *Node) FileCount() int {
	return len(n.Files) + n.Omitted
}
