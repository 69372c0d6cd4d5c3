package workspace

import (
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultRelevantPatterns are the project files worth naming to a model.
var DefaultRelevantPatterns = []string{
	"**/*.go", "**/*.py", "**/*.js", "**/*.ts", "**/*.md",
	"**/*.toml", "**/*.yaml", "**/*.yml", "**/*.json",
	"**/Makefile", "**/Dockerfile",
}

var skippedDirs = map[string]bool{
	"node_modules": true, "vendor": true, "venv": true, "__pycache__": true,
	"dist": true, "build": true, "target": true,
}

// RelevantFiles lists up to limit files per pattern under root, skipping
// hidden and dependency directories.
func RelevantFiles(root string, patterns []string, limit int) (map[string][]string, error) {
	fsys := os.DirFS(root)
	found := make(map[string][]string)

	for _, pattern := range patterns {
		var matches []string
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
			if d.IsDir() || skipPath(path) {
				return nil
			}
			matches = append(matches, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		if limit > 0 && len(matches) > limit {
			matches = matches[:limit]
		}
		found[pattern] = matches
	}
	return found, nil
}

func skipPath(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ".") || skippedDirs[part] {
			return true
		}
	}
	return false
}
