// Package container turns docker and kubernetes requests into docker and
// kubectl commands.
package container

import (
	"regexp"
	"strings"
)

type rewrite struct {
	re    *regexp.Regexp
	build func(m []string) string
}

func fixed(cmd string) func([]string) string {
	return func([]string) string { return cmd }
}

// normalize returns the command for text when it already starts with one of
// the tool names or matches a rewrite.
func normalize(text string, names []string, rewrites []rewrite) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	first := strings.ToLower(strings.Fields(trimmed)[0])
	for _, n := range names {
		if first == n {
			return trimmed, true
		}
	}
	for _, r := range rewrites {
		if m := r.re.FindStringSubmatch(trimmed); m != nil {
			return r.build(m), true
		}
	}
	return "", false
}

// EnsurePrefix makes a model answer start with tool.
func EnsurePrefix(command, tool string) string {
	command = strings.Trim(strings.TrimSpace(command), "`")
	command = strings.TrimSpace(strings.TrimPrefix(command, "$ "))
	if command == "" {
		return ""
	}
	lower := strings.ToLower(command)
	if lower == tool || strings.HasPrefix(lower, tool+" ") {
		return command
	}
	return tool + " " + command
}
