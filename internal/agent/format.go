package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatResult phrases a command's stdout as an answer to the question.
func FormatResult(m Mapping, stdout string) string {
	out := strings.TrimSpace(stdout)

	switch m.Type {
	case ResponseCount:
		lines := strings.Split(out, "\n")
		n, err := strconv.Atoi(strings.TrimSpace(lines[len(lines)-1]))
		if err != nil {
			return "The result is: " + out
		}
		subject := m.Subject
		if subject == "" {
			return fmt.Sprintf("The count is %d.", n)
		}
		if n == 1 {
			return fmt.Sprintf("There is 1 %s in this directory.", singular(subject))
		}
		return fmt.Sprintf("There are %d %s in this directory.", n, subject)

	case ResponseList:
		subject := m.Subject
		if subject == "" {
			subject = "items"
		}
		n := countItems(out, m)
		if n == 0 {
			return fmt.Sprintf("No %s found.", subject)
		}
		return fmt.Sprintf("There are %d %s:\n%s", n, subject, out)

	case ResponseStatus:
		if out == "" {
			return "The command produced no output."
		}
		subject := m.Subject
		if subject == "" {
			subject = "status"
		}
		return fmt.Sprintf("Here's the current %s:\n%s", subject, out)

	case ResponseInfo:
		if out == "" {
			return "The command produced no output."
		}
		if m.Subject == "" {
			return "Here's the information:\n" + out
		}
		if strings.Contains(out, "\n") {
			return fmt.Sprintf("Current %s:\n%s", m.Subject, out)
		}
		return fmt.Sprintf("Current %s: %s", m.Subject, out)
	}

	if out == "" {
		return "The command produced no output."
	}
	return "Here's the result:\n" + out
}

// countItems counts the entries in list output, skipping headers, the "total"
// line of long listings and the "." and ".." entries.
func countItems(out string, m Mapping) int {
	if out == "" {
		return 0
	}
	lines := strings.Split(out, "\n")
	if m.Header && len(lines) > 0 {
		lines = lines[1:]
	}
	n := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m.LongListing {
			if strings.HasPrefix(line, "total ") {
				continue
			}
			if strings.HasSuffix(line, " .") || strings.HasSuffix(line, " ..") {
				continue
			}
		}
		n++
	}
	return n
}

func singular(subject string) string {
	words := strings.Fields(subject)
	if len(words) == 0 {
		return subject
	}
	last := words[len(words)-1]
	switch {
	case strings.HasSuffix(last, "ies"):
		last = strings.TrimSuffix(last, "ies") + "y"
	case strings.HasSuffix(last, "s"):
		last = strings.TrimSuffix(last, "s")
	}
	words[len(words)-1] = last
	return strings.Join(words, " ")
}
