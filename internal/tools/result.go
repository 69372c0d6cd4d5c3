package tools

import (
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of one shell command.
type Result struct {
	Command  string
	WorkDir  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
	// Truncated is set when output exceeded the configured limit.
	Truncated bool
}

// Success reports whether the command exited with code 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Output combines stdout and stderr the way they are shown to the user.
func (r *Result) Output() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(r.Stdout, "\n"))
	if stderr := strings.TrimRight(r.Stderr, "\n"); stderr != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(stderr)
	}
	return sb.String()
}

// Summary is a one-line status for the result.
func (r *Result) Summary() string {
	switch {
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Millisecond))
	case r.ExitCode != 0:
		return fmt.Sprintf("exited with code %d", r.ExitCode)
	default:
		return "ok"
	}
}

func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	return s[:max] + fmt.Sprintf("\n... (output truncated: showing %d of %d characters)", max, len(s)), true
}
