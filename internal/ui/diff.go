package ui

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp is the kind of change in a Segment.
type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffRemoved
	DiffAdded
)

// Segment is one run of unchanged, removed or added text.
type Segment struct {
	Op   DiffOp
	Text string
}

// DiffCommands compares a failed command with a suggested alternative at
// word granularity.
func DiffCommands(failed, alternative string) []Segment {
	dmp := diffmatchpatch.New()

	// Diff on whole words: map each word to a rune, diff, then expand.
	a, b, words := dmp.DiffLinesToRunes(splitWords(failed), splitWords(alternative))
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, words)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		text := strings.ReplaceAll(d.Text, "\n", "")
		if text == "" {
			continue
		}
		op := DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = DiffRemoved
		case diffmatchpatch.DiffInsert:
			op = DiffAdded
		}
		if n := len(segments); n > 0 && segments[n-1].Op == op {
			segments[n-1].Text += text
			continue
		}
		segments = append(segments, Segment{Op: op, Text: text})
	}
	return segments
}

// splitWords puts every word and every run of spaces on its own line so
// the line-mode diff compares whole tokens.
func splitWords(s string) string {
	var sb strings.Builder
	inSpace := false
	for i, r := range s {
		space := r == ' ' || r == '\t'
		if i > 0 && space != inSpace {
			sb.WriteByte('\n')
		}
		inSpace = space
		sb.WriteRune(r)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// CommandDiff renders the alternative with removed words struck through and
// added words highlighted.
func CommandDiff(failed, alternative string, styles *Styles) string {
	var sb strings.Builder
	for _, seg := range DiffCommands(failed, alternative) {
		switch seg.Op {
		case DiffRemoved:
			sb.WriteString(styles.Removed.Render(seg.Text))
		case DiffAdded:
			sb.WriteString(styles.Added.Render(seg.Text))
		default:
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}
