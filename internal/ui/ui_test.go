package ui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termagent/internal/agent"
	"termagent/internal/config"
	"termagent/internal/router"
)

func join(segments []Segment, skip DiffOp) string {
	var sb strings.Builder
	for _, s := range segments {
		if s.Op != skip {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func TestDiffCommands(t *testing.T) {
	tests := []struct{ failed, alternative, added string }{
		{"ls missing-dir", "ls -la missing-dir", "-la"},
		{"git push", "git pull --rebase && git push", "pull"},
		{"mkdir build", "mkdir -p build", "-p"},
	}
	for _, tt := range tests {
		segs := DiffCommands(tt.failed, tt.alternative)
		assert.Equal(t, tt.failed, join(segs, DiffAdded), tt.failed)
		assert.Equal(t, tt.alternative, join(segs, DiffRemoved), tt.alternative)

		var added string
		for _, s := range segs {
			if s.Op == DiffAdded {
				added += s.Text
			}
		}
		assert.Contains(t, added, tt.added)
	}
}

func TestDiffIdenticalCommands(t *testing.T) {
	segs := DiffCommands("git status", "git status")
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Op: DiffEqual, Text: "git status"}, segs[0])
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func update(m tea.Model, msg tea.Msg) InputModel {
	next, _ := m.Update(msg)
	return next.(InputModel)
}

func TestInputHistoryNavigation(t *testing.T) {
	m := NewInputModel("> ", PlainStyles(), []string{"ls", "git status"}, nil)
	m.input.SetValue("draft")

	m = update(m, key(tea.KeyUp))
	assert.Equal(t, "git status", m.Value())
	m = update(m, key(tea.KeyUp))
	assert.Equal(t, "ls", m.Value())
	m = update(m, key(tea.KeyUp))
	assert.Equal(t, "ls", m.Value())
	m = update(m, key(tea.KeyDown))
	assert.Equal(t, "git status", m.Value())
	m = update(m, key(tea.KeyDown))
	assert.Equal(t, "draft", m.Value())
}

func TestInputCompletionAndExit(t *testing.T) {
	m := NewInputModel("> ", PlainStyles(), nil, []string{"history", "help", "stats"})

	m.input.SetValue("st")
	m = update(m, key(tea.KeyTab))
	assert.Equal(t, "stats", m.Value())

	m.input.SetValue("h")
	m = update(m, key(tea.KeyTab))
	assert.Equal(t, "h", m.Value(), "ambiguous prefix is left alone")

	m = update(m, key(tea.KeyEnter))
	assert.True(t, m.submitted)
	assert.Empty(t, m.View())

	m = NewInputModel("> ", PlainStyles(), nil, nil)
	m = update(m, key(tea.KeyCtrlD))
	assert.ErrorIs(t, m.err, io.EOF)

	m = NewInputModel("> ", PlainStyles(), nil, nil)
	m = update(m, key(tea.KeyCtrlC))
	assert.ErrorIs(t, m.err, ErrInterrupted)
}

func TestPlainReaderAndConfirm(t *testing.T) {
	var out strings.Builder
	r := NewPlainReader(strings.NewReader("ls -la\r\ny\nno\nlast"), &out)

	line, err := r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, Line{Text: "ls -la"}, line)
	assert.True(t, Confirm(r, "Run: rm x?"))
	assert.False(t, Confirm(r, "Run: rm y?"))

	line, err = r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line.Text)

	_, err = r.ReadLine("> ")
	assert.True(t, errors.Is(err, io.EOF))
	assert.False(t, Confirm(r, "again?"))
	assert.Contains(t, out.String(), "Run: rm x? [y/N] ")
}

func TestPlainReaderVoice(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	voice := make(chan string, 1)
	voice <- "list the files"
	r := NewPlainReader(pr, io.Discard)
	r.SetVoice(voice)

	line, err := r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, Line{Text: "list the files", Voice: true}, line)
}

func TestInputVoiceSubmits(t *testing.T) {
	m := NewInputModel("> ", PlainStyles(), nil, nil)
	m = update(m, voiceMsg("git status"))
	assert.True(t, m.submitted)
	assert.True(t, m.voice)
	assert.Equal(t, "git status", m.Value())
}

func plainRenderer() *Renderer {
	return NewRenderer(config.UIConfig{}, PlainStyles())
}

func TestRenderFailedCommand(t *testing.T) {
	out := plainRenderer().Response(&agent.Response{
		Handler:     router.HandlerShell,
		Command:     "ls missing",
		Output:      "ls: missing: No such file or directory",
		ExitCode:    2,
		Notice:      "file_not_found; ls -la .",
		Suggestions: []string{"ls -la .", "find . -maxdepth 3 -iname '*missing*'"},
	})

	assert.Equal(t, strings.Join([]string{
		"$ ls missing",
		"ls: missing: No such file or directory",
		"✗ exit 2",
		"⚠ file_not_found; ls -la .",
		"💡 Try:",
		"  " + join(DiffCommands("ls missing", "ls -la ."), -1),
		"  find . -maxdepth 3 -iname '*missing*'",
	}, "\n"), out)
}

func TestRenderMarkdownWithoutGlamour(t *testing.T) {
	out := plainRenderer().Response(&agent.Response{
		Handler:  router.HandlerGeneralQuery,
		Output:   "Use this:\n```bash\ndu -sh .\n```",
		Markdown: true,
	})
	assert.Equal(t, "Use this:\n```bash\ndu -sh .\n```", out)
}

func TestRenderMarkdownWithGlamour(t *testing.T) {
	r := NewRenderer(config.UIConfig{Markdown: true}, PlainStyles())
	out := r.Markdown("# Title\n\nSome **bold** text.")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
}

func TestRenderTask(t *testing.T) {
	report := &agent.TaskReport{
		Steps: []agent.StepResult{
			{Step: router.Step{Index: 1, Description: "make dir"}, Command: "mkdir out", State: agent.StepContinue},
			{Step: router.Step{Index: 2, Description: "list"}, Command: "ls nope", State: agent.StepAlternative, ExitCode: 1, Reason: "missing"},
			{Step: router.Step{Index: 3, Description: "done"}, State: agent.StepPending},
		},
		Halted: true,
	}
	out := plainRenderer().Task(report)
	assert.Equal(t, strings.Join([]string{
		"Task: 3 steps, 1 succeeded, 1 failed, 1 not run",
		"✓ 1. make dir (mkdir out)",
		"✗ 2. list (ls nope)",
		"   missing",
		"↷ 3. done",
	}, "\n"), out)

	summary := report.Summary()
	assert.True(t, strings.HasPrefix(summary, report.Headline()))
	for i := range report.Steps {
		assert.Contains(t, summary, report.Steps[i].Label())
	}
	assert.Contains(t, summary, "    missing")
}

func TestHandlerIcon(t *testing.T) {
	assert.Equal(t, "🌿", HandlerIcon(router.HandlerGit))
	assert.Equal(t, "⚙️", HandlerIcon("other"))
}
