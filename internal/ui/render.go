package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"termagent/internal/agent"
	"termagent/internal/config"
	"termagent/internal/highlight"
	"termagent/internal/logging"
	"termagent/internal/router"
)

const defaultWrap = 100

// Renderer turns agent responses into terminal text.
type Renderer struct {
	styles      *Styles
	markdown    *glamour.TermRenderer
	highlighter *highlight.Highlighter
}

// NewRenderer creates a renderer. Markdown rendering falls back to plain
// text with highlighted code blocks when glamour cannot be initialised.
func NewRenderer(cfg config.UIConfig, styles *Styles) *Renderer {
	r := &Renderer{
		styles:      styles,
		highlighter: highlight.New(cfg.HighlightStyle),
	}
	if cfg.Markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(defaultWrap),
		)
		if err != nil {
			logging.Warn("markdown renderer unavailable", "error", err)
		} else {
			r.markdown = md
		}
	}
	return r
}

// Styles returns the styles in use.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Markdown renders model prose.
func (r *Renderer) Markdown(text string) string {
	if r.markdown != nil {
		out, err := r.markdown.Render(text)
		if err == nil {
			return strings.Trim(out, "\n")
		}
		logging.Debug("markdown render failed", "error", err)
	}
	return r.highlighter.CodeBlocks(text)
}

// Response renders everything a response carries: the command that ran,
// its output, the exit status, notices and suggested alternatives.
func (r *Renderer) Response(resp *agent.Response) string {
	var sb strings.Builder

	if resp.Command != "" && resp.Task == nil {
		sb.WriteString(r.styles.Muted.Render("$ "))
		sb.WriteString(r.styles.Command.Render(r.highlighter.Command(resp.Command)))
		sb.WriteString("\n")
	}

	switch {
	case resp.Markdown:
		sb.WriteString(r.Markdown(resp.Output))
	case resp.Task != nil:
		sb.WriteString(r.Task(resp.Task))
	default:
		// Command output is printed as is; styling would pad multi-line text.
		sb.WriteString(resp.Output)
	}

	if resp.Failed() && resp.Task == nil && resp.ExitCode > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.styles.Error.Render(fmt.Sprintf("%s exit %d", MessageIcons["error"], resp.ExitCode)))
	}
	if resp.Notice != "" {
		sb.WriteString("\n")
		sb.WriteString(r.Notice(resp.Notice))
	}
	if len(resp.Suggestions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.Suggestions(resp.Command, resp.Suggestions))
	}
	return strings.TrimLeft(sb.String(), "\n")
}

// Task renders a task report one step per line.
func (r *Renderer) Task(report *agent.TaskReport) string {
	var sb strings.Builder
	sb.WriteString(r.styles.Header.Render(report.Headline()))

	for i := range report.Steps {
		s := &report.Steps[i]
		icon, style := MessageIcons["success"], r.styles.Success
		switch s.Outcome() {
		case agent.OutcomeSkipped:
			icon, style = MessageIcons["skip"], r.styles.Muted
		case agent.OutcomeFailed:
			icon, style = MessageIcons["error"], r.styles.Error
		}
		sb.WriteString("\n")
		sb.WriteString(style.Render(icon + " " + s.Label()))
		if note := s.Note(); note != "" {
			sb.WriteString("\n   ")
			sb.WriteString(r.styles.Reasoning.Render(note))
		}
	}
	return sb.String()
}

// Suggestions lists alternative commands. The first one is shown as a diff
// against the failed command.
func (r *Renderer) Suggestions(failed string, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(r.styles.Suggestion.Render(MessageIcons["hint"] + " Try:"))
	for i, s := range suggestions {
		sb.WriteString("\n  ")
		if i == 0 && failed != "" {
			sb.WriteString(CommandDiff(failed, s, r.styles))
			continue
		}
		sb.WriteString(r.styles.Command.Render(s))
	}
	return sb.String()
}

// Notice renders a warning line.
func (r *Renderer) Notice(msg string) string {
	return r.styles.Warning.Render(MessageIcons["warning"] + " " + msg)
}

// Error renders an error line.
func (r *Renderer) Error(err error) string {
	return r.styles.Error.Render(MessageIcons["error"] + " " + err.Error())
}

// Info renders a muted informational line.
func (r *Renderer) Info(msg string) string {
	return r.styles.Muted.Render(msg)
}

// Decision renders the routing reasoning shown in debug mode.
func (r *Renderer) Decision(d *router.Decision) string {
	return r.styles.Reasoning.Render(HandlerIcon(d.Handler) + " " + d.FormatReasoning())
}
