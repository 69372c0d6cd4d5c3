package ui

import (
	"github.com/charmbracelet/lipgloss"

	"termagent/internal/router"
)

// Colors for the terminal theme.
var (
	ColorPrimary   = lipgloss.Color("#A78BFA") // Lavender
	ColorSecondary = lipgloss.Color("#22D3EE") // Cyan
	ColorSuccess   = lipgloss.Color("#059669")
	ColorWarning   = lipgloss.Color("#D97706")
	ColorError     = lipgloss.Color("#DC2626")
	ColorMuted     = lipgloss.Color("#9CA3AF")
	ColorDim       = lipgloss.Color("#6B7280")
	ColorInfo      = lipgloss.Color("#2DD4BF")

	// Diff colors
	ColorAddedBg   = lipgloss.Color("#064E3B")
	ColorAddedFg   = lipgloss.Color("#6EE7B7")
	ColorRemovedBg = lipgloss.Color("#7F1D1D")
	ColorRemovedFg = lipgloss.Color("#FCA5A5")
)

// MessageIcons provides consistent icons for message kinds.
var MessageIcons = map[string]string{
	"success": "✓",
	"error":   "✗",
	"warning": "⚠",
	"info":    "ℹ",
	"hint":    "💡",
	"pending": "○",
	"active":  "●",
	"skip":    "↷",
}

// HandlerIcons marks which agent produced a response.
var HandlerIcons = map[router.HandlerType]string{
	router.HandlerShell:        "💻",
	router.HandlerGit:          "🌿",
	router.HandlerDocker:       "🐳",
	router.HandlerKubectl:      "☸️",
	router.HandlerTask:         "📋",
	router.HandlerShellQuery:   "🔍",
	router.HandlerGeneralQuery: "🤔",
}

// HandlerIcon returns the icon for a handler, or a gear for unknown ones.
func HandlerIcon(h router.HandlerType) string {
	if icon, ok := HandlerIcons[h]; ok {
		return icon
	}
	return "⚙️"
}

// Styles contains all UI styles.
type Styles struct {
	Prompt     lipgloss.Style
	Command    lipgloss.Style
	Header     lipgloss.Style
	Muted      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	Suggestion lipgloss.Style
	Added      lipgloss.Style
	Removed    lipgloss.Style
	Reasoning  lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() *Styles {
	return &Styles{
		Prompt:     lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Command:    lipgloss.NewStyle().Foreground(ColorSecondary),
		Header:     lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(ColorMuted),
		Success:    lipgloss.NewStyle().Foreground(ColorSuccess),
		Warning:    lipgloss.NewStyle().Foreground(ColorWarning),
		Error:      lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Suggestion: lipgloss.NewStyle().Foreground(ColorInfo),
		Added:      lipgloss.NewStyle().Background(ColorAddedBg).Foreground(ColorAddedFg),
		Removed:    lipgloss.NewStyle().Background(ColorRemovedBg).Foreground(ColorRemovedFg).Strikethrough(true),
		Reasoning:  lipgloss.NewStyle().Foreground(ColorDim).Italic(true),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Prompt: plain, Command: plain, Header: plain,
		Muted: plain, Success: plain, Warning: plain, Error: plain,
		Suggestion: plain, Added: plain, Removed: plain, Reasoning: plain,
	}
}
