package highlight

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter colors shell commands and fenced code in answers.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
	enabled   bool
}

// New creates a Highlighter with a chroma style name such as "monokai" or
// "dracula". An empty style disables highlighting.
func New(style string) *Highlighter {
	if style == "" || style == "none" {
		return &Highlighter{}
	}
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &Highlighter{
		style:     s,
		formatter: formatters.Get("terminal256"),
		enabled:   true,
	}
}

// Enabled reports whether output is colored.
func (h *Highlighter) Enabled() bool {
	return h != nil && h.enabled
}

// Highlight colors code for the given language. Unknown languages are
// analysed by content; any failure returns code unchanged.
func (h *Highlighter) Highlight(code, lang string) string {
	if !h.Enabled() || code == "" {
		return code
	}

	lexer := lexers.Get(Normalize(lang))
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	// Lexers append a newline; drop it but keep the trailing reset codes.
	return trailingNewline.ReplaceAllString(buf.String(), "$1")
}

var trailingNewline = regexp.MustCompile(`\n+((?:\x1b\[[0-9;]*m)*)$`)

// Command colors a single shell command line.
func (h *Highlighter) Command(cmd string) string {
	return h.Highlight(cmd, "bash")
}

var aliases = map[string]string{
	"sh":         "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"console":    "bash",
	"yml":        "yaml",
	"py":         "python",
	"js":         "javascript",
	"ts":         "typescript",
	"golang":     "go",
	"dockerfile": "docker",
	"md":         "markdown",
}

// Normalize maps fence tags to chroma lexer names.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if alias, ok := aliases[lang]; ok {
		return alias
	}
	return lang
}

// CodeBlocks highlights every fenced block in a plain-text answer and leaves
// the fences out. Text outside fences is returned as is.
func (h *Highlighter) CodeBlocks(text string) string {
	if !h.Enabled() || !strings.Contains(text, "```") {
		return text
	}

	var out, block strings.Builder
	lang := ""
	inBlock := false
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && strings.HasPrefix(trimmed, "```"):
			inBlock = true
			lang = strings.TrimPrefix(trimmed, "```")
			block.Reset()
			continue
		case inBlock && trimmed == "```":
			inBlock = false
			out.WriteString(h.Highlight(strings.TrimSuffix(block.String(), "\n"), lang))
		case inBlock:
			block.WriteString(line)
			block.WriteString("\n")
			continue
		default:
			out.WriteString(line)
		}
		if i < len(lines)-1 {
			out.WriteString("\n")
		}
	}
	// Unterminated fence: keep what was collected.
	if inBlock {
		out.WriteString(h.Highlight(strings.TrimSuffix(block.String(), "\n"), lang))
	}
	return out.String()
}
