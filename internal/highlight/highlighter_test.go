package highlight

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestDisabledHighlighterPassesThrough(t *testing.T) {
	h := New("")
	assert.False(t, h.Enabled())
	assert.Equal(t, "ls -la | wc -l", h.Command("ls -la | wc -l"))
	assert.Equal(t, "```bash\nls\n```", h.CodeBlocks("```bash\nls\n```"))
}

func TestCommandIsColored(t *testing.T) {
	h := New("monokai")
	out := h.Command("echo hello | grep h")
	assert.Contains(t, out, "\x1b[")
	assert.Equal(t, "echo hello | grep h", ansi.ReplaceAllString(out, ""))
}

func TestCodeBlocksDropFences(t *testing.T) {
	h := New("monokai")
	out := ansi.ReplaceAllString(h.CodeBlocks("Run this:\n```sh\ndu -sh .\n```\nDone."), "")
	assert.Equal(t, "Run this:\ndu -sh .\nDone.", out)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "bash", Normalize(" Shell "))
	assert.Equal(t, "yaml", Normalize("yml"))
	assert.Equal(t, "rust", Normalize("rust"))
}
