package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureFiltersByLevel(t *testing.T) {
	t.Cleanup(DisableLogging)

	var buf bytes.Buffer
	Configure(LevelWarn, &buf)

	Info("dropped")
	Warn("kept", "key", "value")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestEnableDebugWritesText(t *testing.T) {
	t.Cleanup(DisableLogging)

	var buf bytes.Buffer
	EnableDebug(&buf)
	Debug("routing", "handler", "git")

	assert.Contains(t, buf.String(), "msg=routing")
	assert.Contains(t, buf.String(), "handler=git")
}

func TestEnableFileLogging(t *testing.T) {
	t.Cleanup(DisableLogging)

	dir := t.TempDir()
	require.NoError(t, EnableFileLogging(dir, LevelInfo))
	Info("hello")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, "termagent.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetSessionTagsRecords(t *testing.T) {
	t.Cleanup(DisableLogging)

	var buf bytes.Buffer
	Configure(LevelInfo, &buf)
	SetSession("abc123")
	Info("turn")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "abc123", entry["session"])
}
