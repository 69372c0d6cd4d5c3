package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termagent/internal/config"
)

func newTestShell(t *testing.T) (*Shell, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	cfg := config.DefaultConfig().Shell
	cfg.Timeout = 5 * time.Second
	return NewShell(NewSession(dir), nil, cfg), dir
}

func TestShellRunCapturesOutput(t *testing.T) {
	sh, dir := newTestShell(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0644))

	res, err := sh.Run(context.Background(), "ls -1 | wc -l")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "2", res.Output()[len(res.Output())-1:])
	assert.Equal(t, dir, res.WorkDir)
}

func TestShellReportsExitCode(t *testing.T) {
	sh, _ := newTestShell(t)

	res, err := sh.Run(context.Background(), "echo oops >&2; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", res.Output())
	assert.Equal(t, "exited with code 3", res.Summary())
}

func TestShellTracksDirectory(t *testing.T) {
	sh, dir := newTestShell(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0755))

	_, err := sh.Run(context.Background(), "cd src")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), sh.Session().WorkDir())

	res, err := sh.Run(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), res.Output())

	_, err = sh.Run(context.Background(), "cd - > /dev/null")
	require.NoError(t, err)
	assert.Equal(t, dir, sh.Session().WorkDir())

	_, err = sh.Run(context.Background(), "cd src && echo hi")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), sh.Session().WorkDir())

	res, err = sh.Run(context.Background(), "cd does-not-exist")
	require.NoError(t, err)
	assert.NotZero(t, res.ExitCode)
	assert.Equal(t, filepath.Join(dir, "src"), sh.Session().WorkDir())
}

func TestShellTracksExport(t *testing.T) {
	sh, _ := newTestShell(t)

	_, err := sh.Run(context.Background(), "export GREETING=hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", sh.Session().Env()["GREETING"])

	res, err := sh.Run(context.Background(), "echo $GREETING")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Output())
}

func TestShellDoesNotLeakSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	sh, _ := newTestShell(t)

	res, err := sh.Run(context.Background(), "echo \"[$OPENAI_API_KEY]\"")
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Output())
}

func TestShellBlocksDangerousCommands(t *testing.T) {
	sh, _ := newTestShell(t)

	res, err := sh.Run(context.Background(), "rm -rf /")
	assert.ErrorIs(t, err, ErrCommandBlocked)
	assert.Nil(t, res)
}

func TestShellTimeout(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig().Shell
	cfg.Timeout = 200 * time.Millisecond
	sh := NewShell(NewSession(dir), nil, cfg)

	res, err := sh.Run(context.Background(), "sleep 5")
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Success())
	assert.Equal(t, 124, res.ExitCode)
	assert.Less(t, res.Duration, 5*time.Second)
}

func TestShellTruncatesOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig().Shell
	cfg.MaxOutputChars = 10
	sh := NewShell(NewSession(dir), nil, cfg)

	res, err := sh.Run(context.Background(), "printf 'abcdefghijklmnopqrstuvwxyz'")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Contains(t, res.Stdout, "output truncated")
}

func TestHasShellOperators(t *testing.T) {
	assert.True(t, HasShellOperators("ls | wc -l"))
	assert.True(t, HasShellOperators("echo hi > f"))
	assert.True(t, HasShellOperators("make && make install"))
	assert.True(t, HasShellOperators("echo $(date)"))
	assert.False(t, HasShellOperators("ls -la"))
	assert.False(t, HasShellOperators("git status"))
}

func TestExecutableCache(t *testing.T) {
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "mytool"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "notes.txt"), []byte("x"), 0644))

	file := filepath.Join(t.TempDir(), "executables.json")
	cache := NewExecutableCache(file, time.Hour)
	cache.pathEnv = func() string { return bin }

	require.NoError(t, cache.Load())
	assert.True(t, cache.Has("mytool"))
	assert.False(t, cache.Has("notes.txt"))
	assert.FileExists(t, file)

	// A second cache reads the persisted scan without rescanning.
	reloaded := NewExecutableCache(file, time.Hour)
	reloaded.pathEnv = func() string { return bin }
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 1, reloaded.Len())

	require.NoError(t, os.WriteFile(filepath.Join(bin, "newtool"), []byte("#!/bin/sh\n"), 0755))
	assert.False(t, reloaded.Has("newtool"))
	reloaded.Invalidate()
	assert.True(t, reloaded.Has("newtool"))
}

func TestExecutableCacheExpires(t *testing.T) {
	bin := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewExecutableCache("", 24*time.Hour)
	cache.pathEnv = func() string { return bin }
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Refresh())

	require.NoError(t, os.WriteFile(filepath.Join(bin, "late"), []byte("#!/bin/sh\n"), 0755))
	assert.False(t, cache.Has("late"))

	now = now.Add(25 * time.Hour)
	assert.True(t, cache.Has("late"))
}

func TestExecutableCacheRescansOnPathChange(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, "other"), []byte("#!/bin/sh\n"), 0755))

	path := first
	cache := NewExecutableCache("", time.Hour)
	cache.pathEnv = func() string { return path }
	require.NoError(t, cache.Refresh())
	assert.False(t, cache.Has("other"))

	path = first + string(os.PathListSeparator) + second
	assert.True(t, cache.Has("other"))
}

func TestRecognizer(t *testing.T) {
	bin := t.TempDir()
	for _, name := range []string{"compare", "frobnicate"} {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\n"), 0755))
	}
	cache := NewExecutableCache("", time.Hour)
	cache.pathEnv = func() string { return bin }

	r := NewRecognizer(cache)
	assert.True(t, r.IsCommand("ls"))
	assert.True(t, r.IsCommand("git"))
	assert.True(t, r.IsCommand("frobnicate"))
	assert.True(t, r.IsCommand(filepath.Join(bin, "frobnicate")))
	assert.False(t, r.IsCommand("compare"))
	assert.False(t, r.IsCommand("organize"))
	assert.False(t, r.IsCommand(""))

	assert.False(t, NewRecognizer(nil).IsCommand("frobnicate"))
}

func TestFileCommand(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"move notes.txt to archive/", "mv notes.txt archive/", true},
		{"rename the file old name.txt to new.txt", "mv 'old name.txt' new.txt", true},
		{"copy the directory src into backup", "cp -r src backup", true},
		{"copy report.pdf to ~/Desktop", "cp report.pdf ~/Desktop", true},
		{"delete the folder build", "rm -r build", true},
		{"remove file 'a b.log'", "rm 'a b.log'", true},
		{"create a new file called todo.md", "touch todo.md", true},
		{"make a directory named out", "mkdir -p out", true},
		{"where am I", "pwd", true},
		{"move a to b && ls", "", false},
		{"mv a b", "", false},
		{"make build", "", false},
	}
	for _, tt := range tests {
		got, ok := FileCommand(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "file.txt", Quote("file.txt"))
	assert.Equal(t, "'*.go'", Quote("*.go"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
	assert.Equal(t, "''", Quote(""))
}
