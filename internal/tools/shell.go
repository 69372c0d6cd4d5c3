package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"termagent/internal/config"
	"termagent/internal/logging"
	"termagent/internal/security"
)

// ErrCommandBlocked is returned when the validator refuses a command.
var ErrCommandBlocked = errors.New("command blocked")

// SafeEnvVars is the whitelist of environment variables passed to commands.
// API keys never reach child processes.
var SafeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"LC_CTYPE",
	"TMPDIR",
	"EDITOR",
	"PAGER",
	"XDG_CONFIG_HOME",
	"XDG_DATA_HOME",
	"XDG_CACHE_HOME",
	"XDG_RUNTIME_DIR",
	"GOPATH",
	"GOROOT",
	"NODE_PATH",
	"PYTHONPATH",
	"VIRTUAL_ENV",
	"DOCKER_HOST",
	"KUBECONFIG",
	"GIT_AUTHOR_NAME",
	"GIT_AUTHOR_EMAIL",
	"GIT_COMMITTER_NAME",
	"GIT_COMMITTER_EMAIL",
	"SSH_AUTH_SOCK",
}

const (
	pwdFileEnv = "TERMAGENT_PWD_FILE"
	killGrace  = 3 * time.Second
	// exitTimeout matches coreutils timeout(1).
	exitTimeout = 124
)

// Session keeps the working directory and exported variables between
// commands, so "cd src" followed by "ls" behaves like one shell.
type Session struct {
	mu      sync.Mutex
	workDir string
	prevDir string
	env     map[string]string
}

// NewSession creates a session rooted at workDir.
func NewSession(workDir string) *Session {
	return &Session{workDir: workDir, env: make(map[string]string)}
}

// WorkDir returns the current working directory of the session.
func (s *Session) WorkDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workDir
}

// SetWorkDir changes directory, remembering the previous one for "cd -".
func (s *Session) SetWorkDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == s.workDir {
		return
	}
	s.prevDir = s.workDir
	s.workDir = dir
}

// SetEnv sets a variable for subsequent commands.
func (s *Session) SetEnv(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env[key] = value
}

// Env returns a copy of the session variables.
func (s *Session) Env() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]string, len(s.env))
	for k, v := range s.env {
		cp[k] = v
	}
	return cp
}

func (s *Session) previous() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prevDir
}

// Shell runs commands with bash -c inside a Session.
type Shell struct {
	session   *Session
	validator *security.CommandValidator
	timeout   time.Duration
	maxOutput int
}

// NewShell creates a shell executor. A nil validator uses the default rules.
func NewShell(session *Session, validator *security.CommandValidator, cfg config.ShellConfig) *Shell {
	if validator == nil {
		validator = security.NewCommandValidator(cfg.BlockedCommands...)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultShellTimeout
	}
	return &Shell{
		session:   session,
		validator: validator,
		timeout:   timeout,
		maxOutput: cfg.MaxOutputChars,
	}
}

// Session returns the session the shell runs in.
func (s *Shell) Session() *Session {
	return s.session
}

// Validate checks command without running it.
func (s *Shell) Validate(command string) security.ValidationResult {
	return s.validator.Validate(command)
}

// Run executes command and waits for it. A non-zero exit is reported in the
// Result, not as an error; errors mean the command could not be run at all.
func (s *Shell) Run(ctx context.Context, command string) (*Result, error) {
	command = strings.TrimSpace(command)
	if v := s.validator.Validate(command); !v.Valid {
		logging.Warn("command blocked", "command", command, "reason", v.Reason)
		return nil, fmt.Errorf("%w: %s", ErrCommandBlocked, v.Reason)
	}

	pwdFile, err := os.CreateTemp("", "termagent-pwd-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create pwd file: %w", err)
	}
	pwdPath := pwdFile.Name()
	pwdFile.Close()
	defer os.Remove(pwdPath)

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	workDir := s.session.WorkDir()
	// The trap records where the script ended up, which is how cd inside
	// compound commands carries over to the next command.
	script := `trap 'pwd > "$` + pwdFileEnv + `"' EXIT` + "\n" + command

	cmd := exec.Command("bash", "-c", script)
	cmd.Dir = workDir
	cmd.Env = s.buildEnv(pwdPath)
	setProcAttr(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	done := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-done:
	case <-execCtx.Done():
		killProcessGroup(cmd, killGrace, done)
		<-done
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		timedOut = true
	}

	res := &Result{
		Command:  command,
		WorkDir:  workDir,
		Duration: time.Since(start),
		TimedOut: timedOut,
	}
	res.Stdout, res.Truncated = truncate(stdout.String(), s.maxOutput)
	res.Stderr, _ = truncate(stderr.String(), s.maxOutput)

	switch {
	case timedOut:
		res.ExitCode = exitTimeout
		res.Stderr = strings.TrimSpace(res.Stderr + fmt.Sprintf("\ncommand timed out after %s", s.timeout))
	case waitErr != nil:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("command failed: %w", waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	if !timedOut {
		s.track(command, pwdPath)
	}

	logging.Debug("command finished",
		"command", command,
		"exit_code", res.ExitCode,
		"duration", res.Duration)
	return res, nil
}

var exportAssign = regexp.MustCompile(`^export\s+([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// track updates the session after a command: the final directory from the
// EXIT trap and any single "export K=V".
func (s *Shell) track(command, pwdPath string) {
	if data, err := os.ReadFile(pwdPath); err == nil {
		dir := strings.TrimSpace(string(data))
		if dir != "" && filepath.IsAbs(dir) {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				s.session.SetWorkDir(dir)
			}
		}
	}

	if m := exportAssign.FindStringSubmatch(command); m != nil {
		s.session.SetEnv(m[1], strings.Trim(m[2], `"'`))
	}
}

// buildEnv creates the sanitized environment with session variables injected.
func (s *Shell) buildEnv(pwdPath string) []string {
	vars := make(map[string]string, len(SafeEnvVars)+4)
	for _, key := range SafeEnvVars {
		if val := os.Getenv(key); val != "" {
			vars[key] = val
		}
	}
	if _, ok := vars["PATH"]; !ok {
		vars["PATH"] = "/usr/local/bin:/usr/bin:/bin"
	}
	if _, ok := vars["TERM"]; !ok {
		vars["TERM"] = "xterm-256color"
	}
	for k, v := range s.session.Env() {
		vars[k] = v
	}
	if prev := s.session.previous(); prev != "" {
		vars["OLDPWD"] = prev
	}
	vars[pwdFileEnv] = pwdPath

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	return env
}

// shellOperators lists the constructs that only make sense under a shell.
var shellOperators = []string{"|", ">", "<", ">>", "<<", "&&", "||", ";", "(", ")", "`", "$("}

// HasShellOperators reports whether command uses pipes, redirection, chaining
// or substitution.
func HasShellOperators(command string) bool {
	for _, op := range shellOperators {
		if strings.Contains(command, op) {
			return true
		}
	}
	return false
}
