// Package voice runs an external speech-to-text program in the background
// and feeds its transcripts to the input loop.
package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"termagent/internal/logging"
)

var (
	ErrModelMissing     = errors.New("voice model not found")
	ErrAlreadyListening = errors.New("voice input already active")
	ErrNotConfigured    = errors.New("no voice command configured")
)

// Transcriber produces utterances until its context is cancelled.
type Transcriber interface {
	// Run sends each utterance to out and returns when ctx is done or the
	// source ends.
	Run(ctx context.Context, out chan<- string) error
}

// Listener owns the background listening loop. At most one loop runs at a
// time; Toggle switches it on and off.
type Listener struct {
	modelPath   string
	transcriber Transcriber

	mu      sync.Mutex
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	out chan string
}

// NewListener creates a listener. transcriber may be nil, in which case
// Start fails with ErrNotConfigured.
func NewListener(modelPath string, transcriber Transcriber) *Listener {
	return &Listener{
		modelPath:   modelPath,
		transcriber: transcriber,
		out:         make(chan string, 16),
	}
}

// Transcripts delivers recognized utterances.
func (l *Listener) Transcripts() <-chan string {
	return l.out
}

// Active reports whether the loop is running.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Err returns the error that ended the last loop, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Start begins listening.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return ErrAlreadyListening
	}
	if l.transcriber == nil {
		return ErrNotConfigured
	}
	if info, err := os.Stat(l.modelPath); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrModelMissing, l.modelPath)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.active = true
	l.cancel = cancel
	l.done = make(chan struct{})
	l.lastErr = nil

	go l.loop(loopCtx, l.done)
	logging.Info("voice input started", "model", l.modelPath)
	return nil
}

func (l *Listener) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	err := l.transcriber.Run(ctx, l.out)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	l.mu.Lock()
	if l.done == done {
		l.active = false
		l.lastErr = err
	}
	l.mu.Unlock()

	if err != nil {
		logging.Warn("voice input stopped", "error", err)
	}
}

// Stop ends the loop and waits for it to exit. Stopping an idle listener is
// a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.active = false
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logging.Info("voice input stopped")
}

// Toggle starts the loop when idle and stops it when running. It returns
// whether the listener is now active.
func (l *Listener) Toggle(ctx context.Context) (bool, error) {
	if l.Active() {
		l.Stop()
		return false, nil
	}
	if err := l.Start(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ExecTranscriber runs a shell command and treats each non-empty stdout line
// as an utterance.
type ExecTranscriber struct {
	Command   string
	ModelPath string
}

// Run implements Transcriber.
func (t *ExecTranscriber) Run(ctx context.Context, out chan<- string) error {
	cmd := exec.CommandContext(ctx, "bash", "-c", t.Command)
	cmd.Env = append(os.Environ(), "TERMAGENT_VOICE_MODEL="+t.ModelPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start voice command: %w", err)
	}

	scanErr := forwardLines(ctx, stdout, out)
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return scanErr
	}
	return waitErr
}

func forwardLines(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		select {
		case out <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
