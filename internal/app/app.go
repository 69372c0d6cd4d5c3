package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"termagent/internal/agent"
	"termagent/internal/config"
	"termagent/internal/history"
	"termagent/internal/logging"
	"termagent/internal/router"
	"termagent/internal/security"
	"termagent/internal/tools"
	"termagent/internal/ui"
	"termagent/internal/voice"
	"termagent/internal/watcher"
)

// App is the interactive assistant: it reads a line, routes it, runs the
// chosen agent and records the outcome.
type App struct {
	cfg *config.Config
	out io.Writer

	router      *router.Router
	agents      *agent.Agents
	hasModels   bool
	noModelNote string

	shell       *tools.Shell
	history     *history.Store
	messages    *history.MessageCache
	executables *tools.ExecutableCache
	pathWatcher *watcher.PathWatcher
	listener    *voice.Listener
	redactor    *security.SecretRedactor
	renderer    *ui.Renderer
	reader      ui.LineReader
	copyFn      func(string) error

	// turnMu serializes turns so only one request is in flight.
	turnMu sync.Mutex
	last   *agent.Response

	closeOnce sync.Once
}

// Run is the read-eval-print loop. It returns nil on quit or end of input.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.reader.ReadLine(a.prompt())
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ui.ErrInterrupted):
			a.println(a.renderer.Info("(type quit to exit)"))
			continue
		case err != nil:
			return err
		}

		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		if handled, quit := a.runBuiltin(ctx, text); quit {
			return nil
		} else if handled {
			continue
		}
		a.turn(ctx, ui.Line{Text: text, Voice: line.Voice})
	}
}

// RunOnce handles a single input, prints the result and returns the exit
// code for the process. Missing credentials are returned as an error.
func (a *App) RunOnce(ctx context.Context, input string) (int, error) {
	resp, err := a.Process(ctx, ui.Line{Text: input})
	if err != nil {
		if errors.Is(err, config.ErrMissingAuth) {
			return 1, err
		}
		a.println(a.renderer.Error(err))
		return 1, nil
	}
	a.println(a.renderer.Response(resp))
	return exitCode(resp), nil
}

// turn runs one line with Ctrl+C cancelling only the turn.
func (a *App) turn(ctx context.Context, line ui.Line) {
	turnCtx, stop := interruptContext(ctx)
	defer stop()

	resp, err := a.Process(turnCtx, line)
	if err != nil {
		a.printError(err)
		return
	}
	a.println(a.renderer.Response(resp))
}

// Process routes one input line, runs the agent and records the outcome in
// the history and the message cache. Secrets are redacted before anything
// is persisted.
func (a *App) Process(ctx context.Context, line ui.Line) (*agent.Response, error) {
	a.turnMu.Lock()
	defer a.turnMu.Unlock()

	input := strings.TrimSpace(line.Text)
	decision := a.router.Route(input)
	if a.cfg.Debug {
		a.println(a.renderer.Decision(decision))
	}

	resp, err := a.agents.Handle(ctx, &agent.Request{
		Input:     input,
		Decision:  decision,
		Recent:    a.messages.Recent(agent.RecentTurns),
		Confirm:   a.confirm,
		NoConfirm: a.cfg.NoConfirm,
		Voice:     line.Voice,
	})

	entry := history.Entry{
		Input:   a.redactor.Redact(input),
		Handler: string(decision.Handler),
	}
	if err != nil {
		entry.ExitCode = -1
		a.record(entry)
		return nil, err
	}

	entry.Command = a.redactor.Redact(resp.Command)
	entry.ExitCode = resp.ExitCode
	entry.Success = !resp.Failed() && resp.ExitCode == 0
	a.record(entry)

	if resp.Output != "" && !resp.Degraded {
		turn := history.Turn{
			Input:    a.redactor.Redact(input),
			Response: a.redactor.Redact(resp.Output),
			Handler:  string(resp.Handler),
			Model:    resp.Model,
		}
		if err := a.messages.Add(turn); err != nil {
			logging.Warn("failed to save message cache", "error", err)
		}
	}
	a.last = resp
	return resp, nil
}

func (a *App) record(e history.Entry) {
	if err := a.history.Add(e); err != nil {
		logging.Warn("failed to save history", "error", err)
	}
}

// confirm asks the user before a generated or risky command runs.
func (a *App) confirm(prompt string) bool {
	return ui.Confirm(a.reader, a.renderer.Styles().Warning.Render("?")+" "+prompt)
}

// prompt shows the session's current directory.
func (a *App) prompt() string {
	return "termagent:" + filepath.Base(a.shell.Session().WorkDir()) + "> "
}

func (a *App) printBanner() {
	a.println(a.renderer.Styles().Header.Render("termagent") + a.renderer.Info(" · type help for builtins, quit to exit"))
	if a.noModelNote != "" {
		a.println(a.renderer.Notice("model-backed features disabled: " + a.noModelNote))
	}
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

// Close stops background work. It is safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.listener.Stop()
		if a.pathWatcher != nil {
			err = a.pathWatcher.Stop()
		}
		logging.Debug("app closed")
	})
	return err
}

// exitCode maps a response to a process exit status.
func exitCode(resp *agent.Response) int {
	switch {
	case resp.ExitCode > 0:
		return resp.ExitCode
	case resp.ExitCode < 0:
		return 1
	}
	return 0
}
