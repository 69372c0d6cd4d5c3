package agent

import (
	"context"
	"strings"

	"termagent/internal/client"
	"termagent/internal/logging"
	"termagent/internal/router"
	"termagent/internal/tools"
)

const translatePrompt = `You convert a request into a single POSIX shell command for bash.
Return only the command on one line, with no explanation and no markdown.
If the request cannot be done safely in one command, return the safest command that inspects the situation instead.`

// ShellAgent runs commands in the persistent shell session. Plain file
// requests are rewritten locally; other input that does not start with a
// runnable word is translated by the light model first.
type ShellAgent struct {
	deps *Deps
}

// NewShellAgent creates the shell agent.
func NewShellAgent(deps *Deps) *ShellAgent {
	return &ShellAgent{deps: deps}
}

// Handle implements Handler.
func (a *ShellAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	command := strings.TrimSpace(req.Input)
	if local, ok := tools.FileCommand(command); ok {
		resp, _, err := a.deps.execute(ctx, req, local, true)
		return resp, err
	}
	if !a.needsTranslation(command) {
		resp, _, err := a.deps.execute(ctx, req, command, false)
		return resp, err
	}

	translated, mr, err := a.translate(ctx, command)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || translated == "" {
		logging.Debug("translation unavailable, running input as typed", "error", err)
		resp, _, err := a.deps.execute(ctx, req, command, false)
		return resp, err
	}

	resp, _, err := a.deps.execute(ctx, req, translated, true)
	if err != nil {
		return nil, err
	}
	applyModel(resp, mr)
	return resp, nil
}

func (a *ShellAgent) needsTranslation(command string) bool {
	if !a.deps.hasModels() || a.deps.Recognizer == nil || tools.HasShellOperators(command) {
		return false
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	// Assignments and paths are shell syntax already.
	if strings.Contains(fields[0], "=") || strings.HasPrefix(fields[0], ".") || strings.HasPrefix(fields[0], "~") {
		return false
	}
	return !a.deps.Recognizer.IsCommand(fields[0])
}

func (a *ShellAgent) translate(ctx context.Context, text string) (string, *client.Response, error) {
	cwd := a.deps.Shell.Session().WorkDir()
	req := client.NewRequest(translatePrompt, "Current directory: "+cwd+"\nRequest: "+text)
	mr, err := a.deps.complete(ctx, router.TierLight, req)
	if err != nil {
		return "", nil, err
	}
	return cleanCommand(mr.Content), mr, nil
}
