package agent

import (
	"context"
	"fmt"
	"strings"

	"termagent/internal/client"
	"termagent/internal/logging"
	"termagent/internal/router"
	"termagent/internal/workspace"
)

const explainPrompt = `You are a terminal assistant answering a question about the user's local environment.
Explain step by step, numbering each step, and give the exact shell commands to run.
Base the answer on the workspace snapshot. Keep it concise.`

// ShellQueryAgent answers questions about the local environment. Complex
// questions get a step-by-step explanation from the heavy model; simple ones
// are answered by running a mapped command.
type ShellQueryAgent struct {
	deps *Deps
}

// NewShellQueryAgent creates the shell-query agent.
func NewShellQueryAgent(deps *Deps) *ShellQueryAgent {
	return &ShellQueryAgent{deps: deps}
}

// Handle implements Handler.
func (a *ShellQueryAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	snap := a.snapshot(ctx)
	if req.Decision.Complex() {
		return a.explain(ctx, req, snap)
	}
	return a.lookup(ctx, req, snap)
}

func (a *ShellQueryAgent) snapshot(ctx context.Context) *workspace.Snapshot {
	if a.deps.Workspace == nil {
		return nil
	}
	snap, err := a.deps.Workspace.Gather(ctx, a.deps.Shell.Session().WorkDir())
	if err != nil {
		logging.Warn("workspace snapshot failed", "error", err)
		return nil
	}
	return snap
}

func (a *ShellQueryAgent) explain(ctx context.Context, req *Request, snap *workspace.Snapshot) (*Response, error) {
	user := "Question: " + req.Input
	if snap != nil {
		user += "\n\nWorkspace snapshot:\n" + a.deps.redact(snap.Format())
	}

	mr, err := a.deps.complete(ctx, tierOf(req.Decision), client.NewRequest(explainPrompt, user))
	if err != nil {
		if ctx.Err() != nil || !a.deps.hasModels() {
			return nil, firstErr(ctx.Err(), err)
		}
		resp := &Response{Output: cannedExplanation(req.Input, snap)}
		degrade(resp, err)
		return resp, nil
	}

	resp := &Response{Output: strings.TrimSpace(mr.Content), Markdown: true}
	applyModel(resp, mr)
	return resp, nil
}

func (a *ShellQueryAgent) lookup(ctx context.Context, req *Request, snap *workspace.Snapshot) (*Response, error) {
	m, ok := MapQuery(req.Input)
	var mr *client.Response
	if !ok {
		var err error
		mr, err = a.deps.complete(ctx, router.TierLight, client.NewRequest(mappingPrompt, req.Input))
		if err == nil {
			m, err = parseMapping(mr.Content)
		}
		if err != nil {
			if ctx.Err() != nil || !a.deps.hasModels() {
				return nil, firstErr(ctx.Err(), err)
			}
			logging.Debug("no command for question", "error", err)
			resp := &Response{Output: cannedLookup(req.Input, snap)}
			degrade(resp, err)
			return resp, nil
		}
	}
	logging.Debug("question mapped to command", "command", m.Command, "type", m.Type, "model", mr != nil)

	resp, res, err := a.deps.execute(ctx, req, m.Command, mr != nil)
	if err != nil {
		return nil, err
	}
	if mr != nil {
		applyModel(resp, mr)
	}
	if res == nil {
		return resp, nil
	}
	if res.Success() {
		resp.Output = FormatResult(m, res.Stdout)
	} else if out := res.Output(); out != "" {
		resp.Output = "The command failed:\n" + out
	} else {
		resp.Output = "The command failed with no output."
	}
	return resp, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// cannedExplanation answers a complex environment question from the snapshot
// alone.
func cannedExplanation(question string, snap *workspace.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("I could not reach a model to explain this in depth. Here is what I can see locally.\n\n")
	if snap != nil {
		sb.WriteString(snap.Format())
		sb.WriteString("\n\n")
	}
	if m, ok := MapQuery(question); ok {
		fmt.Fprintf(&sb, "A command that may help: %s (%s)\n", m.Command, strings.ToLower(m.Description))
	} else {
		sb.WriteString("Commands that usually help: ls -la, git status, tree -L 2\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func cannedLookup(question string, snap *workspace.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I could not turn %q into a command.", question)
	if snap != nil {
		sb.WriteString("\nWorkspace: " + snap.Summary())
	}
	sb.WriteString("\nTry asking about files, git status, processes, docker, or disk usage.")
	return sb.String()
}
