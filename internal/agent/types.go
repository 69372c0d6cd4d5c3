package agent

import (
	"context"

	"termagent/internal/client"
	"termagent/internal/history"
	"termagent/internal/router"
	"termagent/internal/security"
	"termagent/internal/tools"
	"termagent/internal/workspace"
)

// Handler is implemented by every agent. One request is handled at a time.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// ConfirmFunc asks the user to approve an action. It returns true to proceed.
type ConfirmFunc func(prompt string) bool

// Request is one user turn. Session state travels here explicitly.
type Request struct {
	Input    string
	Decision *router.Decision

	// Recent conversation turns, oldest first.
	Recent []history.Turn

	Confirm   ConfirmFunc
	NoConfirm bool
	Voice     bool // input came from the voice listener
}

// Response is what an agent hands back to the REPL.
type Response struct {
	Handler  router.HandlerType
	Output   string
	Markdown bool // Output is model prose and may be rendered as markdown

	Command  string
	ExitCode int

	Model    string
	Degraded bool
	Notice   string

	// Suggestions are alternative commands after a failure.
	Suggestions []string

	// Task is set for multi-step tasks.
	Task *TaskReport
}

// Failed reports whether the command behind the response exited non-zero.
func (r *Response) Failed() bool {
	return r.Command != "" && r.ExitCode != 0
}

// confirm asks only when confirmation is enabled and a prompt is available.
func (r *Request) confirm(prompt string) bool {
	if r.NoConfirm || r.Confirm == nil {
		return true
	}
	return r.Confirm(prompt)
}

// Deps are the collaborators shared by the agents.
type Deps struct {
	Models     *client.Tiered // nil when no backend is configured
	Shell      *tools.Shell
	Workspace  *workspace.Gatherer
	Recognizer router.CommandRecognizer
	Decomposer *router.Decomposer
	Redactor   *security.SecretRedactor
	Reflector  *Reflector
}
