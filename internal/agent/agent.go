package agent

import (
	"context"
	"fmt"
	"strings"

	"termagent/internal/client"
	"termagent/internal/config"
	"termagent/internal/logging"
	"termagent/internal/router"
)

// Agents dispatches a routed request to the agent for its handler type.
type Agents struct {
	deps     *Deps
	handlers map[router.HandlerType]Handler
}

// New wires one agent per handler type.
func New(deps *Deps) *Agents {
	if deps.Reflector == nil {
		deps.Reflector = NewReflector()
	}
	return &Agents{
		deps: deps,
		handlers: map[router.HandlerType]Handler{
			router.HandlerShell:        NewShellAgent(deps),
			router.HandlerGit:          NewGitAgent(deps),
			router.HandlerDocker:       NewDockerAgent(deps),
			router.HandlerKubectl:      NewKubectlAgent(deps),
			router.HandlerTask:         NewTaskAgent(deps),
			router.HandlerShellQuery:   NewShellQueryAgent(deps),
			router.HandlerGeneralQuery: NewGeneralQueryAgent(deps),
		},
	}
}

// Handle runs the agent chosen by req.Decision.
func (a *Agents) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Decision == nil {
		return nil, fmt.Errorf("request has no routing decision")
	}
	h, ok := a.handlers[req.Decision.Handler]
	if !ok {
		logging.Warn("no agent for handler, using shell", "handler", req.Decision.Handler)
		h = a.handlers[router.HandlerShell]
	}
	if req.Input == "" {
		req.Input = req.Decision.Input
	}

	resp, err := h.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Handler = req.Decision.Handler
	logging.Debug("agent finished",
		"handler", resp.Handler,
		"command", resp.Command,
		"exit_code", resp.ExitCode,
		"model", resp.Model,
		"degraded", resp.Degraded)
	return resp, nil
}

// tierOf returns the model tier selected for a decision, light by default.
func tierOf(d *router.Decision) router.ModelTier {
	if d != nil && d.Selection != nil && d.Selection.Tier != "" {
		return d.Selection.Tier
	}
	return router.TierLight
}

// complete sends req down the chain for tier. The heavy chain already
// degrades to the light model and the local backends.
func (d *Deps) complete(ctx context.Context, tier router.ModelTier, req *client.Request) (*client.Response, error) {
	if d.Models == nil {
		return nil, config.ErrMissingAuth
	}
	c := d.Models.Light
	if tier == router.TierHeavy && d.Models.Heavy != nil {
		c = d.Models.Heavy
	}
	if c == nil {
		return nil, client.ErrNoBackend
	}

	resp, err := c.Complete(ctx, req)
	if err != nil {
		logging.Warn("model request failed", "tier", tier, "backend", c.Name(), "error", err)
		return nil, err
	}
	logging.Debug("model answered",
		"tier", tier,
		"backend", resp.Backend,
		"model", resp.Model,
		"degraded", resp.Degraded,
		"tokens", resp.Usage.TotalTokens)
	return resp, nil
}

func (d *Deps) hasModels() bool {
	return d.Models != nil
}

// redact masks secrets in text that is about to leave the machine.
func (d *Deps) redact(text string) string {
	if d.Redactor == nil {
		return text
	}
	return d.Redactor.Redact(text)
}

// applyModel copies model metadata onto resp.
func applyModel(resp *Response, mr *client.Response) {
	resp.Model = mr.Model
	if mr.Degraded {
		resp.Degraded = true
		resp.Notice = fmt.Sprintf("preferred model unavailable; answered by %s", mr.Backend)
	}
}

// degrade marks resp as a reduced answer after a model failure.
func degrade(resp *Response, err error) {
	resp.Degraded = true
	if client.IsQuotaError(err) {
		resp.Notice = "model quota exceeded; showing a reduced answer"
		return
	}
	resp.Notice = "model unavailable; showing a reduced answer"
}

// cleanCommand strips markdown fences and prompts from a one-line model answer.
func cleanCommand(answer string) string {
	answer = strings.TrimSpace(answer)
	if strings.HasPrefix(answer, "```") {
		lines := strings.Split(answer, "\n")
		var body []string
		for _, l := range lines[1:] {
			if strings.HasPrefix(strings.TrimSpace(l), "```") {
				break
			}
			body = append(body, l)
		}
		answer = strings.Join(body, "\n")
	}
	answer = strings.TrimSpace(answer)
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = answer[:i]
	}
	answer = strings.Trim(answer, "`")
	answer = strings.TrimPrefix(answer, "$ ")
	return strings.TrimSpace(answer)
}
