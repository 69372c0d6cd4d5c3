package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"termagent/internal/client"
	"termagent/internal/container"
	"termagent/internal/git"
	"termagent/internal/logging"
	"termagent/internal/router"
)

// cliTool describes a command-line tool whose requests are rewritten locally
// when possible and converted by the light model otherwise.
type cliTool struct {
	name      string
	prompt    string
	normalize func(string) (string, bool)
	prefix    func(string) string
	examples  []string
}

var (
	gitTool = cliTool{
		name:      "git",
		prompt:    git.ConvertPrompt,
		normalize: git.Normalize,
		prefix:    git.EnsurePrefix,
		examples:  []string{"git status", "git help -g"},
	}
	dockerTool = cliTool{
		name:      "docker",
		prompt:    container.DockerPrompt,
		normalize: container.NormalizeDocker,
		prefix:    func(c string) string { return container.EnsurePrefix(c, "docker") },
		examples:  []string{"docker ps", "docker --help"},
	}
	kubectlTool = cliTool{
		name:      "kubectl",
		prompt:    container.KubectlPrompt,
		normalize: container.NormalizeKubectl,
		prefix:    func(c string) string { return container.EnsurePrefix(c, "kubectl") },
		examples:  []string{"kubectl get pods", "kubectl cluster-info"},
	}
)

// stepTools resolves plan steps addressed to a tool agent.
var stepTools = map[router.AgentKind]cliTool{
	router.AgentGit:     gitTool,
	router.AgentDocker:  dockerTool,
	router.AgentKubectl: kubectlTool,
}

// command resolves text to a command for the tool. The model response is
// nil when the request was rewritten locally.
func (t cliTool) command(ctx context.Context, d *Deps, text string) (string, *client.Response, error) {
	if local, ok := t.normalize(text); ok {
		return local, nil, nil
	}
	mr, err := d.complete(ctx, router.TierLight, client.NewRequest(t.prompt, text))
	if err != nil {
		return "", nil, err
	}
	return t.prefix(cleanCommand(mr.Content)), mr, nil
}

// CLIAgent runs requests for one command-line tool such as git or docker.
type CLIAgent struct {
	deps *Deps
	tool cliTool
}

// NewGitAgent creates the git agent.
func NewGitAgent(deps *Deps) *CLIAgent {
	return &CLIAgent{deps: deps, tool: gitTool}
}

// NewDockerAgent creates the docker agent.
func NewDockerAgent(deps *Deps) *CLIAgent {
	return &CLIAgent{deps: deps, tool: dockerTool}
}

// Handle implements Handler. Common phrasings are rewritten locally; anything
// else is converted by the light model and confirmed before it runs.
func (a *CLIAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	input := strings.TrimSpace(req.Input)

	command, mr, err := a.tool.command(ctx, a.deps, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !a.deps.hasModels() {
			return nil, err
		}
		resp := &Response{
			Output: fmt.Sprintf("Could not interpret that %s request without a model. "+
				"Try a %s command directly, for example: %s", a.tool.name, a.tool.name, a.tool.examples[0]),
			Suggestions: a.tool.examples,
		}
		degrade(resp, err)
		return resp, nil
	}

	if mr == nil {
		typed := strings.EqualFold(command, input)
		resp, _, err := a.deps.execute(ctx, req, command, !typed)
		return resp, err
	}
	resp, _, err := a.deps.execute(ctx, req, command, true)
	if err != nil {
		return nil, err
	}
	applyModel(resp, mr)
	return resp, nil
}

// KubectlAgent runs kubernetes requests. Questions are answered by running
// read-only kubectl commands and showing their output.
type KubectlAgent struct {
	*CLIAgent
}

// NewKubectlAgent creates the kubernetes agent.
func NewKubectlAgent(deps *Deps) *KubectlAgent {
	return &KubectlAgent{CLIAgent: &CLIAgent{deps: deps, tool: kubectlTool}}
}

// Handle implements Handler.
func (a *KubectlAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Decision == nil || !req.Decision.Classification.IsQuery {
		return a.CLIAgent.Handle(ctx, req)
	}

	resp := &Response{}
	commands, mr, err := a.queryCommands(ctx, req)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil && a.deps.hasModels():
		degrade(resp, err)
	case mr != nil:
		applyModel(resp, mr)
	}

	var ran, outputs []string
	for _, cmd := range commands {
		if v := a.deps.Shell.Validate(cmd); !v.Valid {
			logging.Warn("skipping refused query command", "command", cmd, "reason", v.Reason)
			continue
		}
		res, err := a.deps.Shell.Run(ctx, cmd)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn("query command failed to start", "command", cmd, "error", err)
			continue
		}
		ran = append(ran, cmd)
		outputs = append(outputs, strings.TrimRight(res.Output(), "\n"))
		if resp.ExitCode == 0 {
			resp.ExitCode = res.ExitCode
		}
	}

	switch len(ran) {
	case 0:
		resp.Output = "No kubectl command could answer that."
	case 1:
		resp.Command, resp.Output = ran[0], outputs[0]
	default:
		// The renderer shows Command; each section repeats its own command.
		var sb strings.Builder
		for i, cmd := range ran {
			fmt.Fprintf(&sb, "$ %s\n%s\n\n", cmd, outputs[i])
		}
		resp.Command = strings.Join(ran, " ; ")
		resp.Output = strings.TrimRight(sb.String(), "\n")
	}
	return resp, nil
}

// queryCommands asks the model for read-only commands and falls back to a
// keyword table. Commands that could change the cluster are dropped.
func (a *KubectlAgent) queryCommands(ctx context.Context, req *Request) ([]string, *client.Response, error) {
	var (
		mr  *client.Response
		err error
	)
	if a.deps.hasModels() {
		mr, err = a.deps.complete(ctx, tierOf(req.Decision), client.NewRequest(container.KubectlQueryPrompt, req.Input))
		if err == nil {
			var cmds []string
			raw := client.ExtractJSON(mr.Content)
			if raw != "" && json.Unmarshal([]byte(raw), &cmds) == nil {
				var safe []string
				for _, c := range cmds {
					c = strings.TrimSpace(c)
					if container.IsReadOnly(c) {
						safe = append(safe, c)
					}
				}
				if len(safe) > 0 {
					return safe, mr, nil
				}
			}
			logging.Debug("unusable kubectl query answer, using keyword table")
			mr = nil
		}
	}
	return container.QueryCommands(req.Input), mr, err
}
