package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"termagent/internal/client"
	"termagent/internal/container"
	"termagent/internal/logging"
)

// AgentKind names the agent that should execute a step.
type AgentKind string

const (
	AgentShell   AgentKind = "shell"
	AgentGit     AgentKind = "git"
	AgentDocker  AgentKind = "docker"
	AgentKubectl AgentKind = "kubectl"
)

// agentFor picks the agent for a step from its text.
func agentFor(text string) AgentKind {
	switch {
	case IsGitRequest(text):
		return AgentGit
	case container.IsDockerRequest(text):
		return AgentDocker
	case container.IsKubectlRequest(text):
		return AgentKubectl
	}
	return AgentShell
}

// Step is one ordered unit of a task plan.
type Step struct {
	Index       int       `json:"step"`
	Description string    `json:"description"`
	Agent       AgentKind `json:"agent"`
	Command     string    `json:"command"`
}

// Plan is an ordered decomposition of a compound instruction.
type Plan struct {
	ID     string
	Input  string
	Steps  []Step
	Source string // "model" or "pattern"
}

var multiStepIndicators = compilePatterns([]string{
	`\bfirst\s+.*?\bthen\b`,
	`\bstep\s+\d+`,
	`\bphase\s+\d+`,
	`\bstage\s+\d+`,
	`\band\s+then\b`,
	`,\s*then\b`,
	`\bafter\s+that\b`,
	`\bafter\s+.*?\bdo\b`,
	`\bbefore\s+.*?\bdo\b`,
	`\bwhile\s+.*?\balso\b`,
	`\balong\s+with\b`,
	`\bin\s+addition\s+to\b`,
	`\bas\s+well\s+as\b`,
})

var (
	stepSplitter   = regexp.MustCompile(`(?i)\s*(?:,\s*and\s+then|\band\s+then|,\s*then|\bthen|\bafter\s+that|\bas\s+well\s+as|\balong\s+with|\bin\s+addition\s+to|;)\s+`)
	numberedStep   = regexp.MustCompile(`(?i)\b(?:step|phase|stage)\s+\d+\s*[:.)-]?\s*`)
	leadingFiller  = regexp.MustCompile(`(?i)^(?:first(?:ly)?|finally|next|and|also)\s*,?\s*`)
	trailingFiller = regexp.MustCompile(`[\s,.]+$`)
)

const decomposePrompt = `You break a terminal task into ordered shell steps.
Respond ONLY with a JSON array in this exact format:
[
  {"step": 1, "description": "what this step does", "agent": "shell|git|docker|kubectl", "command": "the exact command"}
]
Use at most %d steps. Use "git", "docker" or "kubectl" for steps run by those tools and "shell" for everything else.
Use commands that work in a POSIX shell. Do not add explanations.`

// Decomposer turns a compound instruction into a Plan. The model is
// optional; without it, or when its answer is unusable, a pattern-based
// split is used.
type Decomposer struct {
	llm      client.Client
	maxSteps int
}

// NewDecomposer creates a decomposer. llm may be nil.
func NewDecomposer(llm client.Client, maxSteps int) *Decomposer {
	if maxSteps <= 0 {
		maxSteps = 8
	}
	return &Decomposer{llm: llm, maxSteps: maxSteps}
}

// IsMultiStep reports whether text reads as a compound instruction.
func IsMultiStep(text string) bool {
	return matchesAny(text, multiStepIndicators)
}

// Decompose breaks text into steps. contextSummary is optional workspace
// context included in the model prompt.
func (d *Decomposer) Decompose(ctx context.Context, text, contextSummary string) *Plan {
	plan := &Plan{ID: uuid.NewString(), Input: text}

	if d.llm != nil {
		steps, err := d.decomposeWithModel(ctx, text, contextSummary)
		if err == nil && len(steps) > 0 {
			plan.Steps = steps
			plan.Source = "model"
			return plan
		}
		logging.Warn("model decomposition failed, using pattern split", "error", err)
	}

	plan.Steps = SplitSteps(text)
	if len(plan.Steps) > d.maxSteps {
		plan.Steps = plan.Steps[:d.maxSteps]
	}
	plan.Source = "pattern"
	return plan
}

func (d *Decomposer) decomposeWithModel(ctx context.Context, text, contextSummary string) ([]Step, error) {
	user := "Task: " + text
	if contextSummary != "" {
		user += "\n\nWorkspace:\n" + contextSummary
	}

	resp, err := d.llm.Complete(ctx, client.NewRequest(fmt.Sprintf(decomposePrompt, d.maxSteps), user))
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}

	raw := client.ExtractJSON(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON found in model response")
	}

	var steps []Step
	if strings.HasPrefix(raw, "{") {
		var wrapped struct {
			Steps []Step `json:"steps"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse model JSON response: %w", err)
		}
		steps = wrapped.Steps
	} else if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON response: %w", err)
	}

	valid := make([]Step, 0, len(steps))
	for _, s := range steps {
		s.Command = strings.TrimSpace(s.Command)
		s.Description = strings.TrimSpace(s.Description)
		if s.Command == "" && s.Description == "" {
			continue
		}
		switch s.Agent {
		case AgentGit, AgentDocker, AgentKubectl:
		default:
			s.Agent = AgentShell
			for _, kind := range []AgentKind{AgentGit, AgentDocker, AgentKubectl} {
				if strings.HasPrefix(s.Command, string(kind)+" ") {
					s.Agent = kind
				}
			}
		}
		if s.Description == "" {
			s.Description = s.Command
		}
		s.Index = len(valid) + 1
		valid = append(valid, s)
		if len(valid) == d.maxSteps {
			break
		}
	}
	return valid, nil
}

// SplitSteps splits text on sequencing words. Each part becomes a step whose
// Description is the part itself; Command is left for the executing agent
// to resolve unless the part already reads as a command.
func SplitSteps(text string) []Step {
	normalized := numberedStep.ReplaceAllString(text, "; ")
	parts := stepSplitter.Split(normalized, -1)

	steps := make([]Step, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = leadingFiller.ReplaceAllString(part, "")
		part = trailingFiller.ReplaceAllString(part, "")
		if part == "" {
			continue
		}

		steps = append(steps, Step{
			Index:       len(steps) + 1,
			Description: part,
			Agent:       agentFor(part),
		})
	}

	if len(steps) == 0 {
		steps = append(steps, Step{Index: 1, Description: strings.TrimSpace(text), Agent: AgentShell})
	}
	return steps
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
