package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"termagent/internal/client"
	"termagent/internal/logging"
	"termagent/internal/router"
	"termagent/internal/security"
	"termagent/internal/tools"
)

// StepState is the lifecycle of one task step.
type StepState string

const (
	StepPending     StepState = "pending"
	StepRunning     StepState = "running"
	StepReflecting  StepState = "reflecting"
	StepContinue    StepState = "continue"
	StepStop        StepState = "stop"
	StepAlternative StepState = "alternative_suggested"
)

// stepTransitions lists the legal moves between step states.
var stepTransitions = map[StepState][]StepState{
	StepPending:    {StepRunning},
	StepRunning:    {StepReflecting, StepStop},
	StepReflecting: {StepContinue, StepStop, StepAlternative},
}

// StepResult records one executed step.
type StepResult struct {
	Step         router.Step
	Command      string
	State        StepState
	ExitCode     int
	Output       string
	Reason       string
	Alternatives []string
	Interrupted  bool
}

// advance moves the step to next, refusing illegal transitions.
func (s *StepResult) advance(next StepState) bool {
	for _, allowed := range stepTransitions[s.State] {
		if allowed == next {
			s.State = next
			return true
		}
	}
	logging.Error("illegal step transition", "step", s.Step.Index, "from", s.State, "to", next)
	return false
}

// TaskReport is the outcome of a multi-step task.
type TaskReport struct {
	Plan   *router.Plan
	Steps  []StepResult
	Halted bool
}

// Outcome is how a step ended, as shown in reports.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// Outcome classifies the step. Steps that never ran or were interrupted
// count as skipped.
func (s *StepResult) Outcome() Outcome {
	switch {
	case s.State == StepPending || s.Interrupted:
		return OutcomeSkipped
	case s.State == StepAlternative || s.ExitCode != 0:
		return OutcomeFailed
	case s.State == StepContinue || s.State == StepStop:
		return OutcomeSucceeded
	}
	return OutcomeSkipped
}

// Label is the one-line description of the step, with its command when the
// command differs from the description.
func (s *StepResult) Label() string {
	label := fmt.Sprintf("%d. %s", s.Step.Index, s.Step.Description)
	if s.Command != "" && s.Command != s.Step.Description {
		label += " (" + s.Command + ")"
	}
	return label
}

// Note is the reflection reason worth showing, empty for steps that simply
// continued.
func (s *StepResult) Note() string {
	if s.State == StepContinue {
		return ""
	}
	return s.Reason
}

// Counts returns how many steps succeeded, failed and never ran.
func (r *TaskReport) Counts() (succeeded, failed, skipped int) {
	for i := range r.Steps {
		switch r.Steps[i].Outcome() {
		case OutcomeSucceeded:
			succeeded++
		case OutcomeFailed:
			failed++
		default:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Headline summarizes the step counts.
func (r *TaskReport) Headline() string {
	ok, failed, skipped := r.Counts()
	line := fmt.Sprintf("Task: %d steps, %d succeeded, %d failed", len(r.Steps), ok, failed)
	if skipped > 0 {
		line += fmt.Sprintf(", %d not run", skipped)
	}
	return line
}

// Suggestions collects the alternatives proposed for failed steps.
func (r *TaskReport) Suggestions() []string {
	var out []string
	for _, s := range r.Steps {
		out = append(out, s.Alternatives...)
	}
	return out
}

var summaryMarks = map[Outcome]string{
	OutcomeSkipped:   "-",
	OutcomeSucceeded: "✓",
	OutcomeFailed:    "✗",
}

// Summary is the plain-text report kept in the conversation cache.
func (r *TaskReport) Summary() string {
	var sb strings.Builder
	sb.WriteString(r.Headline())
	for i := range r.Steps {
		s := &r.Steps[i]
		sb.WriteString("\n" + summaryMarks[s.Outcome()] + " " + s.Label())
		if note := s.Note(); note != "" {
			sb.WriteString("\n    " + note)
		}
	}
	if suggestions := r.Suggestions(); len(suggestions) > 0 {
		sb.WriteString("\nSuggested alternatives:")
		for _, alt := range suggestions {
			sb.WriteString("\n  " + alt)
		}
	}
	return sb.String()
}

const reflectPrompt = `You review the result of one step in a multi-step terminal task.
Respond ONLY with JSON:
{"decision": "continue|stop|alternative", "reason": "one sentence", "alternatives": ["command", "..."]}
Use "stop" when the remaining steps should not run. When the step failed, always give at least one alternative command.`

type reflectionAnswer struct {
	Decision     string   `json:"decision"`
	Reason       string   `json:"reason"`
	Alternatives []string `json:"alternatives"`
}

// maxReflectOutput bounds the command output sent for reflection.
const maxReflectOutput = 2000

// TaskAgent decomposes compound instructions and runs them step by step,
// reflecting after every step.
type TaskAgent struct {
	deps *Deps
}

// NewTaskAgent creates the task agent.
func NewTaskAgent(deps *Deps) *TaskAgent {
	return &TaskAgent{deps: deps}
}

// Handle implements Handler.
func (a *TaskAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	var summary string
	if a.deps.Workspace != nil {
		if snap, err := a.deps.Workspace.Gather(ctx, a.deps.Shell.Session().WorkDir()); err == nil {
			summary = snap.Summary()
		}
	}

	decomposer := a.deps.Decomposer
	if decomposer == nil {
		decomposer = router.NewDecomposer(nil, 0)
	}
	plan := decomposer.Decompose(ctx, req.Input, summary)
	logging.Debug("task decomposed", "plan", plan.ID, "steps", len(plan.Steps), "source", plan.Source)

	report := &TaskReport{Plan: plan}
	for _, step := range plan.Steps {
		cmd, err := a.resolve(ctx, step)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Steps = append(report.Steps, StepResult{Step: step, Command: cmd, State: StepPending})
	}

	if !req.confirm(a.planPrompt(report)) {
		return &Response{Output: "Cancelled."}, nil
	}

	resp := &Response{Task: report}
	for i := range report.Steps {
		sr := &report.Steps[i]
		a.runStep(ctx, sr)
		if sr.Command != "" {
			resp.Command = sr.Command
			resp.ExitCode = sr.ExitCode
		}
		if sr.State != StepContinue {
			report.Halted = i < len(report.Steps)-1
			break
		}
	}

	if ctx.Err() != nil {
		resp.Notice = "task interrupted"
	}
	resp.Output = report.Summary()
	resp.Suggestions = report.Suggestions()
	return resp, nil
}

// planPrompt lists the commands for one confirmation, with the validator's
// reason next to any command that is risky or refused.
func (a *TaskAgent) planPrompt(r *TaskReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %d steps?\n", len(r.Steps))
	for _, s := range r.Steps {
		cmd := s.Command
		if cmd == "" {
			cmd = "(no command found)"
		} else {
			switch v := a.deps.Shell.Validate(cmd); {
			case !v.Valid:
				cmd += " (blocked: " + v.Reason + ")"
			case v.Level == security.LevelCaution:
				cmd += " (caution: " + v.Reason + ")"
			}
		}
		fmt.Fprintf(&sb, "  %d. %s\n", s.Step.Index, cmd)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// resolve finds the command for a step that the plan left as prose.
func (a *TaskAgent) resolve(ctx context.Context, step router.Step) (string, error) {
	if step.Command != "" {
		return step.Command, nil
	}
	desc := strings.TrimSpace(step.Description)

	if tool, ok := stepTools[step.Agent]; ok {
		cmd, _, err := tool.command(ctx, a.deps, desc)
		return cmd, err
	}

	fields := strings.Fields(desc)
	if len(fields) > 0 && (tools.HasShellOperators(desc) ||
		(a.deps.Recognizer != nil && a.deps.Recognizer.IsCommand(fields[0]))) {
		return desc, nil
	}
	mr, err := a.deps.complete(ctx, router.TierLight, client.NewRequest(translatePrompt, desc))
	if err != nil {
		return "", err
	}
	return cleanCommand(mr.Content), nil
}

// runStep drives one step through Running and Reflecting to its outcome.
func (a *TaskAgent) runStep(ctx context.Context, sr *StepResult) {
	sr.advance(StepRunning)

	if sr.Command == "" {
		sr.ExitCode = -1
		sr.Output = "no command could be found for this step"
		sr.advance(StepReflecting)
		a.reflect(ctx, sr)
		return
	}

	res, err := a.deps.Shell.Run(ctx, sr.Command)
	if err != nil {
		if ctx.Err() != nil {
			sr.Reason = "interrupted"
			sr.Interrupted = true
			sr.advance(StepStop)
			return
		}
		sr.ExitCode = -1
		sr.Output = err.Error()
	} else {
		sr.ExitCode = res.ExitCode
		sr.Output = res.Output()
	}

	sr.advance(StepReflecting)
	a.reflect(ctx, sr)
}

// reflect decides the step outcome. A failed step always ends in
// StepAlternative with at least one alternative command.
func (a *TaskAgent) reflect(ctx context.Context, sr *StepResult) {
	failed := sr.ExitCode != 0
	answer := a.askReflection(ctx, sr)

	if failed {
		local := a.deps.Reflector.Analyze(sr.Command, sr.Output, sr.ExitCode)
		sr.Reason = local.Suggestion
		var alts []string
		if answer != nil {
			alts = append(alts, answer.Alternatives...)
			if answer.Reason != "" {
				sr.Reason = answer.Reason
			}
		}
		alts = append(alts, local.Alternatives...)
		sr.Alternatives = finalizeAlternatives(alts, sr.Command, local.ShouldRetry, parseCommand(sr.Command))
		sr.advance(StepAlternative)
		return
	}

	if answer != nil && answer.Decision == "stop" {
		sr.Reason = answer.Reason
		if sr.Reason == "" {
			sr.Reason = "stopped after review"
		}
		sr.advance(StepStop)
		return
	}
	sr.advance(StepContinue)
}

// askReflection consults the light model. It returns nil when no model is
// available or its answer is unusable.
func (a *TaskAgent) askReflection(ctx context.Context, sr *StepResult) *reflectionAnswer {
	if !a.deps.hasModels() {
		return nil
	}
	out := sr.Output
	if len(out) > maxReflectOutput {
		out = out[len(out)-maxReflectOutput:]
	}
	user := fmt.Sprintf("Step %d: %s\nCommand: %s\nExit code: %d\nOutput:\n%s",
		sr.Step.Index, sr.Step.Description, sr.Command, sr.ExitCode, a.deps.redact(out))

	mr, err := a.deps.complete(ctx, router.TierLight, client.NewRequest(reflectPrompt, user))
	if err != nil {
		return nil
	}
	raw := client.ExtractJSON(mr.Content)
	var answer reflectionAnswer
	if raw == "" || json.Unmarshal([]byte(raw), &answer) != nil {
		logging.Debug("unusable reflection answer", "step", sr.Step.Index)
		return nil
	}
	answer.Decision = strings.ToLower(strings.TrimSpace(answer.Decision))
	return &answer
}
