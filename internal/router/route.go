package router

import (
	"regexp"
	"strings"

	"termagent/internal/config"
	"termagent/internal/container"
	"termagent/internal/logging"
)

// HandlerType identifies the agent a request is routed to.
type HandlerType string

const (
	HandlerShell        HandlerType = "shell"
	HandlerGit          HandlerType = "git"
	HandlerDocker       HandlerType = "docker"
	HandlerKubectl      HandlerType = "kubectl"
	HandlerTask         HandlerType = "task"
	HandlerShellQuery   HandlerType = "shell_query"
	HandlerGeneralQuery HandlerType = "general_query"
)

// Decision is the routing outcome for one input line. Classification always
// precedes analysis, and analysis precedes model selection; Analysis and
// Selection are nil for non-query input.
type Decision struct {
	Input          string
	Handler        HandlerType
	Classification Classification
	Analysis       *Analysis
	Selection      *Selection
	Reason         string
}

// Complex reports whether the heavyweight model was selected.
func (d *Decision) Complex() bool {
	return d.Selection != nil && d.Selection.ShouldUseGPT4o
}

var gitSubcommands = map[string]bool{
	"status": true, "add": true, "commit": true, "push": true, "pull": true,
	"fetch": true, "merge": true, "rebase": true, "checkout": true, "switch": true,
	"branch": true, "log": true, "diff": true, "stash": true, "tag": true,
	"remote": true, "clone": true, "init": true, "reset": true, "restore": true,
	"cherry-pick": true, "blame": true, "show": true,
}

var gitPhrases = regexp.MustCompile(`(?i)\b(git|commit( and push)?|push( to)? (origin|remote|upstream)|pull( from)? (origin|remote|upstream)|(create|switch|delete|new) (a )?branch|merge (branch|into)|stash (my )?changes|undo (the )?last commit|staged? (files|changes))\b`)

// IsGitRequest reports whether text is a git command or a natural-language
// request about git.
func IsGitRequest(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return false
	}
	if fields[0] == "git" {
		return true
	}
	// A bare subcommand such as "status" or "push", alone or with short args.
	// "show" and "log" are excluded when alone because they are common words.
	if gitSubcommands[fields[0]] && len(fields) == 1 && fields[0] != "show" && fields[0] != "log" {
		return true
	}
	return gitPhrases.MatchString(lower)
}

// Router sends each input line to one handler.
type Router struct {
	detector *Detector
	analyzer *ComplexityAnalyzer
	selector *ModelSelector
}

// New creates a Router from the router policy and model names in cfg.
func New(cfg *config.Config, recognizer CommandRecognizer) *Router {
	return &Router{
		detector: NewDetector(recognizer, cfg.Router.LongInputWords),
		analyzer: NewComplexityAnalyzer(WeightsFromConfig(cfg.Router.Weights), cfg.Router.TwoStepScore, cfg.Router.ThreeStepScore),
		selector: NewModelSelector(PolicyFromConfig(cfg.Router), cfg.OpenAI.HeavyModel, cfg.OpenAI.LightModel),
	}
}

// Selector exposes the model selector so handlers can resolve tiers.
func (r *Router) Selector() *ModelSelector {
	return r.selector
}

// Route classifies text and picks a handler.
func (r *Router) Route(text string) *Decision {
	d := &Decision{Input: strings.TrimSpace(text)}
	d.Classification = r.detector.Detect(d.Input)

	switch {
	case d.Classification.IsQuery:
		analysis := r.analyzer.Analyze(d.Input)
		selection := r.selector.Select(analysis)
		d.Analysis = &analysis
		d.Selection = &selection
		switch {
		case container.IsKubectlRequest(d.Input):
			d.Handler = HandlerKubectl
		case d.Classification.Type == QueryShell:
			d.Handler = HandlerShellQuery
		default:
			d.Handler = HandlerGeneralQuery
		}
		d.Reason = "query (" + d.Classification.Indicator + ")"
	case IsMultiStep(d.Input):
		d.Handler = HandlerTask
		d.Reason = "multi-step instruction"
	case IsGitRequest(d.Input):
		d.Handler = HandlerGit
		d.Reason = "git request"
	case container.IsDockerRequest(d.Input) && !r.runsOther(d.Input, "docker"):
		d.Handler = HandlerDocker
		d.Reason = "docker request"
	case container.IsKubectlRequest(d.Input) && !r.runsOther(d.Input, "kubectl"):
		d.Handler = HandlerKubectl
		d.Reason = "kubernetes request"
	default:
		d.Handler = HandlerShell
		d.Reason = "command"
	}

	logging.Debug("routed input",
		"handler", d.Handler,
		"reason", d.Reason,
		"complex", d.Complex())
	return d
}

// runsOther reports whether text starts with a runnable word other than tool,
// as in "ls containers/".
func (r *Router) runsOther(text, tool string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 || strings.EqualFold(fields[0], tool) {
		return false
	}
	return r.detector.isCommand(fields[0])
}
