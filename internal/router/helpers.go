package router

import (
	"fmt"
	"strings"
)

// String returns string representation
func (h HandlerType) String() string {
	return string(h)
}

// GetDescription returns a human-readable description
func (h HandlerType) GetDescription() string {
	switch h {
	case HandlerShell:
		return "Shell command"
	case HandlerGit:
		return "Git agent"
	case HandlerDocker:
		return "Docker agent"
	case HandlerKubectl:
		return "Kubernetes agent"
	case HandlerTask:
		return "Multi-step task"
	case HandlerShellQuery:
		return "Question about the local environment"
	case HandlerGeneralQuery:
		return "General question"
	default:
		return "Unknown handler"
	}
}

// FormatReasoning renders a decision for --debug output and the classify
// command.
func (d *Decision) FormatReasoning() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "handler:   %s (%s)\n", d.Handler, d.Handler.GetDescription())
	fmt.Fprintf(&sb, "query:     %t", d.Classification.IsQuery)
	if d.Classification.IsQuery {
		fmt.Fprintf(&sb, " [%s via %s]", d.Classification.Type, d.Classification.Indicator)
	}
	sb.WriteString("\n")

	if d.Analysis != nil {
		a := d.Analysis
		fmt.Fprintf(&sb, "score:     %d (reasoning %d, words %d, steps %d)\n",
			a.Score, a.ReasoningCount, a.WordCount, a.EstimatedSteps)
		if len(a.MatchedIndicators) > 0 {
			fmt.Fprintf(&sb, "matched:   %s\n", strings.Join(a.MatchedIndicators, ", "))
		}
	}
	if d.Selection != nil {
		fmt.Fprintf(&sb, "model:     %s (%s)", d.Selection.Model, d.Selection.Tier)
		if len(d.Selection.Reasons) > 0 {
			fmt.Fprintf(&sb, " because %s", strings.Join(d.Selection.Reasons, "; "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
