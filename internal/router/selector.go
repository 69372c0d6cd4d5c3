package router

import (
	"fmt"
	"strings"

	"termagent/internal/config"
)

// ModelTier names one of the two hosted reasoning backends.
type ModelTier string

const (
	TierLight ModelTier = "light"
	TierHeavy ModelTier = "heavy"
)

// Selection is the model choice for one query.
type Selection struct {
	ShouldUseGPT4o bool
	Tier           ModelTier
	Model          string
	Reasons        []string
}

// Policy holds the thresholds that decide when the heavyweight model is used.
// Every comparison is "greater than", so raising any input never turns a
// heavyweight selection back into a lightweight one.
type Policy struct {
	ScoreThreshold     int
	ReasoningThreshold int
	WordThreshold      int
	StepThreshold      int
	ForceKeywords      []string
}

// PolicyFromConfig builds a Policy from the router section of the config.
func PolicyFromConfig(cfg config.RouterConfig) Policy {
	return Policy{
		ScoreThreshold:     cfg.ScoreThreshold,
		ReasoningThreshold: cfg.ReasoningThreshold,
		WordThreshold:      cfg.WordThreshold,
		StepThreshold:      cfg.StepThreshold,
		ForceKeywords:      cfg.ForceKeywords,
	}
}

// ModelSelector maps an Analysis to a model.
type ModelSelector struct {
	policy     Policy
	heavyModel string
	lightModel string
}

// NewModelSelector creates a selector for the given policy and model names.
func NewModelSelector(policy Policy, heavyModel, lightModel string) *ModelSelector {
	return &ModelSelector{
		policy:     policy,
		heavyModel: heavyModel,
		lightModel: lightModel,
	}
}

// ShouldUseHeavy is the bare threshold check on score and reasoning count.
func (s *ModelSelector) ShouldUseHeavy(score, reasoningCount int) bool {
	return score > s.policy.ScoreThreshold || reasoningCount > s.policy.ReasoningThreshold
}

// Select applies the full policy to an analysis.
func (s *ModelSelector) Select(a Analysis) Selection {
	var reasons []string

	if a.Score > s.policy.ScoreThreshold {
		reasons = append(reasons, fmt.Sprintf("score %d > %d", a.Score, s.policy.ScoreThreshold))
	}
	if a.ReasoningCount > s.policy.ReasoningThreshold {
		reasons = append(reasons, fmt.Sprintf("reasoning %d > %d", a.ReasoningCount, s.policy.ReasoningThreshold))
	}
	if a.EstimatedSteps > s.policy.StepThreshold {
		reasons = append(reasons, fmt.Sprintf("steps %d > %d", a.EstimatedSteps, s.policy.StepThreshold))
	}
	if a.WordCount > s.policy.WordThreshold {
		reasons = append(reasons, fmt.Sprintf("words %d > %d", a.WordCount, s.policy.WordThreshold))
	}
	for _, kw := range s.policy.ForceKeywords {
		if kw != "" && strings.Contains(a.Text, strings.ToLower(kw)) {
			reasons = append(reasons, "keyword "+kw)
			break
		}
	}

	if len(reasons) == 0 {
		return Selection{Tier: TierLight, Model: s.lightModel}
	}
	return Selection{
		ShouldUseGPT4o: true,
		Tier:           TierHeavy,
		Model:          s.heavyModel,
		Reasons:        reasons,
	}
}

// Model returns the model name for a tier.
func (s *ModelSelector) Model(tier ModelTier) string {
	if tier == TierHeavy {
		return s.heavyModel
	}
	return s.lightModel
}
