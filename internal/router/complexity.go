package router

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"termagent/internal/config"
)

// Analysis is the complexity assessment of one query. It is derived from the
// input text alone and recomputed for every request.
type Analysis struct {
	Text              string
	Score             int
	ReasoningCount    int
	MatchedIndicators []string
	ComplexKeywords   []string
	SimpleKeywords    []string
	WordCount         int
	EstimatedSteps    int
}

// Weights control how much each signal moves the score.
type Weights struct {
	ComplexKeyword int
	SimpleKeyword  int
	ComplexPattern int
	SimplePattern  int
	LeadingPhrase  int
}

// DefaultWeights returns the standard signal weights.
func DefaultWeights() Weights {
	return WeightsFromConfig(config.DefaultWeights())
}

// WeightsFromConfig converts the configured weights.
func WeightsFromConfig(w config.WeightsConfig) Weights {
	return Weights{
		ComplexKeyword: w.ComplexKeyword,
		SimpleKeyword:  w.SimpleKeyword,
		ComplexPattern: w.ComplexPattern,
		SimplePattern:  w.SimplePattern,
		LeadingPhrase:  w.LeadingPhrase,
	}
}

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

var complexKeywords = []string{
	"analyze", "analyse", "debug", "troubleshoot", "investigate", "diagnose",
	"optimize", "refactor", "design", "architect", "plan", "strategy",
	"algorithm", "logic", "reasoning", "problem-solving", "complex",
	"multi-step", "multi step", "complicated", "sophisticated",
	"performance", "efficiency", "scalability", "maintainability",
	"security", "vulnerability", "testing", "validation", "verification",
	"integration", "deployment", "configuration", "environment",
	"dependency", "compatibility", "migration",
	"backup", "restore", "recovery", "monitoring",
	"error handling", "exception", "edge case", "corner case",
	"data analysis", "statistics", "metrics", "reporting",
	"automation", "scripting", "workflow", "pipeline",
	"how to", "what is the best way", "why does", "when should",
	"which approach", "compare", "difference between", "similarities",
	"pros and cons", "advantages", "disadvantages", "trade-offs",
	"best practices", "recommendations", "suggestions", "alternatives",
	"considerations", "implications", "consequences", "impact",
	"evaluation", "assessment", "review", "analysis of",
}

var simpleKeywords = []string{
	"list", "show", "display", "print", "echo", "cat", "ls", "dir",
	"count", "find", "search", "grep", "copy", "cp", "move", "mv",
	"delete", "rm", "remove", "create", "mkdir", "touch", "new",
	"start", "stop", "restart", "status", "info", "help",
	"install", "uninstall", "update", "upgrade", "downgrade",
	"check", "verify", "run", "execute", "launch",
}

var complexPatterns = []namedPattern{
	{"open_question", regexp.MustCompile(`\b(why|how|what if|suppose|imagine|consider)\b`)},
	{"fault", regexp.MustCompile(`\b(problem|issue|bug|error|failure|crash)\b`)},
	{"improvement", regexp.MustCompile(`\b(improve|enhance|better|faster|more efficient)\b`)},
	{"comparison", regexp.MustCompile(`\b(compare|contrast|difference|similarity)\b`)},
	{"contingency", regexp.MustCompile(`\b(unless|otherwise|alternatively|instead)\b`)},
	{"sophistication", regexp.MustCompile(`\b(complex|complicated|sophisticated|advanced)\b`)},
	{"multi_stage", regexp.MustCompile(`\bmulti.?(step|stage|phase)\b`)},
	{"dependency", regexp.MustCompile(`\b(conditional|dependent|interdependent|sequence|priority|dependency)\b`)},
	{"research", regexp.MustCompile(`\b(analysis|investigation|research|study)\b`)},
	{"architecture", regexp.MustCompile(`\b(design|architecture|structure|framework)\b`)},
	{"performance", regexp.MustCompile(`\b(optimization|performance|efficiency|scalability)\b`)},
	{"risk", regexp.MustCompile(`\b(security|vulnerability|threat|risk)\b`)},
	{"quality", regexp.MustCompile(`\b(testing|validation|verification|quality)\b`)},
	{"operations", regexp.MustCompile(`\b(integration|deployment|configuration|setup)\b`)},
	{"automation", regexp.MustCompile(`\b(automation|scripting|workflow|pipeline)\b`)},
	{"observability", regexp.MustCompile(`\b(monitoring|logging|alerting|tracking)\b`)},
	{"tradeoff", regexp.MustCompile(`\b(pros and cons|advantages|disadvantages|trade.?offs)\b`)},
	{"advice", regexp.MustCompile(`\b(best practices?|recommendations?|suggestions|alternatives)\b`)},
	{"consequence", regexp.MustCompile(`\b(considerations|implications|consequences|impact)\b`)},
	{"hypothetical", regexp.MustCompile(`\b(what would happen if|suppose that|imagine if|under what circumstances|in what situations)\b`)},
	{"opinion", regexp.MustCompile(`\b(how would you|what would you recommend|how should i|what should i)\b`)},
	{"explanation", regexp.MustCompile(`\b(explain why|describe how|analyze the|walk me through)\b`)},
}

var simplePatterns = []namedPattern{
	{"display", regexp.MustCompile(`\b(list|show|display|print|echo)\b`)},
	{"lookup", regexp.MustCompile(`\b(count|find|search|grep)\b`)},
	{"file_op", regexp.MustCompile(`\b(copy|move|delete|remove|create)\b`)},
	{"service_op", regexp.MustCompile(`\b(start|stop|restart|status|info)\b`)},
	{"package_op", regexp.MustCompile(`\b(install|uninstall|update|upgrade)\b`)},
	{"check_op", regexp.MustCompile(`\b(check|verify|test|run|execute)\b`)},
	{"bare_command", regexp.MustCompile(`^\s*[a-z]+(\s+[a-z0-9_./-]+){1,2}\s*$`)},
}

var reasoningIndicators = []string{
	"why", "how", "what if", "suppose", "imagine", "consider",
	"problem", "issue", "bug", "error", "failure", "crash",
	"improve", "enhance", "better", "faster", "more efficient",
	"compare", "contrast", "difference", "similarity",
	"unless", "otherwise", "alternatively", "instead",
}

// leadingPhrases always register as indicators when they open the input,
// including inflected forms such as "compared" or "analyzing".
var leadingPhrases = []string{"compare", "analyze", "analyse", "how to", "what is the best way"}

// ComplexityAnalyzer scores queries from lexical and structural signals.
type ComplexityAnalyzer struct {
	weights        Weights
	twoStepScore   int
	threeStepScore int
	complexKW      []namedPattern
	simpleKW       []namedPattern
	reasoning      []namedPattern
}

// NewComplexityAnalyzer creates an analyzer. Scores above twoStepScore and
// threeStepScore raise the estimated step count to 2 and 3.
func NewComplexityAnalyzer(weights Weights, twoStepScore, threeStepScore int) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{
		weights:        weights,
		twoStepScore:   twoStepScore,
		threeStepScore: threeStepScore,
		complexKW:      compileTerms(complexKeywords),
		simpleKW:       compileTerms(simpleKeywords),
		reasoning:      compileTerms(reasoningIndicators),
	}
}

// Analyze scores text. Higher scores mean more complex.
func (a *ComplexityAnalyzer) Analyze(text string) Analysis {
	lower := strings.ToLower(strings.TrimSpace(text))
	result := Analysis{
		Text:      lower,
		WordCount: countWords(lower),
	}
	matched := make(map[string]bool)

	for _, kw := range a.complexKW {
		if kw.re.MatchString(lower) {
			result.Score += a.weights.ComplexKeyword
			result.ComplexKeywords = append(result.ComplexKeywords, kw.name)
			matched["keyword:"+kw.name] = true
		}
	}

	for _, kw := range a.simpleKW {
		if kw.re.MatchString(lower) {
			result.Score += a.weights.SimpleKeyword
			result.SimpleKeywords = append(result.SimpleKeywords, kw.name)
		}
	}

	for _, p := range complexPatterns {
		if p.re.MatchString(lower) {
			result.Score += a.weights.ComplexPattern
			matched["pattern:"+p.name] = true
		}
	}

	for _, p := range simplePatterns {
		if p.re.MatchString(lower) {
			result.Score += a.weights.SimplePattern
		}
	}

	for _, phrase := range leadingPhrases {
		if strings.HasPrefix(lower, phrase) {
			result.Score += a.weights.LeadingPhrase
			matched["prefix:"+phrase] = true
			break
		}
	}

	for _, r := range a.reasoning {
		if r.re.MatchString(lower) {
			result.ReasoningCount++
			matched["reasoning:"+r.name] = true
		}
	}

	switch {
	case result.Score > a.threeStepScore:
		result.EstimatedSteps = 3
	case result.Score > a.twoStepScore:
		result.EstimatedSteps = 2
	default:
		result.EstimatedSteps = 1
	}

	result.MatchedIndicators = make([]string, 0, len(matched))
	for k := range matched {
		result.MatchedIndicators = append(result.MatchedIndicators, k)
	}
	sort.Strings(result.MatchedIndicators)

	return result
}

// compileTerms turns plain vocabulary into whole-word matchers so that
// "how" does not fire on "show".
func compileTerms(terms []string) []namedPattern {
	seen := make(map[string]bool, len(terms))
	out := make([]namedPattern, 0, len(terms))
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, namedPattern{
			name: t,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`),
		})
	}
	return out
}

// compilePatterns compiles case-insensitive regexes.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	return compiled
}

func countWords(s string) int {
	return len(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	}))
}
