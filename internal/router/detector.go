package router

import (
	"regexp"
	"strings"

	"termagent/internal/config"
	"termagent/internal/logging"
)

// QueryType is the outcome of query detection.
type QueryType string

const (
	QueryNone    QueryType = "none"
	QueryShell   QueryType = "shell_query"
	QueryGeneral QueryType = "general_query"
)

// Classification is produced once per input line and never mutated.
type Classification struct {
	IsQuery   bool
	Type      QueryType
	Indicator string // the signal that decided IsQuery, empty for commands
	Topic     string // the environment noun that made it a shell query
}

// CommandRecognizer reports whether a word names something runnable.
type CommandRecognizer interface {
	IsCommand(name string) bool
}

var interrogatives = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "which": true, "who": true,
}

var auxiliaries = map[string]bool{
	"is": true, "are": true, "can": true, "could": true, "does": true, "do": true,
	"should": true, "would": true, "will": true, "has": true, "have": true, "did": true,
}

// complexPrefixes are phrase openers that mark an input as a question even
// without a question mark.
var complexPrefixes = []string{
	"how to",
	"what is the best way",
	"compare",
	"analyze",
	"analyse",
	"explain",
	"tell me",
	"describe",
}

// environmentTopics route a query to the shell-query handler.
var environmentTopics = compilePatterns([]string{
	`\b(files?|folders?|director(y|ies)|dirs?|pwd|path)\b`,
	`\b(git|branch(es)?|commits?|repo(sitory)?|remotes?|stash|tags?)\b`,
	`\b(process(es)?|running|pid|ports?|listening)\b`,
	`\b(docker|containers?|images?)\b`,
	`\b(disk|space|storage|size|memory usage)\b`,
	`\b(installed|executables?|binar(y|ies))\b`,
	`\.(py|go|js|ts|md|txt|json|ya?ml|sh)\b`,
})

var shellSyntax = regexp.MustCompile(`(\|\||&&|[|><;]|\$\(|` + "`" + `|^-|\s-{1,2}[a-zA-Z])`)

// Detector decides whether input is a question and what kind.
type Detector struct {
	recognizer    CommandRecognizer
	longInputWord int
}

// NewDetector creates a detector. recognizer may be nil. Inputs of at least
// longInputWords words of plain prose count as questions; zero uses the
// default.
func NewDetector(recognizer CommandRecognizer, longInputWords int) *Detector {
	if longInputWords <= 0 {
		longInputWords = config.DefaultLongInputWords
	}
	return &Detector{
		recognizer:    recognizer,
		longInputWord: longInputWords,
	}
}

// Detect classifies raw input text.
func (d *Detector) Detect(text string) Classification {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Classification{Type: QueryNone}
	}

	lower := strings.ToLower(trimmed)
	words := strings.Fields(lower)
	first := strings.Trim(words[0], ",.:;!?")
	endsWithQuestion := strings.HasSuffix(lower, "?")

	if !endsWithQuestion && d.looksLikeCommand(lower, first, len(words)) {
		return Classification{Type: QueryNone}
	}

	indicator := ""
	switch {
	case endsWithQuestion:
		indicator = "question_mark"
	case interrogatives[first]:
		indicator = "interrogative:" + first
	case matchPrefix(lower) != "":
		indicator = "phrase:" + matchPrefix(lower)
	case auxiliaries[first] && len(words) >= 3:
		indicator = "auxiliary:" + first
	case len(words) >= d.longInputWord && !shellSyntax.MatchString(lower) && !d.isCommand(first) && !IsMultiStep(lower):
		indicator = "long_prose"
	}

	if indicator == "" {
		return Classification{Type: QueryNone}
	}

	c := Classification{IsQuery: true, Type: QueryGeneral, Indicator: indicator}
	for _, re := range environmentTopics {
		if m := re.FindString(lower); m != "" {
			c.Type = QueryShell
			c.Topic = m
			break
		}
	}

	logging.Debug("query detected", "indicator", c.Indicator, "type", c.Type, "topic", c.Topic)
	return c
}

// looksLikeCommand treats short inputs that start with a runnable name, or
// anything using shell syntax, as commands. "which python" is a command;
// "which approach is better for caching" is not.
func (d *Detector) looksLikeCommand(lower, first string, wordCount int) bool {
	if !d.isCommand(first) {
		return false
	}
	if shellSyntax.MatchString(lower) {
		return true
	}
	if interrogatives[first] || auxiliaries[first] {
		return wordCount <= 2
	}
	return wordCount <= 4 || !hasProse(lower)
}

func (d *Detector) isCommand(word string) bool {
	return d.recognizer != nil && d.recognizer.IsCommand(word)
}

func matchPrefix(lower string) string {
	for _, p := range complexPrefixes {
		if strings.HasPrefix(lower, p) {
			return p
		}
	}
	return ""
}

var proseWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "of": true,
	"my": true, "this": true, "that": true, "all": true, "me": true, "please": true,
}

func hasProse(lower string) bool {
	for _, w := range strings.Fields(lower) {
		if proseWords[w] {
			return true
		}
	}
	return false
}
