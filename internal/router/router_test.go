package router

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termagent/internal/client/clienttest"
	"termagent/internal/config"
)

type commandSet map[string]bool

func (c commandSet) IsCommand(name string) bool { return c[name] }

var knownCommands = commandSet{
	"ls": true, "git": true, "which": true, "who": true, "cat": true,
	"echo": true, "pwd": true, "docker": true, "grep": true, "find": true,
}

func newTestRouter() *Router {
	return New(config.DefaultConfig(), knownCommands)
}

func TestDetectorQuestionMarkAlwaysQuery(t *testing.T) {
	d := NewDetector(knownCommands, 0)
	inputs := []string{
		"?",
		"ls?",
		"git status?",
		"is this thing on?",
		"which python?",
		"  compare a and b?  ",
		"rm -rf /tmp/x?",
		"echo hello | grep h?",
	}
	for _, in := range inputs {
		c := d.Detect(in)
		assert.True(t, c.IsQuery, in)
		assert.NotEqual(t, QueryNone, c.Type, in)
	}
}

func TestDetectorClassification(t *testing.T) {
	d := NewDetector(knownCommands, 0)
	tests := []struct {
		in        string
		want      QueryType
		indicator string
	}{
		{"what files are in this directory?", QueryShell, "question_mark"},
		{"how would you recommend organizing this project structure?", QueryGeneral, "question_mark"},
		{"what branch am I on", QueryShell, "interrogative:what"},
		{"how to write a haiku", QueryGeneral, "interrogative:how"},
		{"compare tabs and spaces", QueryGeneral, "phrase:compare"},
		{"analyze the python files here", QueryShell, "phrase:analyze"},
		{"is docker running on this machine", QueryShell, "auxiliary:is"},
		{"which approach is better for caching", QueryGeneral, "interrogative:which"},
		{"ls -la", QueryNone, ""},
		{"git status", QueryNone, ""},
		{"which python", QueryNone, ""},
		{"echo hello world", QueryNone, ""},
		{"", QueryNone, ""},
		{"   ", QueryNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := d.Detect(tt.in)
			assert.Equal(t, tt.want, c.Type)
			assert.Equal(t, tt.want != QueryNone, c.IsQuery)
			assert.Equal(t, tt.indicator, c.Indicator)
		})
	}
}

func TestDetectorLongProse(t *testing.T) {
	d := NewDetector(knownCommands, 0)
	c := d.Detect("please tell the team that the deploy went fine today")
	assert.True(t, c.IsQuery)
	assert.Equal(t, "long_prose", c.Indicator)

	c = d.Detect("cat one.txt two.txt three.txt four.txt five.txt six.txt seven.txt")
	assert.False(t, c.IsQuery)
}

func TestDetectorWithoutRecognizer(t *testing.T) {
	d := NewDetector(nil, 0)
	assert.Equal(t, QueryNone, d.Detect("ls -la").Type)
	assert.True(t, d.Detect("why is the sky blue").IsQuery)
}

func newTestAnalyzer() *ComplexityAnalyzer {
	return NewComplexityAnalyzer(DefaultWeights(), config.DefaultTwoStepScore, config.DefaultThreeStepScore)
}

func TestLeadingCompareOrAnalyzeRegistersIndicator(t *testing.T) {
	a := newTestAnalyzer()
	inputs := []string{
		"compare",
		"Compare go and rust",
		"compare these two config files",
		"compared to last week, what changed",
		"analyze",
		"Analyze the logs",
		"analyze: why is it slow",
	}
	for _, in := range inputs {
		res := a.Analyze(in)
		assert.NotEmpty(t, res.MatchedIndicators, in)
	}
}

func TestAnalyzeEndToEndExamples(t *testing.T) {
	a := newTestAnalyzer()

	simple := a.Analyze("what files are in this directory?")
	assert.Equal(t, 0, simple.Score)
	assert.Equal(t, 0, simple.ReasoningCount)
	assert.Equal(t, 6, simple.WordCount)
	assert.Equal(t, 1, simple.EstimatedSteps)

	complexQ := a.Analyze("how would you recommend organizing this project structure?")
	assert.Equal(t, 9, complexQ.Score)
	assert.Equal(t, 1, complexQ.ReasoningCount)
	assert.Equal(t, 2, complexQ.EstimatedSteps)
	assert.Contains(t, complexQ.MatchedIndicators, "pattern:opinion")
	assert.Contains(t, complexQ.MatchedIndicators, "pattern:architecture")
	assert.Contains(t, complexQ.MatchedIndicators, "reasoning:how")
}

func TestAnalyzeUsesWholeWords(t *testing.T) {
	a := newTestAnalyzer()
	res := a.Analyze("show the directory")
	assert.Equal(t, 0, res.ReasoningCount, "'how' inside 'show' must not count")
	assert.Contains(t, res.SimpleKeywords, "show")
	assert.NotContains(t, res.SimpleKeywords, "dir")
}

func TestAnalyzeSimpleCommandsScoreLow(t *testing.T) {
	a := newTestAnalyzer()
	res := a.Analyze("list files")
	assert.Less(t, res.Score, 0)
}

func TestSelectorIsMonotonicInScore(t *testing.T) {
	s := NewModelSelector(PolicyFromConfig(config.DefaultConfig().Router), "heavy", "light")

	for _, fixed := range []Analysis{
		{Text: "x", ReasoningCount: 0, WordCount: 3, EstimatedSteps: 1},
		{Text: "x", ReasoningCount: 2, WordCount: 10, EstimatedSteps: 2},
		{Text: "x", ReasoningCount: 5, WordCount: 40, EstimatedSteps: 3},
	} {
		seenHeavy := false
		for score := -20; score <= 40; score++ {
			a := fixed
			a.Score = score
			heavy := s.Select(a).ShouldUseGPT4o
			if seenHeavy {
				require.True(t, heavy, "score %d flipped back to light", score)
			}
			seenHeavy = seenHeavy || heavy
		}
		assert.True(t, seenHeavy)
	}

	prev := false
	for score := -5; score < 20; score++ {
		cur := s.ShouldUseHeavy(score, 0)
		assert.False(t, prev && !cur)
		prev = cur
	}
}

func TestSelectorPolicy(t *testing.T) {
	s := NewModelSelector(Policy{
		ScoreThreshold:     8,
		ReasoningThreshold: 3,
		WordThreshold:      15,
		StepThreshold:      2,
		ForceKeywords:      []string{"troubleshoot"},
	}, "gpt-4o", "gpt-3.5-turbo")

	light := s.Select(Analysis{Text: "list files", Score: 1, WordCount: 2, EstimatedSteps: 1})
	assert.False(t, light.ShouldUseGPT4o)
	assert.Equal(t, "gpt-3.5-turbo", light.Model)
	assert.Equal(t, TierLight, light.Tier)

	forced := s.Select(Analysis{Text: "troubleshoot my wifi", Score: 0, WordCount: 3, EstimatedSteps: 1})
	assert.True(t, forced.ShouldUseGPT4o)
	assert.Equal(t, "gpt-4o", forced.Model)
	assert.Equal(t, []string{"keyword troubleshoot"}, forced.Reasons)

	wordy := s.Select(Analysis{Text: "x", WordCount: 16, EstimatedSteps: 1})
	assert.True(t, wordy.ShouldUseGPT4o)
}

func TestRouteEndToEnd(t *testing.T) {
	r := newTestRouter()

	d := r.Route("what files are in this directory?")
	assert.Equal(t, HandlerShellQuery, d.Handler)
	assert.Equal(t, QueryShell, d.Classification.Type)
	assert.False(t, d.Complex())
	require.NotNil(t, d.Selection)
	assert.Equal(t, config.DefaultLightModel, d.Selection.Model)

	d = r.Route("how would you recommend organizing this project structure?")
	assert.Equal(t, HandlerGeneralQuery, d.Handler)
	assert.Equal(t, QueryGeneral, d.Classification.Type)
	assert.True(t, d.Complex())
	assert.Equal(t, config.DefaultHeavyModel, d.Selection.Model)
}

func TestRouteCommands(t *testing.T) {
	r := newTestRouter()
	tests := []struct {
		in   string
		want HandlerType
	}{
		{"ls -la", HandlerShell},
		{"git status", HandlerGit},
		{"commit and push", HandlerGit},
		{"push", HandlerGit},
		{"first run the tests then commit", HandlerTask},
		{"make a build dir and then cd into it", HandlerTask},
		{"list all python files", HandlerShell},
	}
	for _, tt := range tests {
		d := r.Route(tt.in)
		assert.Equal(t, tt.want, d.Handler, tt.in)
		assert.Nil(t, d.Analysis, tt.in)
	}
}

func TestRouterUsesConfiguredPolicy(t *testing.T) {
	input := "why does the deployment fail?"
	base := newTestRouter().Route(input)
	require.NotNil(t, base.Analysis)

	cfg := config.DefaultConfig()
	cfg.Router.Weights.ComplexKeyword = 10
	cfg.Router.LongInputWords = 3
	r := New(cfg, knownCommands)

	tuned := r.Route(input)
	require.NotNil(t, tuned.Analysis)
	assert.Greater(t, tuned.Analysis.Score, base.Analysis.Score)

	assert.Equal(t, HandlerShell, newTestRouter().Route("tidy up everything please").Handler)
	d := r.Route("tidy up everything please")
	assert.True(t, d.Classification.IsQuery)
	assert.Equal(t, "long_prose", d.Classification.Indicator)
}

func TestRouteContainerRequests(t *testing.T) {
	r := newTestRouter()
	tests := []struct {
		in   string
		want HandlerType
	}{
		{"docker ps -a", HandlerDocker},
		{"restart the web container", HandlerDocker},
		{"kubectl get pods", HandlerKubectl},
		{"scale deployment web to 3 replicas", HandlerKubectl},
		{"how many pods are running?", HandlerKubectl},
		{"ls containers", HandlerShell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Route(tt.in).Handler, tt.in)
	}
}

func TestFormatReasoning(t *testing.T) {
	r := newTestRouter()
	out := r.Route("how would you recommend organizing this project structure?").FormatReasoning()
	assert.Contains(t, out, "general_query")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "score 9 > 8")
}

func TestIsGitRequest(t *testing.T) {
	yes := []string{"git log --oneline", "status", "commit and push", "create a new branch called feature", "stash my changes", "push to origin"}
	no := []string{"show", "log", "ls -la", "make coffee", ""}
	for _, in := range yes {
		assert.True(t, IsGitRequest(in), in)
	}
	for _, in := range no {
		assert.False(t, IsGitRequest(in), in)
	}
}

func TestSplitSteps(t *testing.T) {
	got := SplitSteps("first check git status and then run the tests, then deploy.")
	want := []Step{
		{Index: 1, Description: "check git status", Agent: AgentGit},
		{Index: 2, Description: "run the tests", Agent: AgentShell},
		{Index: 3, Description: "deploy", Agent: AgentShell},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitSteps mismatch (-want +got):\n%s", diff)
	}

	got = SplitSteps("build the api container and then get all pods")
	want = []Step{
		{Index: 1, Description: "build the api container", Agent: AgentDocker},
		{Index: 2, Description: "get all pods", Agent: AgentKubectl},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tool SplitSteps mismatch (-want +got):\n%s", diff)
	}

	got = SplitSteps("step 1: list files step 2: count them")
	want = []Step{
		{Index: 1, Description: "list files", Agent: AgentShell},
		{Index: 2, Description: "count them", Agent: AgentShell},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("numbered SplitSteps mismatch (-want +got):\n%s", diff)
	}
}

func TestDecomposeWithModel(t *testing.T) {
	fake := clienttest.New("Here is the plan:\n```json\n" +
		`[{"step":1,"description":"show status","agent":"git","command":"git status"},` +
		`{"step":2,"command":"ls -la"},` +
		`{"step":3}]` + "\n```")

	plan := NewDecomposer(fake, 5).Decompose(context.Background(), "check status and then list files", "branch main")
	require.Equal(t, "model", plan.Source)
	assert.NotEmpty(t, plan.ID)

	want := []Step{
		{Index: 1, Description: "show status", Agent: AgentGit, Command: "git status"},
		{Index: 2, Description: "ls -la", Agent: AgentShell, Command: "ls -la"},
	}
	if diff := cmp.Diff(want, plan.Steps); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, fake.Calls[0].Messages[0].Content, "branch main")
}

func TestDecomposeFallsBackToPatterns(t *testing.T) {
	plan := NewDecomposer(clienttest.Failing(nil), 5).Decompose(context.Background(), "build it and then test it", "")
	assert.Equal(t, "pattern", plan.Source)
	assert.Len(t, plan.Steps, 2)

	plan = NewDecomposer(clienttest.New("I cannot help with that"), 5).Decompose(context.Background(), "build it and then test it", "")
	assert.Equal(t, "pattern", plan.Source)

	plan = NewDecomposer(nil, 1).Decompose(context.Background(), "a b and then c d and then e f", "")
	assert.Len(t, plan.Steps, 1)
}

func TestIsMultiStep(t *testing.T) {
	assert.True(t, IsMultiStep("first pull then build"))
	assert.True(t, IsMultiStep("Step 1 install deps"))
	assert.True(t, IsMultiStep("lint as well as test"))
	assert.False(t, IsMultiStep("ls -la"))
	assert.False(t, IsMultiStep("git status"))
}
