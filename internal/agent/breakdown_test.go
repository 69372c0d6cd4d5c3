package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termagent/internal/client/clienttest"
	"termagent/internal/router"
)

func TestTaskRunsStepsInOrder(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.handle(t, "mkdir build and then cd build")
	require.Equal(t, router.HandlerTask, resp.Handler)
	require.NotNil(t, resp.Task)

	report := resp.Task
	require.Len(t, report.Steps, 2)
	assert.Equal(t, "mkdir build", report.Steps[0].Command)
	assert.Equal(t, "cd build", report.Steps[1].Command)
	for _, s := range report.Steps {
		assert.Equal(t, StepContinue, s.State)
	}
	assert.False(t, report.Halted)
	assert.Equal(t, filepath.Join(f.dir, "build"), f.deps.Shell.Session().WorkDir())
	assert.Contains(t, resp.Output, "Task: 2 steps, 2 succeeded, 0 failed")
	assert.Empty(t, resp.Suggestions)
}

func TestTaskFailureSuggestsAlternativeAndHalts(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.handle(t, "ls missing-dir and then echo done")
	report := resp.Task
	require.Len(t, report.Steps, 2)

	failed := report.Steps[0]
	assert.Equal(t, StepAlternative, failed.State)
	assert.NotZero(t, failed.ExitCode)
	assert.NotEmpty(t, failed.Alternatives)
	assert.Equal(t, StepPending, report.Steps[1].State)
	assert.True(t, report.Halted)

	assert.NotZero(t, resp.ExitCode)
	assert.Equal(t, failed.Alternatives, resp.Suggestions)
	assert.Contains(t, resp.Output, "0 succeeded, 1 failed, 1 not run")
	assert.Contains(t, resp.Output, "Suggested alternatives:")
}

func TestTaskUsesModelPlanAndReflection(t *testing.T) {
	light := clienttest.New("").Queue(
		`[{"step": 1, "description": "create the output dir", "agent": "shell", "command": "mkdir out"},
		  {"step": 2, "description": "list it", "agent": "shell", "command": "ls out"}]`,
		`{"decision": "stop", "reason": "the directory is ready"}`,
	)
	f := newFixture(t, light, light)

	resp, err := f.agents.Handle(context.Background(), &Request{
		Decision:  decision("first create an output dir, then list it", router.HandlerTask, false),
		NoConfirm: true,
	})
	require.NoError(t, err)

	report := resp.Task
	assert.Equal(t, "model", report.Plan.Source)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, StepStop, report.Steps[0].State)
	assert.Equal(t, "the directory is ready", report.Steps[0].Reason)
	assert.Equal(t, StepPending, report.Steps[1].State)
	assert.DirExists(t, filepath.Join(f.dir, "out"))
	assert.Equal(t, 2, light.CallCount())
}

func TestTaskModelAlternativesComeFirst(t *testing.T) {
	light := clienttest.New("").Queue(
		`[{"step": 1, "description": "show config", "agent": "shell", "command": "cat app.yaml"}]`,
		`{"decision": "alternative", "reason": "the file is named differently", "alternatives": ["cat app.yml"]}`,
	)
	f := newFixture(t, light, light)

	resp, err := f.agents.Handle(context.Background(), &Request{
		Decision:  decision("first show the config then stop", router.HandlerTask, false),
		NoConfirm: true,
	})
	require.NoError(t, err)

	step := resp.Task.Steps[0]
	assert.Equal(t, StepAlternative, step.State)
	assert.Equal(t, "the file is named differently", step.Reason)
	require.NotEmpty(t, step.Alternatives)
	assert.Equal(t, "cat app.yml", step.Alternatives[0])
}

func TestTaskDeclined(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp, err := f.agents.Handle(context.Background(), &Request{
		Decision: decision("mkdir a and then mkdir b", router.HandlerTask, false),
		Confirm:  func(string) bool { return false },
	})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled.", resp.Output)
	assert.Nil(t, resp.Task)
	assert.NoDirExists(t, filepath.Join(f.dir, "a"))
}

func TestTaskPlanPromptShowsCautionReasons(t *testing.T) {
	light := clienttest.New("").Queue(
		`[{"step": 1, "description": "list root files", "agent": "shell", "command": "sudo ls /root"},
		  {"step": 2, "description": "say done", "agent": "shell", "command": "echo done"}]`,
	)
	f := newFixture(t, light, light)

	var prompt string
	resp, err := f.agents.Handle(context.Background(), &Request{
		Decision: decision("first list root files, then say done", router.HandlerTask, false),
		Confirm:  func(p string) bool { prompt = p; return false },
	})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled.", resp.Output)
	assert.Contains(t, prompt, "1. sudo ls /root (caution: runs as root)")
	assert.Contains(t, prompt, "2. echo done")
	assert.NotContains(t, prompt, "echo done (")
}

func TestStepTransitions(t *testing.T) {
	s := &StepResult{State: StepPending}
	assert.False(t, s.advance(StepContinue))
	assert.True(t, s.advance(StepRunning))
	assert.True(t, s.advance(StepReflecting))
	assert.True(t, s.advance(StepAlternative))
	assert.False(t, s.advance(StepContinue))
	assert.Equal(t, StepAlternative, s.State)
}
