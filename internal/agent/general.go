package agent

import (
	"context"
	"regexp"
	"strings"

	"termagent/internal/client"
	"termagent/internal/logging"
)

const generalPrompt = `You are a helpful terminal assistant. Answer the user's question with clear reasoning.
When the question concerns the user's project, ground the answer in the workspace context provided.
For recommendations, give a numbered list of concrete steps.`

// workspaceRelevant matches questions that refer to the local project.
var workspaceRelevant = regexp.MustCompile(`(?i)\b(this|my|our|here|current|project|repo|repository|codebase|code|directory|folder|structure|files?|module|package)\b`)

// RecentTurns is how many earlier turns are replayed as conversation context.
const RecentTurns = 6

// GeneralQueryAgent answers informational questions with a reasoned model
// answer.
type GeneralQueryAgent struct {
	deps *Deps
}

// NewGeneralQueryAgent creates the general-query agent.
func NewGeneralQueryAgent(deps *Deps) *GeneralQueryAgent {
	return &GeneralQueryAgent{deps: deps}
}

// Handle implements Handler.
func (a *GeneralQueryAgent) Handle(ctx context.Context, req *Request) (*Response, error) {
	mreq := &client.Request{System: generalPrompt}

	turns := req.Recent
	if len(turns) > RecentTurns {
		turns = turns[len(turns)-RecentTurns:]
	}
	for _, t := range turns {
		mreq.Messages = append(mreq.Messages,
			client.Message{Role: client.RoleUser, Content: t.Input},
			client.Message{Role: client.RoleAssistant, Content: a.deps.redact(t.Response)})
	}

	user := req.Input
	var summary string
	if workspaceRelevant.MatchString(req.Input) && a.deps.Workspace != nil {
		snap, err := a.deps.Workspace.Gather(ctx, a.deps.Shell.Session().WorkDir())
		if err != nil {
			logging.Warn("workspace snapshot failed", "error", err)
		} else {
			summary = snap.Summary()
			user += "\n\nWorkspace context:\n" + a.deps.redact(snap.Format())
		}
	}
	mreq.Messages = append(mreq.Messages, client.Message{Role: client.RoleUser, Content: user})

	mr, err := a.deps.complete(ctx, tierOf(req.Decision), mreq)
	if err != nil {
		if ctx.Err() != nil || !a.deps.hasModels() {
			return nil, firstErr(ctx.Err(), err)
		}
		resp := &Response{Output: cannedAnswer(req.Input, summary)}
		degrade(resp, err)
		return resp, nil
	}

	resp := &Response{Output: strings.TrimSpace(mr.Content), Markdown: true}
	applyModel(resp, mr)
	return resp, nil
}

func cannedAnswer(question, workspaceSummary string) string {
	var sb strings.Builder
	sb.WriteString("I could not reach a language model to answer this right now.\n")
	if workspaceSummary != "" {
		sb.WriteString("Workspace: " + workspaceSummary + "\n")
	}
	sb.WriteString("You can retry in a moment, or ask about the local environment directly, for example:\n")
	sb.WriteString("  what files are in this directory?\n")
	sb.WriteString("  what is the git status?")
	logging.Debug("canned answer used", "question", question)
	return sb.String()
}
