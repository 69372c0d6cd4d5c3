package client

import (
	"context"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request. Model may be empty, in which case
// the backend uses its configured default.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
}

// Usage reports token accounting for a response.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Response is a completed model answer.
type Response struct {
	Content  string
	Model    string
	Backend  string
	Usage    Usage
	Degraded bool // served by a fallback rather than the first choice
}

// Client is the contract every model backend fulfils: text in, text out.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Name() string
}

// NewRequest builds a request with a system prompt and a single user message.
func NewRequest(system, user string) *Request {
	return &Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// clone copies a request so wrappers can adjust it without side effects.
func (r *Request) clone() *Request {
	c := *r
	c.Messages = append([]Message(nil), r.Messages...)
	return &c
}

// modelClient pins every request to one model.
type modelClient struct {
	Client
	model string
}

// WithModel returns a client that always asks inner for model.
func WithModel(inner Client, model string) Client {
	return &modelClient{Client: inner, model: model}
}

func (m *modelClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	r := req.clone()
	r.Model = m.model
	return m.Client.Complete(ctx, r)
}

func (m *modelClient) Name() string {
	return m.Client.Name() + "/" + m.model
}

// ExtractJSON returns the outermost JSON object or array embedded in text,
// tolerating markdown fences and surrounding prose.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	opener, closer := "{", "}"
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		opener, closer = "[", "]"
	}

	start := strings.Index(text, opener)
	end := strings.LastIndex(text, closer)
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
