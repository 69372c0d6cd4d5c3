package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"termagent/internal/logging"

	"github.com/ollama/ollama/api"
)

// OllamaConfig holds configuration for a local Ollama server.
type OllamaConfig struct {
	BaseURL     string // Default: "http://localhost:11434"
	Model       string // e.g. "llama3.2"
	Temperature float64
	MaxTokens   int64
	HTTPTimeout time.Duration
}

// OllamaClient is the local lightweight backend used when the hosted API is
// unreachable. It always answers with its own model.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// NewOllamaClient creates a new Ollama API client.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 120 * time.Second
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	return &OllamaClient{
		client: api.NewClient(baseURL, &http.Client{Timeout: config.HTTPTimeout}),
		config: config,
	}, nil
}

func (c *OllamaClient) Name() string { return "ollama/" + c.config.Model }

// Complete runs a non-streaming chat request.
func (c *OllamaClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: string(RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"num_predict": c.config.MaxTokens,
		},
	}
	if t := req.Temperature; t > 0 {
		chatReq.Options["temperature"] = t
	} else if c.config.Temperature > 0 {
		chatReq.Options["temperature"] = c.config.Temperature
	}

	var content strings.Builder
	var usage Usage
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			usage.PromptTokens = int64(resp.PromptEvalCount)
			usage.CompletionTokens = int64(resp.EvalCount)
			usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		}
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return nil, &APIError{Backend: "ollama", StatusCode: statusErr.StatusCode, Message: statusErr.ErrorMessage}
		}
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &Response{
		Content: content.String(),
		Model:   c.config.Model,
		Backend: c.Name(),
		Usage:   usage,
	}, nil
}
