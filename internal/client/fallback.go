package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"termagent/internal/logging"
)

// FallbackClient walks an ordered chain of backends, heavy model first, and
// returns the first answer. Answers from anything but the head of the chain
// are marked Degraded so the user is told the preferred model was skipped.
type FallbackClient struct {
	chain []Client
}

// NewFallbackClient builds a chain. At least one client is required.
func NewFallbackClient(chain ...Client) (*FallbackClient, error) {
	if len(chain) == 0 {
		return nil, errors.New("fallback chain is empty")
	}
	return &FallbackClient{chain: chain}, nil
}

// Name lists the chain, e.g. "openai > openai > ollama/llama3.2".
func (fc *FallbackClient) Name() string {
	names := make([]string, len(fc.chain))
	for i, c := range fc.chain {
		names[i] = c.Name()
	}
	return strings.Join(names, " > ")
}

// Complete tries each backend in turn. The returned error joins every
// backend's failure, so quota and status checks still see them.
func (fc *FallbackClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var errs []error
	for i, c := range fc.chain {
		resp, err := c.Complete(ctx, req)
		if err == nil {
			resp.Degraded = resp.Degraded || i > 0
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Warn("model backend failed, trying next", "position", i, "backend", c.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
	}
	return nil, fmt.Errorf("all model backends failed: %w", errors.Join(errs...))
}
