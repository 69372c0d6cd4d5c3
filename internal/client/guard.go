package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"termagent/internal/logging"
	"termagent/internal/ratelimit"
	"termagent/internal/robustness"
)

// GuardedClient fails fast while its backend's circuit is open, letting a
// FallbackClient move on without waiting for timeouts.
type GuardedClient struct {
	inner   Client
	breaker *robustness.Breaker
}

// NewGuardedClient wraps inner with breaker.
func NewGuardedClient(inner Client, breaker *robustness.Breaker) *GuardedClient {
	return &GuardedClient{inner: inner, breaker: breaker}
}

func (g *GuardedClient) Name() string { return g.inner.Name() }

func (g *GuardedClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	err := g.breaker.Do(ctx, func() error {
		var err error
		resp, err = g.inner.Complete(ctx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, robustness.ErrCircuitOpen) {
			logging.Debug("skipping backend with open circuit", "backend", g.inner.Name())
			return nil, fmt.Errorf("%s: %w", g.inner.Name(), err)
		}
		return nil, err
	}
	return resp, nil
}

// LimitedClient spaces requests according to a shared request budget.
type LimitedClient struct {
	inner   Client
	limiter *ratelimit.Limiter
}

// NewLimitedClient wraps inner with limiter.
func NewLimitedClient(inner Client, limiter *ratelimit.Limiter) *LimitedClient {
	return &LimitedClient{inner: inner, limiter: limiter}
}

func (l *LimitedClient) Name() string { return l.inner.Name() }

func (l *LimitedClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	waited, err := l.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if waited > time.Second {
		logging.Debug("model request delayed by rate limit", "backend", l.inner.Name(), "waited", waited)
	}
	resp, err := l.inner.Complete(ctx, req)
	if errors.Is(err, robustness.ErrCircuitOpen) {
		l.limiter.Refund()
	}
	return resp, err
}
