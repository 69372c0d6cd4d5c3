package client

import (
	"context"
	"math/rand"
	"time"

	"termagent/internal/logging"
)

// RetryConfig holds retry configuration used across all client implementations.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	RetryDelay time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum backoff delay (cap)
}

// DefaultRetryConfig returns the standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
	}
}

// CalculateBackoff calculates exponential backoff with up to 25% jitter.
func CalculateBackoff(baseDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	if delay < 4 {
		return delay
	}

	jitter := time.Duration(rand.Int63n(int64(delay / 4)))
	return delay + jitter
}

// RetryClient retries transient failures of the wrapped client.
type RetryClient struct {
	inner  Client
	config RetryConfig
}

// NewRetryClient wraps inner with retry behaviour.
func NewRetryClient(inner Client, cfg RetryConfig) *RetryClient {
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultRetryConfig().MaxDelay
	}
	return &RetryClient{inner: inner, config: cfg}
}

func (c *RetryClient) Name() string { return c.inner.Name() }

// Complete sends the request, retrying retryable errors with backoff.
func (c *RetryClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.config.RetryDelay, attempt-1, c.config.MaxDelay)
			logging.Info("retrying model request",
				"backend", c.inner.Name(),
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRetryableError(err) || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}
