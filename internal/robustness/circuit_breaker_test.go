package robustness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	errBackend = errors.New("backend down")
	errRequest = errors.New("bad request")
)

func fail() error { return errBackend }
func ok() error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("openai", 2, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, b.Do(ctx, fail), errBackend)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(ctx, fail), errBackend)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerProbeAfterCooldown(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{"success closes", ok, StateClosed},
		{"failure reopens", fail, StateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			b := NewBreaker("openai", 3, time.Second)
			b.clock = func() time.Time { return now }
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				_ = b.Do(ctx, fail)
			}
			assert.Equal(t, StateOpen, b.State())

			now = now.Add(2 * time.Second)
			_ = b.Do(ctx, tt.probe)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	b := NewBreaker("openai", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func() error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerCountIf(t *testing.T) {
	b := NewBreaker("openai", 1, time.Minute).CountIf(func(err error) bool {
		return !errors.Is(err, errRequest)
	})
	ctx := context.Background()

	assert.ErrorIs(t, b.Do(ctx, func() error { return errRequest }), errRequest)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(ctx, fail), errBackend)
	assert.Equal(t, StateOpen, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
