// Package ratelimit spaces model requests so a burst of task steps does not
// exhaust a provider's per-minute quota.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// minWait keeps Wait from spinning when the deficit is tiny.
const minWait = 10 * time.Millisecond

// Limiter is a request budget that refills continuously. Each model call
// spends one request.
type Limiter struct {
	mu       sync.Mutex
	budget   float64
	capacity float64
	perSec   float64
	updated  time.Time
	clock    func() time.Time
}

// New returns a full limiter holding capacity requests that regains perSec
// requests every second.
func New(capacity, perSec float64) *Limiter {
	return &Limiter{
		budget:   capacity,
		capacity: capacity,
		perSec:   perSec,
		updated:  time.Now(),
		clock:    time.Now,
	}
}

// PerMinute allows n requests per minute with bursts of up to burst.
func PerMinute(n, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return New(float64(burst), float64(n)/60)
}

func (l *Limiter) settle() {
	now := l.clock()
	l.budget = min(l.capacity, l.budget+now.Sub(l.updated).Seconds()*l.perSec)
	l.updated = now
}

// Allow spends one request if the budget has one.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settle()
	if l.budget < 1 {
		return false
	}
	l.budget--
	return true
}

// Wait blocks until a request can be spent or ctx ends. It returns how long
// the caller was held back.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	start := l.clock()
	for {
		l.mu.Lock()
		l.settle()
		if l.budget >= 1 {
			l.budget--
			l.mu.Unlock()
			return l.clock().Sub(start), nil
		}
		delay := max(minWait, time.Duration((1-l.budget)/l.perSec*float64(time.Second)))
		l.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return l.clock().Sub(start), ctx.Err()
		case <-timer.C:
		}
	}
}

// Refund gives back a request that never reached the backend.
func (l *Limiter) Refund() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.budget = min(l.capacity, l.budget+1)
}

// Remaining reports the current budget.
func (l *Limiter) Remaining() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settle()
	return l.budget
}
