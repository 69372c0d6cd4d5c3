// Package robustness tracks backend health so a dead model endpoint is
// skipped quickly instead of timing out on every request.
package robustness

import (
	"context"
	"errors"
	"sync"
	"time"

	"termagent/internal/logging"
)

// ErrCircuitOpen is returned without calling the backend while it is
// considered down.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{"closed", "half-open", "open"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Breaker opens after threshold consecutive backend failures. After the
// cooldown one probe request is let through; its outcome closes or reopens
// the breaker.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	counts    func(error) bool

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	clock    func() time.Time
}

// NewBreaker creates a closed breaker for the named backend. Every error
// counts as a failure unless CountIf narrows it.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: max(threshold, 1),
		cooldown:  cooldown,
		counts:    func(error) bool { return true },
		clock:     time.Now,
	}
}

// CountIf limits which errors count toward opening the breaker. Request
// errors such as a bad prompt or an unknown model say nothing about the
// endpoint being down.
func (b *Breaker) CountIf(fn func(error) bool) *Breaker {
	b.counts = fn
	return b
}

// Do runs fn unless the breaker is open. Errors caused by ctx ending are not
// held against the backend.
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	switch {
	case err == nil:
		b.succeeded()
	case ctx.Err() != nil || !b.counts(err):
		b.abandoned()
	default:
		b.failed()
	}
	return err
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.clock().Sub(b.openedAt) <= b.cooldown {
			return false
		}
		b.moveLocked(StateHalfOpen)
		return true
	}
	// A probe is already in flight.
	return false
}

// abandoned puts a half-open breaker back to open with its cooldown already
// expired, so the next request probes again.
func (b *Breaker) abandoned() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.moveLocked(StateOpen)
		b.openedAt = b.clock().Add(-b.cooldown - time.Nanosecond)
	}
}

func (b *Breaker) failed() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.clock()
		b.moveLocked(StateOpen)
	}
}

func (b *Breaker) succeeded() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.moveLocked(StateClosed)
}

func (b *Breaker) moveLocked(to State) {
	if b.state == to {
		return
	}
	logging.Debug("circuit state changed", "backend", b.name, "from", b.state, "to", to, "failures", b.failures)
	b.state = to
}
