// Package clienttest provides scripted model clients for tests.
package clienttest

import (
	"context"
	"errors"
	"sync"

	"termagent/internal/client"
)

// ErrUnavailable simulates an unreachable model endpoint.
var ErrUnavailable = &client.APIError{Backend: "fake", StatusCode: 503, Message: "service unavailable"}

// Fake answers with queued replies, or Reply when the queue is empty, and
// records every request it sees.
type Fake struct {
	ID    string
	Reply string
	Err   error
	Calls []*client.Request

	mu    sync.Mutex
	queue []string
}

// New returns a fake that always answers reply.
func New(reply string) *Fake {
	return &Fake{ID: "fake", Reply: reply}
}

// Failing returns a fake whose every call fails with err.
func Failing(err error) *Fake {
	if err == nil {
		err = ErrUnavailable
	}
	return &Fake{ID: "failing", Err: err}
}

// Queue appends replies returned in order before falling back to Reply.
func (f *Fake) Queue(replies ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, replies...)
	return f
}

func (f *Fake) Name() string { return f.ID }

func (f *Fake) Complete(ctx context.Context, req *client.Request) (*client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}

	reply := f.Reply
	if len(f.queue) > 0 {
		reply = f.queue[0]
		f.queue = f.queue[1:]
	}
	return &client.Response{Content: reply, Model: req.Model, Backend: f.ID}, nil
}

// CallCount returns the number of requests seen.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// LastModel returns the model of the most recent request.
func (f *Fake) LastModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return ""
	}
	return f.Calls[len(f.Calls)-1].Model
}

// IsUnavailable reports whether err is the simulated outage.
func IsUnavailable(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Backend == "fake"
}
