package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termagent/internal/client"
	"termagent/internal/client/clienttest"
	"termagent/internal/robustness"
)

func TestFallbackMarksDegraded(t *testing.T) {
	primary := clienttest.Failing(nil)
	secondary := clienttest.New("from secondary")

	fc, err := client.NewFallbackClient(primary, secondary)
	require.NoError(t, err)

	resp, err := fc.Complete(context.Background(), client.NewRequest("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "from secondary", resp.Content)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 1, primary.CallCount())
}

func TestFallbackAllFail(t *testing.T) {
	fc, err := client.NewFallbackClient(clienttest.Failing(nil), clienttest.Failing(nil))
	require.NoError(t, err)

	_, err = fc.Complete(context.Background(), client.NewRequest("", "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all model backends failed")
	assert.True(t, clienttest.IsUnavailable(err))
}

func TestFallbackKeepsQuotaErrors(t *testing.T) {
	fc, err := client.NewFallbackClient(
		clienttest.Failing(&client.APIError{Backend: "openai", StatusCode: 429}),
		clienttest.Failing(nil),
	)
	require.NoError(t, err)

	_, err = fc.Complete(context.Background(), client.NewRequest("", "hi"))
	assert.True(t, client.IsQuotaError(err))
}

func TestFallbackStopsOnCancel(t *testing.T) {
	second := clienttest.New("never")
	fc, err := client.NewFallbackClient(clienttest.Failing(nil), second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fc.Complete(ctx, client.NewRequest("", "hi"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.CallCount())
}

func TestNewFallbackRequiresClient(t *testing.T) {
	_, err := client.NewFallbackClient()
	assert.Error(t, err)
}

func TestWithModelPinsModel(t *testing.T) {
	fake := clienttest.New("ok")
	pinned := client.WithModel(fake, "gpt-4o")

	req := client.NewRequest("", "hi")
	req.Model = "other"
	_, err := pinned.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", fake.LastModel())
	assert.Equal(t, "other", req.Model, "caller's request must not be mutated")
	assert.Equal(t, "fake/gpt-4o", pinned.Name())
}

type flaky struct {
	failures int32
	calls    int32
	err      error
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Complete(ctx context.Context, req *client.Request) (*client.Response, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, f.err
	}
	return &client.Response{Content: "ok"}, nil
}

func TestRetryClientRetriesTransient(t *testing.T) {
	f := &flaky{failures: 2, err: &client.APIError{StatusCode: 503}}
	rc := client.NewRetryClient(f, client.RetryConfig{MaxRetries: 2, RetryDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	resp, err := rc.Complete(context.Background(), client.NewRequest("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(3), f.calls)
}

func TestRetryClientDoesNotRetryPermanent(t *testing.T) {
	f := &flaky{failures: 5, err: &client.APIError{StatusCode: 401}}
	rc := client.NewRetryClient(f, client.RetryConfig{MaxRetries: 3, RetryDelay: time.Millisecond})

	_, err := rc.Complete(context.Background(), client.NewRequest("", "hi"))
	require.Error(t, err)
	assert.Equal(t, int32(1), f.calls)
}

func TestGuardedClientOpensCircuit(t *testing.T) {
	fake := clienttest.Failing(nil)
	g := client.NewGuardedClient(fake, robustness.NewBreaker("fake", 1, time.Minute))

	_, err := g.Complete(context.Background(), client.NewRequest("", "a"))
	require.Error(t, err)
	_, err = g.Complete(context.Background(), client.NewRequest("", "b"))
	assert.ErrorIs(t, err, robustness.ErrCircuitOpen)
	assert.Equal(t, 1, fake.CallCount())
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, client.IsRetryableError(&client.APIError{StatusCode: 429}))
	assert.True(t, client.IsRetryableError(context.DeadlineExceeded))
	assert.False(t, client.IsRetryableError(context.Canceled))
	assert.False(t, client.IsRetryableError(&client.APIError{StatusCode: 400}))
	assert.False(t, client.IsRetryableError(nil))
	assert.True(t, client.IsRetryableError(errors.New("unexpected EOF")))
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, client.IsQuotaError(&client.APIError{StatusCode: 429}))
	assert.True(t, client.IsQuotaError(errors.New("You exceeded your current quota")))
	assert.False(t, client.IsQuotaError(errors.New("boom")))
}

func TestCalculateBackoffBounds(t *testing.T) {
	for attempt := 0; attempt < 6; attempt++ {
		d := client.CalculateBackoff(100*time.Millisecond, attempt, time.Second)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second+time.Second/4)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", `Sure! Here it is: [{"step":1}] hope that helps`, `[{"step":1}]`},
		{"none", "no json here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.ExtractJSON(tt.in))
		})
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "1. Do this\n2. Then that"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer srv.Close()

	oc, err := client.NewOpenAIClient(client.OpenAIConfig{
		APIKey:       "sk-test",
		BaseURL:      srv.URL + "/",
		DefaultModel: "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	req := client.NewRequest("be terse", "organize my project")
	req.Model = "gpt-4o"
	resp, err := oc.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "1. Do this\n2. Then that", resp.Content)
	assert.Equal(t, int64(20), resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o", gotBody["model"])

	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIClientMapsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota"}}`))
	}))
	defer srv.Close()

	oc, err := client.NewOpenAIClient(client.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	_, err = oc.Complete(context.Background(), client.NewRequest("", "hi"))
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, client.IsQuotaError(err))
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := client.NewOpenAIClient(client.OpenAIConfig{})
	assert.Error(t, err)
}

func TestRequestErrorsDoNotOpenCircuit(t *testing.T) {
	assert.True(t, client.IsRequestError(&client.APIError{StatusCode: 404}))
	assert.False(t, client.IsRequestError(&client.APIError{StatusCode: 503}))
	assert.False(t, client.IsRequestError(errors.New("dial tcp: refused")))

	fake := clienttest.Failing(&client.APIError{StatusCode: 400})
	breaker := robustness.NewBreaker("fake", 1, time.Minute).CountIf(func(err error) bool {
		return !client.IsRequestError(err)
	})
	g := client.NewGuardedClient(fake, breaker)
	for i := 0; i < 3; i++ {
		_, err := g.Complete(context.Background(), client.NewRequest("", "x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, robustness.ErrCircuitOpen)
	}
	assert.Equal(t, 3, fake.CallCount())
}
