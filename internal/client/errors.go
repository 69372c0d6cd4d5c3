package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/openai/openai-go"
)

// ErrNoBackend is returned when no model backend is configured.
var ErrNoBackend = errors.New("no model backend configured")

// APIError represents an API error with HTTP status code.
type APIError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Backend, e.StatusCode, e.Message)
}

// IsQuotaError reports whether err means the account is out of quota or
// rate limited.
func IsQuotaError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "quota")
}

// IsRetryableAPIError returns true if the API error has a retryable status code.
func IsRetryableAPIError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// IsRequestError reports whether the backend rejected the request itself,
// such as a malformed prompt or an unknown model. These do not mean the
// endpoint is unhealthy.
func IsRequestError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case 400, 404, 413, 422:
		return true
	}
	return false
}

// IsRetryableError checks if an error is worth retrying against the same backend.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// The caller gave up; retrying would ignore that.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if IsRetryableAPIError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "eof", "tls handshake", "connection reset"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// wrapOpenAIError converts SDK errors to APIError so retry and quota checks
// work uniformly across backends.
func wrapOpenAIError(err error) error {
	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		return &APIError{
			Backend:    "openai",
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Message,
		}
	}
	return err
}
