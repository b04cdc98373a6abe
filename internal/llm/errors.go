package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies completion failures.
type ErrorType string

const (
	// ErrorTypeAuth is a terminal credential failure; retrying cannot
	// succeed.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeEndpoint covers connectivity, timeout, and server-side
	// failures that may clear on retry.
	ErrorTypeEndpoint ErrorType = "endpoint"
	// ErrorTypeRateLimited is upstream throttling, retryable after
	// backoff.
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeUnknown is anything unclassified, treated as terminal.
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrUnavailable is the terminal error surfaced after retries against the
// completion backend are exhausted.
var ErrUnavailable = errors.New("llm unavailable")

// Error is a structured completion failure with retryability.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether the operation can be retried. The retry
// policy checks this without knowing error internals.
func (e *Error) IsRetryable() bool { return e.Retryable }

// NewError creates a structured completion error.
func NewError(t ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: t, Message: message, Retryable: retryable, Cause: cause}
}

// IsAuthError reports whether err is a terminal credential failure.
func IsAuthError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeAuth
}

// Classify categorizes an arbitrary error from a completion backend into a
// structured *Error. Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(msg, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	classified := func(t ErrorType, m string, retryable bool) *Error {
		out := NewError(t, m, retryable, err)
		out.StatusCode = statusCode
		return out
	}

	switch {
	case strings.Contains(msg, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "incorrect api key"):
		return classified(ErrorTypeAuth, "authentication failed", false)
	case strings.Contains(msg, "429") || strings.Contains(lower, "rate limit"):
		return classified(ErrorTypeRateLimited, "rate limited", true)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return classified(ErrorTypeEndpoint, "connection failed", true)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return classified(ErrorTypeEndpoint, "request timeout", true)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return classified(ErrorTypeEndpoint, "server error", true)
	default:
		return classified(ErrorTypeUnknown, "completion failed", false)
	}
}
