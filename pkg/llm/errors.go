package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a generation failure.
type ErrorType string

const (
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a structured generation error with classification. A failed or
// timed-out generator contributes no candidate; it never aborts selection.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Provider   string
	Model      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the operation can be retried as-is.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes a transport error from a provider client.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Retryable: false, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")):
		return &Error{Type: ErrorTypeModel, Message: "model not found", Retryable: false, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled"):
		return &Error{Type: ErrorTypeTimeout, Message: "request timeout", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "404"):
		return &Error{Type: ErrorTypeEndpoint, Message: "endpoint not found", Retryable: false, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Type: ErrorTypeUnknown, Message: "rate limited", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504"):
		return &Error{Type: ErrorTypeEndpoint, Message: "server error", Retryable: true, Cause: err, StatusCode: statusCode}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "generation failed", Retryable: false, Cause: err, StatusCode: statusCode}
}
