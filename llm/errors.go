// Package llm wraps the outbound chat-completion call with retry-on-rate-limit
// and uniform error translation.
package llm

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags an APIError with its failure category. The tags are stable
// strings because they cross the HTTP boundary to the UI.
type Kind string

const (
	// KindRateLimit is raised when the provider returns 429 past the retry
	// budget, or when the local token window rejects a request. Retryable by
	// the caller after the reported wait.
	KindRateLimit Kind = "RATE_LIMIT_ERROR"

	// KindEmptyResponse means the provider answered successfully but with no
	// usable content. Treated as a provider defect, not a normal empty string.
	KindEmptyResponse Kind = "EMPTY_RESPONSE"

	// KindInvalidTone means the caller supplied a tone outside the catalog.
	// Raised before any network call.
	KindInvalidTone Kind = "INVALID_TONE"

	// KindMissingAPIKey means no credential was available from either the
	// request or the environment.
	KindMissingAPIKey Kind = "MISSING_API_KEY"

	// KindInvalidInput covers empty required fields.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindSentimentAnalysis wraps failures of the analyze operation.
	KindSentimentAnalysis Kind = "SENTIMENT_ANALYSIS_ERROR"

	// KindLengthAdjustment wraps failures of the adjust-length operation.
	KindLengthAdjustment Kind = "LENGTH_ADJUSTMENT_ERROR"

	// KindGeneration wraps failures of the generate operation.
	KindGeneration Kind = "GENERATION_ERROR"
)

// APIError is the uniform error shape surfaced by every operation.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// RetryAfter is set on rate-limit errors when a useful wait is known.
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewError builds an APIError with a kind, status code, and message.
func NewError(kind Kind, statusCode int, message string, err error) *APIError {
	return &APIError{Kind: kind, StatusCode: statusCode, Message: message, Err: err}
}

// NewRateLimitError builds the rate-limit APIError with a retry hint.
func NewRateLimitError(message string, retryAfter time.Duration, err error) *APIError {
	return &APIError{
		Kind:       KindRateLimit,
		StatusCode: 429,
		Message:    message,
		RetryAfter: retryAfter,
		Err:        err,
	}
}

// IsKind reports whether err is an APIError of the given kind.
//
// Example:
//
//	if llm.IsKind(err, llm.KindRateLimit) {
//	    // surface the wait to the user
//	}
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// AsAPIError extracts an APIError from err, or wraps err into one with the
// fallback kind so callers always see the uniform shape.
func AsAPIError(err error, fallback Kind) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewError(fallback, 500, "request failed", err)
}
