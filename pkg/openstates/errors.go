package openstates

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the client.
var (
	// ErrMissingAPIKey is returned by New without an API key.
	ErrMissingAPIKey = errors.New("openstates api key is required")

	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("bill not found upstream")

	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("upstream rejected credentials")

	// ErrRateLimited matches 429 responses and locally refused requests.
	ErrRateLimited = errors.New("upstream rate limit reached")

	// ErrTransient matches server and network errors.
	ErrTransient = errors.New("transient upstream error")

	// ErrEmptyBody is returned for a 2xx response without usable content.
	ErrEmptyBody = errors.New("upstream returned an empty body")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// ErrorClass represents a classification of upstream errors.
type ErrorClass string

const (
	// ErrorClassNotFound represents 404.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassUnauthorized represents 401 and 403.
	ErrorClassUnauthorized ErrorClass = "unauthorized"

	// ErrorClassRateLimit represents 429.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassClient represents other 4xx errors, e.g. 422.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is an upstream failure with its classification.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("openstates %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("openstates %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by class.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Class == ErrorClassNotFound
	case ErrUnauthorized:
		return e.Class == ErrorClassUnauthorized
	case ErrRateLimited:
		return e.Class == ErrorClassRateLimit
	case ErrTransient:
		return e.Class == ErrorClassServer || e.Class == ErrorClassNetwork
	default:
		return false
	}
}

// ClassOf returns the class of err, or "" when err is not an *APIError.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ""
}

// RetryAfterOf returns the Retry-After window carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// classifyStatus maps an HTTP status to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorClassUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassRateLimit, ErrorClassUnauthorized:
		// Fail fast so the resolver can move to the next source.
		return false
	default:
		return false
	}
}
