package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRetryExhausted is returned when every retry attempt failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrRateLimited is returned when the rate limit tracker refuses a request.
	ErrRateLimited = errors.New("request blocked: rate limit critical")

	// ErrUnexpectedBody is returned when a response body is not a JSON object.
	ErrUnexpectedBody = errors.New("response body is not a JSON object")
)

// ErrorClass groups failures for retry decisions and metrics.
type ErrorClass string

const (
	// ErrorClassClient covers 4xx responses other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer covers 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit covers 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork covers transport failures without a response.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d): %s: %v", e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error (status %d): %s", e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err carries a 4xx or 5xx response, or a
// network failure: the conditions a Collection degrades to an empty page.
func IsClientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	return errors.Is(err, ErrRetryExhausted) || errors.Is(err, ErrRateLimited)
}

// classify maps a response or transport error to an ErrorClass. A successful
// response yields the empty class.
func classify(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}
	if resp == nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}

// shouldRetry reports whether a failure class is worth another attempt.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
