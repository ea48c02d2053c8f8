package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.expected {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.expected)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   ErrorClass
	}{
		{name: "ok", status: 200, want: ""},
		{name: "not modified", status: 304, want: ""},
		{name: "not found", status: 404, want: ErrorClassClient},
		{name: "unprocessable", status: 422, want: ErrorClassClient},
		{name: "too many requests", status: 429, want: ErrorClassRateLimit},
		{name: "internal", status: 500, want: ErrorClassServer},
		{name: "unavailable", status: 503, want: ErrorClassServer},
		{name: "transport error", err: errors.New("connection refused"), want: ErrorClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.err == nil {
				resp = &http.Response{StatusCode: tt.status}
			}
			if got := classify(resp, tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without cause",
			err:  &APIError{StatusCode: 404, ErrorClass: ErrorClassClient, Message: "Not found"},
			want: "api client error (status 404): Not found",
		},
		{
			name: "with cause",
			err:  &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: errors.New("dial tcp")},
			want: "api network error (status 0): request failed: dial tcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("send: %w", &APIError{Err: cause})

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if (&APIError{}).Unwrap() != nil {
		t.Error("Unwrap() without cause should be nil")
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "api error", err: &APIError{StatusCode: 500}, want: true},
		{name: "wrapped api error", err: fmt.Errorf("fetch: %w", &APIError{StatusCode: 404}), want: true},
		{name: "retry exhausted", err: fmt.Errorf("%w: eof", ErrRetryExhausted), want: true},
		{name: "rate limited", err: ErrRateLimited, want: true},
		{name: "unexpected body", err: ErrUnexpectedBody, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClientError(tt.err); got != tt.want {
				t.Errorf("IsClientError() = %v, want %v", got, tt.want)
			}
		})
	}
}
