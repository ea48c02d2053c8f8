// Package testutil provides an httptest-backed mock of a paginated JSON API.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Request is what the mock recorded about one incoming request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock API server.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// NewMockAPI starts a mock server. Unknown paths answer 404.
func NewMockAPI() *MockAPI {
	m := &MockAPI{handlers: make(map[string]http.HandlerFunc)}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.Body)
			}
		}

		m.mu.Lock()
		m.requests = append(m.requests, rec)
		handler, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"RecordNotFound","description":"Not found"}`))
			return
		}
		handler(w, r)
	}))

	return m
}

// URL returns the server base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset forgets recorded requests.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler installs a handler for an exact path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse installs a canned response for path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON installs a 200 response encoding body.
func (m *MockAPI) SetJSON(path string, body any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	})
}

// SetPages serves pages[n-1] for ?page=n (page 1 when absent) and an empty
// result list past the end. Each page gets count, next_page and
// previous_page pointing back at this server.
func (m *MockAPI) SetPages(path, key string, pages [][]map[string]any) {
	total := 0
	for _, p := range pages {
		total += len(p)
	}

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				page = n
			}
		}

		body := map[string]any{
			key:     []map[string]any{},
			"count": total,
		}
		if page <= len(pages) {
			body[key] = pages[page-1]
		}
		if page < len(pages) {
			body["next_page"] = m.PageURL(path, page+1)
		} else {
			body["next_page"] = nil
		}
		if page > 1 && page <= len(pages)+1 {
			body["previous_page"] = m.PageURL(path, page-1)
		} else {
			body["previous_page"] = nil
		}

		WriteJSON(w, http.StatusOK, body)
	})
}

// PageURL returns the absolute address of page n of path on this server.
func (m *MockAPI) PageURL(path string, n int) string {
	u, _ := url.Parse(m.server.URL + path)
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// Requests returns a copy of the recorded requests.
func (m *MockAPI) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Request(nil), m.requests...)
}

// RequestCount returns the number of recorded requests.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero Request.
func (m *MockAPI) LastRequest() Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return Request{}
	}
	return m.requests[len(m.requests)-1]
}

// WriteJSON encodes body with status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewServerErrorResponse is a 500 with a JSON error body.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"InternalError","description":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse is a 429 asking the client to retry after a second.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"TooManyRequests"}`,
		Headers: map[string]string{
			"Content-Type":           "application/json",
			"Retry-After":            "1",
			"X-Rate-Limit-Remaining": "0",
		},
	}
}
