package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Etag":          []string{`"abc123"`},
			"Last-Modified": []string{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)},
			"Cache-Control": []string{"max-age=120"},
		},
		Body: io.NopCloser(bytes.NewReader([]byte(`{"tickets":[]}`))),
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if string(entry.Body) != `{"tickets":[]}` {
		t.Errorf("Body = %q", entry.Body)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if entry.LastModified.IsZero() {
		t.Error("LastModified not parsed")
	}
	if ttl := entry.TTL(); ttl < 110*time.Second || ttl > 120*time.Second {
		t.Errorf("TTL = %v, want about 120s", ttl)
	}

	restored, _ := io.ReadAll(resp.Body)
	if string(restored) != `{"tickets":[]}` {
		t.Errorf("response body not restored: %q", restored)
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Body:       []byte(`{"count":1}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("headers not copied")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"count":1}` {
		t.Errorf("body = %q", body)
	}
}

func TestExpiry(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		header http.Header
		minTTL time.Duration
		maxTTL time.Duration
	}{
		{
			name:   "no headers uses default",
			header: http.Header{},
			minTTL: DefaultTTL - time.Second,
			maxTTL: DefaultTTL,
		},
		{
			name:   "max-age wins over expires",
			header: http.Header{"Cache-Control": {"private, max-age=30"}, "Expires": {now.Add(time.Hour).UTC().Format(http.TimeFormat)}},
			minTTL: 29 * time.Second,
			maxTTL: 30 * time.Second,
		},
		{
			name:   "no-cache is immediately stale",
			header: http.Header{"Cache-Control": {"no-cache"}},
			minTTL: 0,
			maxTTL: 0,
		},
		{
			name:   "expires in the past",
			header: http.Header{"Expires": {now.Add(-time.Hour).UTC().Format(http.TimeFormat)}},
			minTTL: 0,
			maxTTL: 0,
		},
		{
			name:   "unparseable expires uses default",
			header: http.Header{"Expires": {"soon"}},
			minTTL: DefaultTTL - time.Second,
			maxTTL: DefaultTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl := time.Until(Expiry(tt.header))
			if ttl < 0 {
				ttl = 0
			}
			if ttl < tt.minTTL || ttl > tt.maxTTL {
				t.Errorf("ttl = %v, want between %v and %v", ttl, tt.minTTL, tt.maxTTL)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		entry     *Entry
		wantETag  string
		wantSince string
	}{
		{name: "etag preferred", entry: &Entry{ETag: `"v2"`, LastModified: lastMod}, wantETag: `"v2"`},
		{name: "last-modified fallback", entry: &Entry{LastModified: lastMod}, wantSince: lastMod.Format(http.TimeFormat)},
		{name: "nothing to send", entry: &Entry{}},
		{name: "nil entry", entry: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.test/api/v2/tickets", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantSince)
			}
		})
	}
}
