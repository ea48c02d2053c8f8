package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key:  Key{Endpoint: "/api/v2/tickets"},
			want: "collection:api/v2/tickets",
		},
		{
			name: "query params sorted",
			key: Key{
				Endpoint: "/api/v2/tickets",
				QueryParams: url.Values{
					"per_page": []string{"50"},
					"page":     []string{"2"},
				},
			},
			want: "collection:api/v2/tickets:page=2:per_page=50",
		},
		{
			name: "multi value params sorted",
			key: Key{
				Endpoint:    "/api/v2/users",
				QueryParams: url.Values{"role": []string{"end-user", "agent"}},
			},
			want: "collection:api/v2/users:role=agent,end-user",
		},
		{
			name: "scope appended",
			key: Key{
				Endpoint: "/api/v2/tickets",
				Scope:    "agent-1",
			},
			want: "collection:api/v2/tickets:scope=agent-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := Key{Endpoint: "/x", QueryParams: url.Values{"a": {"1"}, "b": {"2"}, "c": {"3"}}}
	b := Key{Endpoint: "x/", QueryParams: url.Values{"c": {"3"}, "a": {"1"}, "b": {"2"}}}

	if a.String() != b.String() {
		t.Errorf("keys differ: %q vs %q", a.String(), b.String())
	}
}

func TestKeyFromURL(t *testing.T) {
	u, err := url.Parse("https://example.zendesk.com/api/v2/tickets?page=3")
	if err != nil {
		t.Fatal(err)
	}

	key := KeyFromURL(u, "")
	want := "collection:example.zendesk.com/api/v2/tickets:page=3"
	if key.String() != want {
		t.Errorf("KeyFromURL = %q, want %q", key.String(), want)
	}

	if got := key.WithPrefix("other"); got != "other:example.zendesk.com/api/v2/tickets:page=3" {
		t.Errorf("WithPrefix = %q", got)
	}
}
