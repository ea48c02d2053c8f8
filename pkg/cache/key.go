package cache

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "collection"

// Key identifies a cached response.
type Key struct {
	// Endpoint is the request path or absolute URL without its query.
	Endpoint string

	// QueryParams are folded into the key in sorted order.
	QueryParams url.Values

	// Scope separates responses fetched with different credentials.
	Scope string
}

// String renders the key as prefix:endpoint:k=v[,v]...[:scope=...].
func (k Key) String() string {
	return k.WithPrefix(DefaultPrefix)
}

// WithPrefix renders the key under a custom namespace.
func (k Key) WithPrefix(prefix string) string {
	parts := []string{prefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.QueryParams[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}

	return strings.Join(parts, ":")
}

// KeyFromURL builds a key from a request URL.
func KeyFromURL(u *url.URL, scope string) Key {
	endpoint := u.Path
	if u.Host != "" {
		endpoint = u.Host + u.Path
	}
	return Key{
		Endpoint:    endpoint,
		QueryParams: u.Query(),
		Scope:       scope,
	}
}
