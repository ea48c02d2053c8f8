package collection

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/resource-collection/pkg/client"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// joinedParams are sent comma-joined when given as lists.
var joinedParams = []string{"ids", "only"}

// Fetch realizes the current page. Cached items are returned without a
// request. Transport or envelope failures yield an empty page.
func (c *Collection) Fetch(ctx context.Context) []resource.Resource {
	items, _ := c.fetch(ctx, false, false)
	return items
}

// FetchStrict is Fetch returning failures instead of an empty page. The
// cache is left unpopulated on error.
func (c *Collection) FetchStrict(ctx context.Context) ([]resource.Resource, error) {
	return c.fetch(ctx, false, true)
}

// Reload re-requests the current page even when it is cached.
func (c *Collection) Reload(ctx context.Context) []resource.Resource {
	items, _ := c.fetch(ctx, true, false)
	return items
}

// ReloadStrict is Reload returning failures.
func (c *Collection) ReloadStrict(ctx context.Context) ([]resource.Resource, error) {
	return c.fetch(ctx, true, true)
}

// Count realizes the current page and returns the server-reported total,
// or the page length when the server reports none.
func (c *Collection) Count(ctx context.Context) int {
	c.Fetch(ctx)
	return c.store.count
}

// CachedCount returns the count without I/O; ok is false when nothing has
// been realized yet.
func (c *Collection) CachedCount() (count int, ok bool) {
	return c.store.count, c.store.populated
}

// At returns the i-th element of the realized page.
func (c *Collection) At(ctx context.Context, i int) (resource.Resource, bool) {
	items := c.Fetch(ctx)
	if i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// Each realizes the current page and calls fn for every element until fn
// returns an error.
func (c *Collection) Each(ctx context.Context, fn func(resource.Resource) error) error {
	for _, r := range c.Fetch(ctx) {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) fetch(ctx context.Context, reload, strict bool) ([]resource.Resource, error) {
	if !c.fetchable {
		if !c.store.populated {
			c.store.populate(nil, 0)
		}
		return c.store.snapshot(), nil
	}

	if c.store.populated && !reload {
		cacheHitsTotal.WithLabelValues(c.typ.Name()).Inc()
		return c.store.snapshot(), nil
	}

	if c.assoc.HasUnsavedParent() {
		c.logger.Debug().Msg("Parent not saved, skipping fetch")
		fetchesTotal.WithLabelValues(c.typ.Name(), outcomeShortCircuit).Inc()
		c.store.populate(nil, 0)
		return c.store.snapshot(), nil
	}

	target := c.cursor.TakePending()
	if target == "" && reload {
		target = c.cursor.Last()
	}
	followed := target != ""
	if !followed {
		target = c.Path()
	}

	params := c.requestParams()
	if len(c.includes) > 0 {
		include := strings.Join(c.includes, ",")
		if c.writeVerb() {
			target = withQuery(target, "include", include)
		} else {
			params["include"] = include
		}
	}

	c.logger.Debug().
		Str("verb", c.verb).
		Str("target", target).
		Int("page", c.cursor.Page()).
		Msg("Fetching collection page")

	env, err := c.request(ctx, target, params)
	if err != nil {
		fetchesTotal.WithLabelValues(c.typ.Name(), outcomeFailed).Inc()
		if strict {
			if followed {
				c.cursor.SetPending(target)
			}
			return nil, fmt.Errorf("fetch %s: %w", target, err)
		}

		c.logger.Warn().
			Err(err).
			Str("target", target).
			Msg("Collection fetch failed, returning empty page")
		c.store.populate(nil, 0)
		c.cursor.Update("", "")
		return c.store.snapshot(), nil
	}

	c.store.populate(env.items, env.count)
	c.cursor.Update(env.next, env.prev)
	if len(c.includes) > 0 {
		c.sideloader.Sideload(env.items, c.includes, env.rest)
	}

	fetchesTotal.WithLabelValues(c.typ.Name(), outcomeFetched).Inc()
	c.logger.Debug().
		Int("items", len(env.items)).
		Int("count", env.count).
		Int("current_page", c.cursor.Current()).
		Msg("Collection page realized")

	return c.store.snapshot(), nil
}

// envelope is a decoded list response.
type envelope struct {
	items []resource.Resource
	count int
	next  string
	prev  string
	rest  map[string]any
}

func (c *Collection) request(ctx context.Context, target string, params map[string]any) (*envelope, error) {
	resp, err := c.transport.Send(ctx, c.verb, target, params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUnexpectedEnvelope)
	}
	return c.unpack(resp.Body)
}

func (c *Collection) unpack(body map[string]any) (*envelope, error) {
	key := c.typ.ModelKey()
	raw, ok := body[key]
	if !ok {
		key = "results"
		raw, ok = body[key]
	}
	if !ok {
		return nil, fmt.Errorf("%w: no %q or \"results\" key", ErrUnexpectedEnvelope, c.typ.ModelKey())
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case nil:
	default:
		return nil, fmt.Errorf("%w: %q is %T, not a list", ErrUnexpectedEnvelope, key, raw)
	}

	env := &envelope{
		items: make([]resource.Resource, 0, len(list)),
		next:  stringValue(body["next_page"]),
		prev:  stringValue(body["previous_page"]),
		rest:  make(map[string]any, len(body)),
	}
	for _, item := range list {
		r, err := c.wrap(item)
		if err != nil {
			return nil, err
		}
		env.items = append(env.items, r)
	}

	switch n := body["count"].(type) {
	case float64:
		env.count = int(n)
	case int:
		env.count = n
	default:
		env.count = len(env.items)
	}

	for k, v := range body {
		if k != key {
			env.rest[k] = v
		}
	}
	return env, nil
}

// wrap turns a raw element into an instance of the collection's type.
// Scalars become {"id": value}.
func (c *Collection) wrap(item any) (resource.Resource, error) {
	switch v := item.(type) {
	case resource.Resource:
		if !resource.SameType(v, c.typ) {
			return nil, mismatch(c.typ, v)
		}
		return v, nil
	case resource.Attributes:
		return c.typ.New(c.transport, v, c.assoc), nil
	case map[string]any:
		return c.typ.New(c.transport, resource.Attributes(v), c.assoc), nil
	default:
		return c.typ.New(c.transport, resource.Attributes{"id": v}, c.assoc), nil
	}
}

func (c *Collection) requestParams() map[string]any {
	params := make(map[string]any, len(c.params)+3)
	for k, v := range c.params {
		if v == nil {
			continue
		}
		params[k] = v
	}
	for _, k := range joinedParams {
		if list, ok := params[k]; ok {
			params[k] = joinList(list)
		}
	}
	if p := c.cursor.Page(); p > 0 {
		params["page"] = p
	}
	if pp := c.cursor.PerPage(); pp > 0 {
		params["per_page"] = pp
	}
	return params
}

func (c *Collection) writeVerb() bool {
	switch c.verb {
	case client.MethodPost, client.MethodPut, client.MethodPatch:
		return true
	}
	return false
}

func mismatch(want resource.Type, got resource.Resource) error {
	name := "<nil>"
	if got != nil && got.Type() != nil {
		name = got.Type().Name()
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, want.Name(), name)
}

func joinList(v any) any {
	switch list := v.(type) {
	case []string:
		return strings.Join(list, ",")
	case []any:
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = resource.FormatID(e)
		}
		return strings.Join(parts, ",")
	case []int:
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = resource.FormatID(e)
		}
		return strings.Join(parts, ",")
	default:
		return v
	}
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
