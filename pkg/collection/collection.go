// Package collection provides a lazy, cacheable, paginated view of a remote
// resource collection.
//
// A Collection is configured with a transport, a resource type and options.
// Nothing is requested until data is needed; the realized page is cached
// until the page, page size or query changes or the cache is cleared.
//
//	tickets := collection.New(api, ticketKind, collection.Options{PerPage: 50})
//	for _, t := range tickets.Fetch(ctx) {
//		...
//	}
//	next := tickets.Next(ctx)
//
// Fetch degrades to an empty result when the transport fails; use
// FetchStrict to get the error instead.
//
// A Collection is not safe for concurrent use.
package collection

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/resource-collection/pkg/client"
	"github.com/Sternrassler/resource-collection/pkg/logging"
	"github.com/Sternrassler/resource-collection/pkg/pagination"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// Options configures a Collection.
type Options struct {
	// Verb is the HTTP method used to fetch; defaults to GET.
	Verb string

	// Path is an explicit request path overriding path generation.
	Path string

	Page    int
	PerPage int

	// Include lists related records to side-load.
	Include []string

	// CollectionPath are the path segments; defaults to the type name.
	CollectionPath []string

	// Params are extra query (or body) parameters.
	Params map[string]any

	Association *resource.Association

	// Sideloader defaults to resource.IncludeSideloader.
	Sideloader resource.Sideloader
}

// Collection is a lazily realized page of resources.
type Collection struct {
	transport  resource.Transport
	typ        resource.Type
	assoc      *resource.Association
	segments   []string
	verb       string
	params     map[string]any
	includes   []string
	sideloader resource.Sideloader

	cursor    *pagination.Cursor
	store     store
	fetchable bool

	logger zerolog.Logger
}

// New creates a collection of typ. No request is made.
func New(t resource.Transport, typ resource.Type, opts Options) *Collection {
	c := &Collection{
		transport:  t,
		typ:        typ,
		assoc:      opts.Association,
		segments:   slices.Clone(opts.CollectionPath),
		verb:       strings.ToUpper(opts.Verb),
		params:     maps.Clone(opts.Params),
		includes:   slices.Clone(opts.Include),
		sideloader: opts.Sideloader,
		cursor:     pagination.New(opts.Page, opts.PerPage),
		fetchable:  !typ.Embedded(),
		logger:     logging.NewLogger("collection").With().Str("resource", typ.Name()).Logger(),
	}

	if opts.Path != "" {
		assoc := &resource.Association{Path: opts.Path}
		if opts.Association != nil {
			assoc.Parent = opts.Association.Parent
		}
		c.assoc = assoc
	}
	if len(c.segments) == 0 {
		c.segments = []string{typ.Name()}
	}
	if c.verb == "" {
		c.verb = client.MethodGet
	}
	if c.params == nil {
		c.params = make(map[string]any)
	}
	if c.sideloader == nil {
		c.sideloader = resource.IncludeSideloader{}
	}
	if !c.fetchable {
		c.store.populate(nil, 0)
	}

	return c
}

// Type is the declared resource type of every element.
func (c *Collection) Type() resource.Type { return c.typ }

// Association is the collection's path context, possibly nil.
func (c *Collection) Association() *resource.Association { return c.assoc }

// Path is the request path the collection fetches from.
func (c *Collection) Path() string {
	return resource.ResolvePath(c.typ.Name(), c.segments, c.assoc)
}

// Options returns a snapshot of the current configuration. An explicit
// path is reported through the association.
func (c *Collection) Options() Options {
	return Options{
		Verb:           c.verb,
		Page:           c.cursor.Page(),
		PerPage:        c.cursor.PerPage(),
		Include:        slices.Clone(c.includes),
		CollectionPath: slices.Clone(c.segments),
		Params:         maps.Clone(c.params),
		Association:    c.assoc,
		Sideloader:     c.sideloader,
	}
}

// SetPage selects a page; n <= 0 unsets it. The cache is always cleared.
func (c *Collection) SetPage(n int) *Collection {
	c.cursor.SetPage(n)
	c.invalidate()
	return c
}

// SetPerPage sets the page size; n <= 0 unsets it. The cache is always
// cleared.
func (c *Collection) SetPerPage(n int) *Collection {
	c.cursor.SetPerPage(n)
	c.invalidate()
	return c
}

// CurrentPage is the explicit page, else the page derived from the last
// response, else 1.
func (c *Collection) CurrentPage() int { return c.cursor.Current() }

// PerPage is the configured page size, 0 when unset.
func (c *Collection) PerPage() int { return c.cursor.PerPage() }

// Include adds side-load names and clears the cache.
func (c *Collection) Include(names ...string) *Collection {
	for _, n := range names {
		if n != "" && !slices.Contains(c.includes, n) {
			c.includes = append(c.includes, n)
		}
	}
	c.invalidate()
	return c
}

// Param sets a request parameter and clears the cache. A nil value removes
// the parameter.
func (c *Collection) Param(key string, value any) *Collection {
	if value == nil {
		delete(c.params, key)
	} else {
		c.params[key] = value
	}
	c.invalidate()
	return c
}

// Verb sets the fetch method and clears the cache.
func (c *Collection) Verb(method string) *Collection {
	c.verb = strings.ToUpper(method)
	c.invalidate()
	return c
}

// Clear drops the cached page and response-derived paging state. Explicit
// page and page size are kept.
func (c *Collection) Clear() {
	c.invalidate()
}

func (c *Collection) invalidate() {
	c.store.invalidate()
	c.cursor.Clear()
	if !c.fetchable {
		c.store.populate(nil, 0)
	}
}

// String renders the realized elements, or a description of the
// unrealized collection.
func (c *Collection) String() string {
	if c.store.populated {
		parts := make([]string, len(c.store.items))
		for i, r := range c.store.items {
			parts[i] = fmt.Sprint(r)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	opts := make(map[string]any, len(c.params)+3)
	maps.Copy(opts, c.params)
	if p := c.cursor.Page(); p > 0 {
		opts["page"] = p
	}
	if pp := c.cursor.PerPage(); pp > 0 {
		opts["per_page"] = pp
	}
	if len(c.includes) > 0 {
		opts["include"] = strings.Join(c.includes, ",")
	}

	keys := slices.Collect(maps.Keys(opts))
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, opts[k])
	}
	return fmt.Sprintf("%s collection [%s]", resource.Singularize(c.typ.Name()), strings.Join(pairs, ","))
}
