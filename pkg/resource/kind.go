package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/resource-collection/pkg/client"
)

var (
	// ErrMissingID is returned by Find, Update and Destroy without an id.
	ErrMissingID = errors.New("resource id is required")

	// ErrMissingEnvelope is returned when a single-resource response lacks
	// the singular key.
	ErrMissingEnvelope = errors.New("response is missing the resource envelope")
)

// Kind is a Type for a plain JSON REST resource.
type Kind struct {
	name     string
	singular string
	modelKey string
	embedded bool
	ops      map[string]Operation
}

// KindOption configures a Kind.
type KindOption func(*Kind)

// WithSingular overrides the singular key used for single-resource bodies.
func WithSingular(s string) KindOption {
	return func(k *Kind) { k.singular = s }
}

// WithModelKey overrides the key holding list results.
func WithModelKey(key string) KindOption {
	return func(k *Kind) { k.modelKey = key }
}

// AsEmbedded marks the kind as embedded data that is never fetched.
func AsEmbedded() KindOption {
	return func(k *Kind) { k.embedded = true }
}

// WithOperation registers a type-level operation.
func WithOperation(name string, op Operation) KindOption {
	return func(k *Kind) { k.ops[name] = op }
}

// NewKind creates a Kind named by its plural path segment.
func NewKind(name string, opts ...KindOption) *Kind {
	k := &Kind{
		name:     name,
		singular: Singularize(name),
		modelKey: name,
		ops:      make(map[string]Operation),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Kind) Name() string     { return k.name }
func (k *Kind) ModelKey() string { return k.modelKey }
func (k *Kind) Embedded() bool   { return k.embedded }

// Singular is the key wrapping single-resource request and response bodies.
func (k *Kind) Singular() string { return k.singular }

// Operation implements Type.
func (k *Kind) Operation(name string) (Operation, bool) {
	op, ok := k.ops[name]
	return op, ok
}

// New implements Type. Embedded kinds produce *Data, others *Record.
func (k *Kind) New(t Transport, attrs Attributes, assoc *Association) Resource {
	if attrs == nil {
		attrs = Attributes{}
	}
	data := &Data{kind: k, attrs: attrs, assoc: assoc}
	if k.embedded {
		return data
	}
	return &Record{Data: data, transport: t, changes: make(map[string]struct{})}
}

// Create posts opts.Attributes to the collection path.
func (k *Kind) Create(ctx context.Context, t Transport, opts Options) (Resource, error) {
	path := ResolvePath(k.name, nil, opts.Association)
	attrs, err := k.send(ctx, t, client.MethodPost, path, k.wrap(opts.Attributes))
	if err != nil {
		return nil, err
	}
	return k.New(t, attrs, opts.Association), nil
}

// Find loads the resource identified by opts.Attributes["id"].
func (k *Kind) Find(ctx context.Context, t Transport, opts Options) (Resource, error) {
	path, err := k.memberPath(opts)
	if err != nil {
		return nil, err
	}
	attrs, err := k.send(ctx, t, client.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return k.New(t, attrs, opts.Association), nil
}

// Update puts opts.Attributes (minus the id) to the member path.
func (k *Kind) Update(ctx context.Context, t Transport, opts Options) (Resource, error) {
	path, err := k.memberPath(opts)
	if err != nil {
		return nil, err
	}
	body := opts.Attributes.Clone()
	delete(body, "id")
	attrs, err := k.send(ctx, t, client.MethodPut, path, k.wrap(body))
	if err != nil {
		return nil, err
	}
	if !HasID(attrs) {
		attrs["id"] = opts.Attributes["id"]
	}
	return k.New(t, attrs, opts.Association), nil
}

// Destroy deletes the member and returns the identity that was removed.
func (k *Kind) Destroy(ctx context.Context, t Transport, opts Options) (Resource, error) {
	path, err := k.memberPath(opts)
	if err != nil {
		return nil, err
	}
	if _, err := t.Send(ctx, client.MethodDelete, path, nil); err != nil {
		return nil, fmt.Errorf("destroy %s: %w", k.singular, err)
	}
	return k.New(t, Attributes{"id": opts.Attributes["id"]}, opts.Association), nil
}

func (k *Kind) memberPath(opts Options) (string, error) {
	if !HasID(opts.Attributes) {
		return "", fmt.Errorf("%s: %w", k.singular, ErrMissingID)
	}
	base := ResolvePath(k.name, nil, opts.Association)
	return base + "/" + FormatID(opts.Attributes["id"]), nil
}

func (k *Kind) wrap(attrs Attributes) map[string]any {
	return map[string]any{k.singular: map[string]any(attrs)}
}

func (k *Kind) send(ctx context.Context, t Transport, method, path string, params map[string]any) (Attributes, error) {
	resp, err := t.Send(ctx, method, path, params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), k.singular, err)
	}
	raw, ok := resp.Body[k.singular].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), k.singular, ErrMissingEnvelope)
	}
	return Attributes(raw), nil
}

// Singularize turns a plural path segment into its singular form.
func Singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "sses"), strings.HasSuffix(s, "xes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return s[:len(s)-1]
	default:
		return s
	}
}
