package collection

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// Strategy is how Call resolved an operation name.
type Strategy int

const (
	// StrategyTypeOperation forwards to a type-level operation.
	StrategyTypeOperation Strategy = iota + 1
	// StrategySequence applies a sequence operation to the realized page.
	StrategySequence
	// StrategySubCollection derives a nested collection.
	StrategySubCollection
)

func (s Strategy) String() string {
	switch s {
	case StrategyTypeOperation:
		return "type_operation"
	case StrategySequence:
		return "sequence"
	case StrategySubCollection:
		return "sub_collection"
	default:
		return "undefined"
	}
}

// Resolution is the outcome of Call.
type Resolution struct {
	Strategy Strategy

	// Value holds the result of a type or sequence operation.
	Value any

	// Collection holds the derived sub-collection.
	Collection *Collection
}

var segmentName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// Call resolves name in order: a type-level operation of the resource type
// (invoked with the transport and args), a sequence operation on the
// realized page, or a sub-collection one path segment deeper. A trailing
// map argument is merged into the sub-collection's params. Names that are
// not valid path segments yield ErrUndefinedOperation.
func (c *Collection) Call(ctx context.Context, name string, args ...any) (*Resolution, error) {
	if op, ok := c.typ.Operation(name); ok {
		dispatchTotal.WithLabelValues(StrategyTypeOperation.String()).Inc()
		v, err := op(ctx, c.transport, args...)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.typ.Name(), name, err)
		}
		return &Resolution{Strategy: StrategyTypeOperation, Value: v}, nil
	}

	if op, ok := sequenceOps[name]; ok {
		dispatchTotal.WithLabelValues(StrategySequence.String()).Inc()
		v, err := op(c.Fetch(ctx), args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &Resolution{Strategy: StrategySequence, Value: v}, nil
	}

	if !segmentName.MatchString(name) {
		dispatchTotal.WithLabelValues("undefined").Inc()
		return nil, fmt.Errorf("%w: %q for %s collection", ErrUndefinedOperation, name, c.typ.Name())
	}

	var params map[string]any
	for i, arg := range args {
		switch v := arg.(type) {
		case map[string]any:
			if i != len(args)-1 {
				return nil, fmt.Errorf("%s: %w: params must be the last argument", name, ErrInvalidArguments)
			}
			params = v
		case resource.Attributes:
			if i != len(args)-1 {
				return nil, fmt.Errorf("%s: %w: params must be the last argument", name, ErrInvalidArguments)
			}
			params = v
		default:
			return nil, fmt.Errorf("%s: %w: unexpected %T", name, ErrInvalidArguments, arg)
		}
	}

	dispatchTotal.WithLabelValues(StrategySubCollection.String()).Inc()
	return &Resolution{Strategy: StrategySubCollection, Collection: c.SubCollection(name, params)}, nil
}

// SubCollection returns a collection one path segment deeper, sharing the
// association, starting without an explicit page and with params merged
// over the current ones.
func (c *Collection) SubCollection(name string, params map[string]any) *Collection {
	opts := c.Options()
	opts.Page = 0
	opts.CollectionPath = append(slices.Clone(c.segments), name)
	if opts.Params == nil {
		opts.Params = make(map[string]any, len(params))
	}
	maps.Copy(opts.Params, params)

	if c.assoc != nil && c.assoc.Path != "" {
		opts.Association = &resource.Association{
			Path:   c.assoc.Path + "/" + name,
			Parent: c.assoc.Parent,
		}
	}

	return New(c.transport, c.typ, opts)
}
