package collection

import (
	"fmt"
	"slices"

	"github.com/Sternrassler/resource-collection/pkg/resource"
)

type sequenceOp func(items []resource.Resource, args []any) (any, error)

// sequenceOps are the list operations Call applies to a realized page.
var sequenceOps = map[string]sequenceOp{
	"size":     seqSize,
	"length":   seqSize,
	"empty":    seqEmpty,
	"any":      seqAny,
	"first":    seqFirst,
	"last":     seqLast,
	"at":       seqAt,
	"contains": seqContains,
	"ids":      seqIDs,
	"map":      seqMap,
	"select":   seqFilter(true),
	"filter":   seqFilter(true),
	"reject":   seqFilter(false),
	"find":     seqFind,
	"each":     seqEach,
	"reverse":  seqReverse,
}

func seqSize(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	return len(items), nil
}

func seqEmpty(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	return len(items) == 0, nil
}

// any with a predicate reports whether one element matches.
func seqAny(items []resource.Resource, args []any) (any, error) {
	if len(args) == 0 {
		return len(items) > 0, nil
	}
	pred, err := predicate(args)
	if err != nil {
		return nil, err
	}
	return slices.ContainsFunc(items, pred), nil
}

// first and last take an optional count and then return a list.
func seqFirst(items []resource.Resource, args []any) (any, error) {
	if len(args) == 0 {
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	}
	n, err := intArg(args)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items[:min(n, len(items))]), nil
}

func seqLast(items []resource.Resource, args []any) (any, error) {
	if len(args) == 0 {
		if len(items) == 0 {
			return nil, nil
		}
		return items[len(items)-1], nil
	}
	n, err := intArg(args)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items[len(items)-min(n, len(items)):]), nil
}

func seqAt(items []resource.Resource, args []any) (any, error) {
	i, err := intArg(args)
	if err != nil {
		return nil, err
	}
	if i >= len(items) {
		return nil, nil
	}
	return items[i], nil
}

func seqContains(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	target, ok := args[0].(resource.Resource)
	if !ok {
		return false, nil
	}
	tid, tok := target.ID()
	return slices.ContainsFunc(items, func(r resource.Resource) bool {
		if r == target {
			return true
		}
		id, ok := r.ID()
		return ok && tok && resource.SameType(r, target.Type()) && resource.FormatID(id) == resource.FormatID(tid)
	}), nil
}

func seqIDs(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(items))
	for _, r := range items {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func seqMap(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	fn, ok := args[0].(func(resource.Resource) any)
	if !ok {
		return nil, fmt.Errorf("%w: want func(resource.Resource) any, got %T", ErrInvalidArguments, args[0])
	}
	out := make([]any, len(items))
	for i, r := range items {
		out[i] = fn(r)
	}
	return out, nil
}

func seqFilter(keep bool) sequenceOp {
	return func(items []resource.Resource, args []any) (any, error) {
		pred, err := predicate(args)
		if err != nil {
			return nil, err
		}
		out := make([]resource.Resource, 0, len(items))
		for _, r := range items {
			if pred(r) == keep {
				out = append(out, r)
			}
		}
		return out, nil
	}
}

func seqFind(items []resource.Resource, args []any) (any, error) {
	pred, err := predicate(args)
	if err != nil {
		return nil, err
	}
	if i := slices.IndexFunc(items, pred); i >= 0 {
		return items[i], nil
	}
	return nil, nil
}

func seqEach(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	fn, ok := args[0].(func(resource.Resource))
	if !ok {
		return nil, fmt.Errorf("%w: want func(resource.Resource), got %T", ErrInvalidArguments, args[0])
	}
	for _, r := range items {
		fn(r)
	}
	return items, nil
}

func seqReverse(items []resource.Resource, args []any) (any, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	slices.Reverse(out)
	return out, nil
}

func arity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrInvalidArguments, n, len(args))
	}
	return nil
}

func predicate(args []any) (func(resource.Resource) bool, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	fn, ok := args[0].(func(resource.Resource) bool)
	if !ok {
		return nil, fmt.Errorf("%w: want func(resource.Resource) bool, got %T", ErrInvalidArguments, args[0])
	}
	return fn, nil
}

func intArg(args []any) (int, error) {
	if err := arity(args, 1); err != nil {
		return 0, err
	}
	n, ok := args[0].(int)
	if !ok || n < 0 {
		return 0, fmt.Errorf("%w: want a non-negative int, got %v", ErrInvalidArguments, args[0])
	}
	return n, nil
}
