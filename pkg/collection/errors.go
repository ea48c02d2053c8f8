package collection

import "errors"

var (
	// ErrTypeMismatch is returned when an element of another resource type
	// is added to a collection.
	ErrTypeMismatch = errors.New("resource type mismatch")

	// ErrUndefinedOperation is returned by Call for names that cannot be
	// resolved to any dispatch strategy.
	ErrUndefinedOperation = errors.New("undefined operation")

	// ErrUnexpectedEnvelope is returned when a list response has no result
	// list under the model key or "results".
	ErrUnexpectedEnvelope = errors.New("unexpected response envelope")

	// ErrInvalidArguments is returned when a dispatched operation receives
	// arguments of the wrong shape.
	ErrInvalidArguments = errors.New("invalid arguments")
)
