// Package resource defines the contracts a Collection relies on: resource
// types with type-level operations, resource instances with change tracking,
// the association (parent/path) context and the sideloading hook. It also
// ships Kind and Record, a generic implementation for JSON REST APIs.
package resource

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/Sternrassler/resource-collection/pkg/client"
)

// Attributes is a resource's attribute bag as decoded from JSON.
type Attributes map[string]any

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Transport sends one API request. *client.Client implements it.
type Transport interface {
	Send(ctx context.Context, method, target string, params map[string]any) (*client.Response, error)
}

// Resource is an instance of a resource type.
type Resource interface {
	// Type is the declared resource type of the instance.
	Type() Type

	// ID returns the server identity; ok is false for unsaved resources.
	ID() (id any, ok bool)

	Attributes() Attributes

	// Changed reports pending, unsaved modifications.
	Changed() bool
}

// Saver is the optional persistence capability of a Resource.
type Saver interface {
	Save(ctx context.Context) error
}

// Operation is a type-level operation invoked with a transport.
type Operation func(ctx context.Context, t Transport, args ...any) (any, error)

// Options carries the context of a type-level CRUD call.
type Options struct {
	Association *Association
	Attributes  Attributes
}

// Type describes a resource type and its type-level behaviour.
type Type interface {
	// Name is the plural path segment, e.g. "tickets".
	Name() string

	// ModelKey locates the result list in a list response.
	ModelKey() string

	// Embedded types are never fetched on their own.
	Embedded() bool

	// New wraps attributes into an instance of this type.
	New(t Transport, attrs Attributes, assoc *Association) Resource

	Create(ctx context.Context, t Transport, opts Options) (Resource, error)
	Find(ctx context.Context, t Transport, opts Options) (Resource, error)
	Update(ctx context.Context, t Transport, opts Options) (Resource, error)
	Destroy(ctx context.Context, t Transport, opts Options) (Resource, error)

	// Operation looks up a type-level operation by name.
	Operation(name string) (Operation, bool)
}

// Sideloader merges side-loaded records from a list response into resources.
type Sideloader interface {
	Sideload(resources []Resource, includes []string, body map[string]any)
}

// SameType reports whether r is an instance of t.
func SameType(r Resource, t Type) bool {
	if r == nil || r.Type() == nil || t == nil {
		return false
	}
	return r.Type().Name() == t.Name()
}

// HasID reports whether attrs carry a usable id.
func HasID(attrs Attributes) bool {
	switch v := attrs["id"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	default:
		return true
	}
}

// FormatID renders an id for use in a path. JSON numbers decode as float64;
// integral values are printed without a fraction.
func FormatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
