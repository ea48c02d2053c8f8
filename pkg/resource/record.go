package resource

import (
	"context"
	"fmt"
	"sort"

	"github.com/Sternrassler/resource-collection/pkg/client"
)

// Data is an attribute-only resource instance.
type Data struct {
	kind  *Kind
	attrs Attributes
	assoc *Association
}

func (d *Data) Type() Type { return d.kind }

func (d *Data) ID() (any, bool) {
	if !HasID(d.attrs) {
		return nil, false
	}
	return d.attrs["id"], true
}

// Attributes returns the live attribute bag.
func (d *Data) Attributes() Attributes { return d.attrs }

// Get returns a single attribute.
func (d *Data) Get(key string) any { return d.attrs[key] }

// Association is the path context the resource was created in.
func (d *Data) Association() *Association { return d.assoc }

// Changed is always false for Data; only records track changes.
func (d *Data) Changed() bool { return false }

func (d *Data) String() string {
	keys := make([]string, 0, len(d.attrs))
	for k := range d.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "#<" + d.kind.singular
	for _, k := range keys {
		out += fmt.Sprintf(" %s=%v", k, d.attrs[k])
	}
	return out + ">"
}

// Record is a persistable resource with change tracking.
type Record struct {
	*Data
	transport Transport
	changes   map[string]struct{}
}

// Set assigns an attribute and marks it changed.
func (r *Record) Set(key string, value any) {
	r.attrs[key] = value
	r.changes[key] = struct{}{}
}

// Changes returns the changed attributes.
func (r *Record) Changes() Attributes {
	out := make(Attributes, len(r.changes))
	for k := range r.changes {
		out[k] = r.attrs[k]
	}
	return out
}

// Changed reports unsaved modifications. New records are always changed.
func (r *Record) Changed() bool {
	return len(r.changes) > 0 || !HasID(r.attrs)
}

// Save creates the record when it has no id and updates it otherwise.
// Server attributes are merged back and the change set is cleared.
func (r *Record) Save(ctx context.Context) error {
	if !r.Changed() {
		return nil
	}

	path := ResolvePath(r.kind.name, nil, r.assoc)
	method := client.MethodPost
	body := r.attrs.Clone()
	if id, ok := r.ID(); ok {
		method = client.MethodPut
		path += "/" + FormatID(id)
		body = r.Changes()
	}

	attrs, err := r.kind.send(ctx, r.transport, method, path, r.kind.wrap(body))
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	for k, v := range attrs {
		r.attrs[k] = v
	}
	r.changes = make(map[string]struct{})
	return nil
}

var (
	_ Resource = (*Data)(nil)
	_ Resource = (*Record)(nil)
	_ Saver    = (*Record)(nil)
)
