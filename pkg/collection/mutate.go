package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// Append realizes the current page and adds item to it. item may be a
// resource of the collection's type, an attribute map or a scalar id.
// The cached page is unchanged when item has another type.
func (c *Collection) Append(ctx context.Context, item any) error {
	c.Fetch(ctx)

	r, err := c.wrap(item)
	if err != nil {
		return err
	}
	c.store.items = append(c.store.items, r)
	return nil
}

// Replace swaps the cached page for items, all of which must be of the
// collection's type.
func (c *Collection) Replace(items []resource.Resource) error {
	for _, r := range items {
		if !resource.SameType(r, c.typ) {
			return mismatch(c.typ, r)
		}
	}
	c.store.populate(slices.Clone(items), len(items))
	return nil
}

// Save persists every cached element with pending changes. Elements stay
// cached whatever the outcome; the failures are returned joined.
func (c *Collection) Save(ctx context.Context) error {
	var errs []error
	for _, r := range c.store.items {
		if err := save(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		c.logger.Warn().Int("failed", len(errs)).Msg("Collection save incomplete")
	}
	return errors.Join(errs...)
}

// SaveStrict stops at the first failed save.
func (c *Collection) SaveStrict(ctx context.Context) error {
	for _, r := range c.store.items {
		if err := save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func save(ctx context.Context, r resource.Resource) error {
	saver, ok := r.(resource.Saver)
	if !ok || !r.Changed() {
		return nil
	}
	if err := saver.Save(ctx); err != nil {
		id, _ := r.ID()
		return fmt.Errorf("save %s %v: %w", r.Type().Name(), id, err)
	}
	return nil
}

// Create delegates to the resource type with the collection's association.
func (c *Collection) Create(ctx context.Context, attrs resource.Attributes) (resource.Resource, error) {
	return c.typ.Create(ctx, c.transport, c.crudOptions(attrs))
}

// Find delegates to the resource type with the collection's association.
func (c *Collection) Find(ctx context.Context, attrs resource.Attributes) (resource.Resource, error) {
	return c.typ.Find(ctx, c.transport, c.crudOptions(attrs))
}

// Update delegates to the resource type with the collection's association.
func (c *Collection) Update(ctx context.Context, attrs resource.Attributes) (resource.Resource, error) {
	return c.typ.Update(ctx, c.transport, c.crudOptions(attrs))
}

// Destroy delegates to the resource type with the collection's association.
func (c *Collection) Destroy(ctx context.Context, attrs resource.Attributes) (resource.Resource, error) {
	return c.typ.Destroy(ctx, c.transport, c.crudOptions(attrs))
}

func (c *Collection) crudOptions(attrs resource.Attributes) resource.Options {
	return resource.Options{Association: c.assoc, Attributes: attrs}
}
