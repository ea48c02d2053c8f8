package collection

import (
	"context"

	"github.com/Sternrassler/resource-collection/pkg/pagination"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// Next moves to the following page and realizes it. With an explicit page
// the number is incremented; otherwise the server's next address is
// requested once. Without either the result is empty and no request is
// made.
func (c *Collection) Next(ctx context.Context) []resource.Resource {
	c.move(c.cursor.Advance())
	return c.Fetch(ctx)
}

// Prev moves to the preceding page and realizes it.
func (c *Collection) Prev(ctx context.Context) []resource.Resource {
	c.move(c.cursor.Retreat())
	return c.Fetch(ctx)
}

// FirstPage reports whether the last response had no previous address.
func (c *Collection) FirstPage() bool { return c.cursor.FirstPage() }

// LastPage reports whether the last response had no next address.
func (c *Collection) LastPage() bool { return c.cursor.LastPage() }

func (c *Collection) move(step pagination.Step) {
	switch step {
	case pagination.StepPage:
		c.invalidate()
	case pagination.StepFollow:
		// keep the pending address; the response replaces the rest
		c.store.invalidate()
	default:
		c.invalidate()
		c.store.populate(nil, 0)
		fetchesTotal.WithLabelValues(c.typ.Name(), outcomeExhausted).Inc()
	}
}

// PageFunc receives each element of a walk with its 1-based page number.
type PageFunc func(r resource.Resource, page int) error

// EachPage walks every page from page 1, calling fn for each element, and
// stops at the first empty page or the first error returned by fn. Fetch
// failures end the walk like an empty page. The explicit page in effect
// before the walk is restored afterwards and the cache is cleared.
func (c *Collection) EachPage(ctx context.Context, fn PageFunc) error {
	return c.eachPage(ctx, false, fn)
}

// EachPageStrict is EachPage returning fetch failures.
func (c *Collection) EachPageStrict(ctx context.Context, fn PageFunc) error {
	return c.eachPage(ctx, true, fn)
}

func (c *Collection) eachPage(ctx context.Context, strict bool, fn PageFunc) error {
	start := c.cursor.Page()
	c.SetPage(1)
	defer c.SetPage(start)

	pages := 0
	for {
		items, err := c.fetch(ctx, false, strict)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			break
		}

		page := c.cursor.Current()
		for _, r := range items {
			if err := fn(r, page); err != nil {
				return err
			}
		}
		pages++
		c.move(c.cursor.Advance())
	}

	c.logger.Debug().Int("pages", pages).Msg("Walked all pages")
	return nil
}
