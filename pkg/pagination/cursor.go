package pagination

import (
	"regexp"
	"strconv"
)

// Step is the outcome of moving a cursor.
type Step int

const (
	// StepExhausted means there is no page in that direction.
	StepExhausted Step = iota
	// StepPage means the explicit page number changed.
	StepPage
	// StepFollow means a server-provided address is pending.
	StepFollow
)

func (s Step) String() string {
	switch s {
	case StepPage:
		return "page"
	case StepFollow:
		return "follow"
	default:
		return "exhausted"
	}
}

var pageParam = regexp.MustCompile(`[?&]page=(\d+)`)

// ParsePage extracts the page=N query parameter from an address.
func ParsePage(addr string) (int, bool) {
	m := pageParam.FindStringSubmatch(addr)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Cursor is not safe for concurrent use.
type Cursor struct {
	page    int
	perPage int

	derived int
	next    string
	prev    string
	pending string
	last    string
}

// New creates a cursor. Zero values mean "unset".
func New(page, perPage int) *Cursor {
	c := &Cursor{}
	c.SetPage(page)
	c.SetPerPage(perPage)
	return c
}

// SetPage sets the explicit page number; n <= 0 unsets it.
func (c *Cursor) SetPage(n int) {
	if n < 0 {
		n = 0
	}
	c.page = n
}

// SetPerPage sets the page size; n <= 0 unsets it.
func (c *Cursor) SetPerPage(n int) {
	if n < 0 {
		n = 0
	}
	c.perPage = n
}

// Page is the explicit page number, 0 when unset.
func (c *Cursor) Page() int { return c.page }

// PerPage is the page size, 0 when unset.
func (c *Cursor) PerPage() int { return c.perPage }

// Current is the best known page number: the explicit page, else the page
// derived from the last response, else 1.
func (c *Cursor) Current() int {
	switch {
	case c.page > 0:
		return c.page
	case c.derived > 0:
		return c.derived
	default:
		return 1
	}
}

// Next and Prev return the server-provided addresses.
func (c *Cursor) Next() string { return c.next }
func (c *Cursor) Prev() string { return c.prev }

// Pending is the address the next fetch should request, if any.
func (c *Cursor) Pending() string { return c.pending }

// SetPending schedules addr as the target of the next fetch.
func (c *Cursor) SetPending(addr string) { c.pending = addr }

// Last is the most recently taken pending address.
func (c *Cursor) Last() string { return c.last }

// TakePending returns and consumes the pending address.
func (c *Cursor) TakePending() string {
	p := c.pending
	c.pending = ""
	if p != "" {
		c.last = p
	}
	return p
}

// Update records the addresses from a response. The current page is derived
// from page=N in the next address (N-1) or, failing that, in the previous
// address (N+1). An explicit page is kept in sync with the derived value.
// Addresses without a page parameter leave the page unchanged.
func (c *Cursor) Update(next, prev string) {
	c.next = next
	c.prev = prev

	n, ok := ParsePage(next)
	if ok {
		n--
	} else if n, ok = ParsePage(prev); ok {
		n++
	}
	if !ok || n < 1 {
		return
	}

	c.derived = n
	if c.page > 0 {
		c.page = n
	}
}

// Advance moves one page forward. With an explicit page the number is
// incremented; otherwise the next address becomes pending.
func (c *Cursor) Advance() Step {
	if c.page > 0 {
		c.page++
		return StepPage
	}
	if c.next != "" {
		c.pending = c.next
		return StepFollow
	}
	return StepExhausted
}

// Retreat moves one page back. An explicit page above 1 is decremented;
// otherwise the previous address becomes pending.
func (c *Cursor) Retreat() Step {
	if c.page > 1 {
		c.page--
		return StepPage
	}
	if c.prev != "" {
		c.pending = c.prev
		return StepFollow
	}
	return StepExhausted
}

// FirstPage reports whether there is no previous address.
func (c *Cursor) FirstPage() bool { return c.prev == "" }

// LastPage reports whether there is no next address, or the next address is
// the one just requested.
func (c *Cursor) LastPage() bool {
	return c.next == "" || c.next == c.last
}

// Clear drops response-derived state. Explicit page and page size survive.
func (c *Cursor) Clear() {
	c.derived = 0
	c.next = ""
	c.prev = ""
	c.pending = ""
	c.last = ""
}
