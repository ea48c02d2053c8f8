package collection

import (
	"slices"

	"github.com/Sternrassler/resource-collection/pkg/resource"
)

// store caches one realized page. A populated store with no items is a
// valid, empty page.
type store struct {
	items     []resource.Resource
	count     int
	populated bool
}

func (s *store) populate(items []resource.Resource, count int) {
	if items == nil {
		items = []resource.Resource{}
	}
	s.items = items
	s.count = count
	s.populated = true
}

func (s *store) invalidate() {
	s.items = nil
	s.count = 0
	s.populated = false
}

func (s *store) snapshot() []resource.Resource {
	return slices.Clone(s.items)
}
