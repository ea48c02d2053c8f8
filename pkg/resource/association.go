package resource

import "strings"

// Association is the path context of a collection or resource: an explicit
// path, or a parent resource the path is nested under.
type Association struct {
	// Path overrides path generation when set.
	Path string

	// Parent is looked up, never owned.
	Parent Resource
}

// HasUnsavedParent reports whether the association points at a parent that
// has no server identity yet.
func (a *Association) HasUnsavedParent() bool {
	if a == nil || a.Parent == nil {
		return false
	}
	_, ok := a.Parent.ID()
	return !ok
}

// ResolvePath builds the request path for a resource type: an explicit
// association path wins; otherwise the collection segments (default: the
// type name) are joined with "/" and nested under a saved parent as
// <parent-type>/<parent-id>/...
func ResolvePath(typeName string, segments []string, assoc *Association) string {
	if assoc != nil && assoc.Path != "" {
		return strings.Trim(assoc.Path, "/")
	}

	if len(segments) == 0 {
		segments = []string{typeName}
	}
	parts := make([]string, 0, len(segments)+2)
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}

	if assoc != nil && assoc.Parent != nil {
		if id, ok := assoc.Parent.ID(); ok {
			prefix := []string{assoc.Parent.Type().Name(), FormatID(id)}
			parts = append(prefix, parts...)
		}
	}

	return strings.Join(parts, "/")
}
