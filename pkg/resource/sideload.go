package resource

// IncludeSideloader resolves side-loaded records into their owners. For an
// include "users" the body's "users" list is indexed by id; a resource with
// "user_id" receives attribute "user" and one with "user_ids" receives
// "users".
type IncludeSideloader struct{}

// Sideload implements Sideloader.
func (IncludeSideloader) Sideload(resources []Resource, includes []string, body map[string]any) {
	for _, include := range includes {
		list, ok := body[include].([]any)
		if !ok {
			continue
		}
		index := make(map[string]any, len(list))
		for _, raw := range list {
			if m, ok := raw.(map[string]any); ok && m["id"] != nil {
				index[FormatID(m["id"])] = m
			}
		}

		singular := Singularize(include)
		for _, r := range resources {
			attrs := r.Attributes()
			if id, ok := attrs[singular+"_id"]; ok && id != nil {
				if match, found := index[FormatID(id)]; found {
					attrs[singular] = match
				}
			}
			if ids, ok := attrs[singular+"_ids"].([]any); ok {
				matched := make([]any, 0, len(ids))
				for _, id := range ids {
					if match, found := index[FormatID(id)]; found {
						matched = append(matched, match)
					}
				}
				attrs[include] = matched
			}
		}
	}
}
