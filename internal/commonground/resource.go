package commonground

// Resource is a generic JSON resource as returned by the CommonGround
// components. Single resources carry an "id" and usually an "@id" (the
// canonical URL); collections wrap their members in a hydra envelope.
type Resource map[string]any

// ID returns the resource's "id" field.
func (r Resource) ID() string {
	return r.String("id")
}

// IRI returns the resource's canonical "@id" URL.
func (r Resource) IRI() string {
	return r.String("@id")
}

// String walks the given nested keys and returns the string value found
// there, or "" when any step is missing or not the expected shape.
func (r Resource) String(keys ...string) string {
	var current any = map[string]any(r)
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[key]
		if !ok {
			return ""
		}
	}
	s, _ := current.(string)
	return s
}

// Strings returns the []string value at the given nested keys. JSON arrays
// decode as []any, so each element is converted individually; non-string
// elements are skipped.
func (r Resource) Strings(keys ...string) []string {
	var current any = map[string]any(r)
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	items, ok := current.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Roles returns the resource's "roles" array, or an empty slice when the
// resource carries none.
func (r Resource) Roles() []string {
	roles := r.Strings("roles")
	if roles == nil {
		return []string{}
	}
	return roles
}
