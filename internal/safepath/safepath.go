// Package safepath provides tolerant lookups into decoded JSON documents (nested map[string]any / []any
// structures). Every step of a path that does not match the shape of the data short-circuits to a default
// value instead of panicking, so callers can extract fields from arbitrarily malformed upstream records.
package safepath

// Get descends through nested maps and slices by the given sequence of string keys and integer indices,
// returning nil the moment any step is absent or the container has an unexpected type.
func Get(data any, path ...any) any {
	current := data
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current, ok = m[key]
			if !ok {
				return nil
			}
		case int:
			s, ok := current.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil
			}
			current = s[key]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// String returns the string at the given path, or "" on any mismatch.
func String(data any, path ...any) string {
	if v, ok := Get(data, path...).(string); ok {
		return v
	}
	return ""
}

// Bool returns the bool at the given path, or false on any mismatch.
func Bool(data any, path ...any) bool {
	if v, ok := Get(data, path...).(bool); ok {
		return v
	}
	return false
}

// Map returns the object at the given path, or nil on any mismatch.
func Map(data any, path ...any) map[string]any {
	if v, ok := Get(data, path...).(map[string]any); ok {
		return v
	}
	return nil
}

// Slice returns the array at the given path, or nil on any mismatch.
func Slice(data any, path ...any) []any {
	if v, ok := Get(data, path...).([]any); ok {
		return v
	}
	return nil
}
