package query

import "strings"

// Lookup resolves a dot-separated path in a source. Lists met on the way are
// fanned out, so "authors.name" over a list of author objects yields every
// name. ok is false when any segment is absent.
func Lookup(source map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	return lookup(source, strings.Split(path, "."))
}

func lookup(v any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return v, true
	}
	switch t := v.(type) {
	case map[string]any:
		child, ok := t[segments[0]]
		if !ok {
			return nil, false
		}
		return lookup(child, segments[1:])
	case []any:
		var out []any
		for _, e := range t {
			r, ok := lookup(e, segments)
			if !ok {
				continue
			}
			if list, isList := r.([]any); isList {
				out = append(out, list...)
			} else {
				out = append(out, r)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}
	return nil, false
}
