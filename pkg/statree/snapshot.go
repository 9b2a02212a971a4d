package statree

import "reflect"

// deepCopy returns a snapshot of v that shares no mutable containers with
// the input. Only the value universe the tree understands is copied:
// map[string]any and []any, recursively. Primitives are immutable and opaque
// references are the caller's to manage, so both pass through unchanged.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// deepCopySlice is deepCopy specialized for a whole sequence.
func deepCopySlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = deepCopy(e)
	}
	return out
}

// toSlice normalizes a write value for an array node. []any passes through;
// other slice and array kinds are converted element-wise. Anything else
// returns (nil, false).
func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
