package statree

import "reflect"

// A distinctness predicate reports whether next counts as unchanged relative
// to the last emitted value. True suppresses the emission.

// sameRef is reference equality: == for comparable values, data-pointer
// identity for maps, slices, pointers, channels, and funcs. The default
// policy for leaf nodes.
func sameRef(prev, next any) bool {
	if prev == nil || next == nil {
		return prev == nil && next == nil
	}

	pv, nv := reflect.ValueOf(prev), reflect.ValueOf(next)
	if pv.Type() != nv.Type() {
		return false
	}

	switch pv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return pv.Pointer() == nv.Pointer()
	default:
		if pv.Type().Comparable() {
			return prev == next
		}
		return false
	}
}

// sameDeep is structural equality. The policy for derived values (composite
// merges, element projections, select streams).
func sameDeep(prev, next any) bool {
	return reflect.DeepEqual(prev, next)
}

// sameShallowSlices is element-wise reference equality over two sequences.
// Different lengths always count as different.
func sameShallowSlices(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !sameRef(prev[i], next[i]) {
			return false
		}
	}
	return true
}

// sameDeepSlices is structural equality over two sequences.
func sameDeepSlices(prev, next []any) bool {
	return reflect.DeepEqual(prev, next)
}

// ArrayOption configures an array node's distinctness policy.
type ArrayOption func(*arrayOptions)

// arrayOptions holds per-array configuration. A nil same func is the default
// policy: every replacement emits.
type arrayOptions struct {
	same func(prev, next []any) bool
}

// DistinctNever restores the default policy: every replacement emits, even
// when the new sequence is identical.
func DistinctNever() ArrayOption {
	return func(o *arrayOptions) {
		o.same = nil
	}
}

// DistinctShallow emits only when the new sequence differs element-wise by
// reference equality (a length change always emits).
func DistinctShallow() ArrayOption {
	return func(o *arrayOptions) {
		o.same = sameShallowSlices
	}
}

// DistinctDeep emits only when the new sequence differs structurally.
func DistinctDeep() ArrayOption {
	return func(o *arrayOptions) {
		o.same = sameDeepSlices
	}
}

// DistinctFunc installs a caller-supplied comparator receiving the previous
// and next full sequences. Returning true suppresses the emission.
func DistinctFunc(same func(prev, next []any) bool) ArrayOption {
	return func(o *arrayOptions) {
		o.same = same
	}
}

// applyArrayOptions applies the given options and returns the result.
func applyArrayOptions(opts []ArrayOption) arrayOptions {
	var o arrayOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
