package statree

// nullableValue tags a construction value so the engine builds a
// NullableNode for it instead of inferring the node kind from the runtime
// value alone. The tag travels alongside the value; the caller's value is
// never mutated.
type nullableValue struct{ Value any }

// Nullable marks an initial value (an object or nil) as nullable. Use it
// inside the value handed to New:
//
//	store := statree.New(map[string]any{
//	    "user": statree.Nullable(nil),
//	})
func Nullable(v any) any {
	return nullableValue{Value: v}
}

// arrayValue tags a construction value with a distinctness policy for the
// array node built from it.
type arrayValue struct {
	Items []any
	opts  []ArrayOption
}

// Array marks an initial sequence and configures the array node built from
// it. Plain []any values build array nodes too, with the default
// emit-on-every-replacement policy; the marker is only needed to carry
// options:
//
//	items := statree.New(statree.Array([]any{1, 2, 3}, statree.DistinctShallow()))
func Array(items any, opts ...ArrayOption) any {
	s, _ := toSlice(items)
	return arrayValue{Items: s, opts: opts}
}

// New builds the mirror tree of reactive nodes for initial and returns its
// root. Nodes for every reachable path are constructed eagerly, except a
// nullable's pending projections, which appear on first access.
//
// map[string]any builds a composite, []any (or the Array marker) an array,
// the Nullable marker a nullable, and everything else a leaf. New panics on
// an initial value containing a reference cycle; after construction, cycles
// are reported as errors by Set.
func New(initial any, opts ...Option) Node {
	if err := checkCycle(initial); err != nil {
		panic("statree: New: " + err.Error())
	}
	t := newTree(opts)
	return buildNode(t, "", initial)
}

// buildNode dispatches one construction value to its node kind.
func buildNode(t *tree, path string, v any) Node {
	switch val := v.(type) {
	case nullableValue:
		return newNullableNode(t, path, val.Value)
	case arrayValue:
		return newArrayNode(t, path, val.Items, val.opts...)
	case map[string]any:
		return newCompositeNode(t, path, val)
	case []any:
		return newArrayNode(t, path, val)
	default:
		return newLeafNode(t, path, v)
	}
}
