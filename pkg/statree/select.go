package statree

import (
	"sort"
	"strings"
)

// derivedNode is a read-only stream computed from one or more source nodes.
// It re-evaluates whenever any source emits and pushes the result through
// its own distinctness gate.
type derivedNode struct {
	nodeBase

	compute func() any
}

func newDerivedNode(t *tree, path string, sources []hooker, compute func() any, same func(prev, next any) bool) *derivedNode {
	d := &derivedNode{compute: compute}
	d.init(t, path, compute, same)
	for _, s := range sources {
		s.addHook(func(any) { d.emit(d.compute()) })
	}
	return d
}

// Get returns the current derived value.
func (d *derivedNode) Get() any {
	return d.compute()
}

// Set always fails: derived nodes have no store.
func (d *derivedNode) Set(any) error {
	return ErrReadOnly
}

// Select merges several nodes into one derived stream emitting the tuple of
// their current values as []any, in argument order. The stream re-evaluates
// whenever any source emits and is deduplicated structurally.
//
// Returns nil when called with no nodes.
func Select(nodes ...Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	t := nodes[0].(treeHolder).treeRef()

	paths := make([]string, len(nodes))
	sources := make([]hooker, 0, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path()
		if h, ok := n.(hooker); ok {
			sources = append(sources, h)
		}
	}

	compute := func() any {
		out := make([]any, len(nodes))
		for i, n := range nodes {
			out[i] = n.Get()
		}
		return out
	}
	return newDerivedNode(t, "select("+strings.Join(paths, ",")+")", sources, compute, sameDeep)
}

// SelectNamed is the named-object form of Select: the derived stream emits a
// map from the given names to the sources' current values.
//
// Returns nil when called with no nodes.
func SelectNamed(fields map[string]Node) Node {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var t *tree
	paths := make([]string, 0, len(names))
	sources := make([]hooker, 0, len(names))
	for _, name := range names {
		n := fields[name]
		if t == nil {
			t = n.(treeHolder).treeRef()
		}
		paths = append(paths, fields[name].Path())
		if h, ok := n.(hooker); ok {
			sources = append(sources, h)
		}
	}

	compute := func() any {
		out := make(map[string]any, len(fields))
		for name, n := range fields {
			out[name] = n.Get()
		}
		return out
	}
	return newDerivedNode(t, "select("+strings.Join(paths, ",")+")", sources, compute, sameDeep)
}

// SelectFromEach derives a per-element projection of an array node: the
// stream emits sel applied to every element. Its distinctness check runs on
// the projected sequence and is independent of the source array's own
// policy; the default is structural equality, so projections that do not
// change do not re-notify even when the source always emits.
func SelectFromEach(arr *ArrayNode, sel func(any) any, opts ...ArrayOption) Node {
	o := applyArrayOptions(opts)
	same := o.same
	if same == nil {
		same = sameDeepSlices
	}

	compute := func() any {
		src := arr.snapshot()
		out := make([]any, len(src))
		for i, e := range src {
			out[i] = sel(e)
		}
		return out
	}
	wrap := func(prev, next any) bool {
		p, _ := prev.([]any)
		n, _ := next.([]any)
		return same(p, n)
	}
	return newDerivedNode(arr.tree, joinPath(arr.path, "each"), []hooker{arr}, compute, wrap)
}
