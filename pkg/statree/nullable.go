package statree

import (
	"sort"
	"sync"
)

// NullableNode is the reactive cell for object-or-absent values. While
// absent it owns the absence marker directly, like a leaf; while present it
// derives from a child set, like a composite. Child paths are exposed as
// pending projections that stay subscribable through the absent state: a
// subscriber attached before the parent ever held an object starts receiving
// real data the moment one is assigned, and falls back to nil when the
// parent goes absent again, without re-subscribing.
type NullableNode struct {
	nodeBase

	mu      sync.RWMutex
	present bool

	// order and children are valid while present. A replacement object that
	// drops a field does not remove its child: subscribers of a field that
	// disappeared keep the last value. Deliberate, see the package tests.
	order    []string
	children map[string]Node

	pendMu  sync.Mutex
	pending map[string]*pendingNode

	gate batchGate
}

// newNullableNode builds a nullable node, present iff initial is an object.
func newNullableNode(t *tree, path string, initial any) *NullableNode {
	n := &NullableNode{pending: make(map[string]*pendingNode)}

	obj, ok := initial.(map[string]any)
	if ok && obj != nil {
		n.present = true
		n.children = make(map[string]Node, len(obj))
		n.order = sortedKeys(obj)
		for _, name := range n.order {
			n.children[name] = buildNode(t, joinPath(path, name), obj[name])
		}
	}

	n.init(t, path, n.readAny, sameDeep)

	for _, name := range n.order {
		n.attachChild(name, n.children[name])
	}
	return n
}

// Get returns the merged child values while present, nil while absent.
func (n *NullableNode) Get() any {
	return n.readAny()
}

// IsNull reports whether the node is currently absent.
func (n *NullableNode) IsNull() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return !n.present
}

// Field returns the projection for one field, lazily created and cached for
// the node's lifetime. The projection is subscribable regardless of the
// parent's state and tracks the real child across present/absent
// transitions.
func (n *NullableNode) Field(name string) Node {
	n.pendMu.Lock()
	p, ok := n.pending[name]
	if !ok {
		p = newPendingNode(n, name)
		n.pending[name] = p
	}
	n.pendMu.Unlock()

	if !ok {
		if child := n.childRef(name); child != nil {
			p.wire(child)
		}
	}
	return p
}

// Set assigns an object or the absence marker. Any non-object value counts
// as absent. Assigning an object while present writes field by field like a
// composite; fields new to this node grow children on demand, fields missing
// from the object keep their last value.
func (n *NullableNode) Set(v any) error {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		n.toAbsent()
		return nil
	}
	if err := checkCycle(obj); err != nil {
		return err
	}

	n.tree.guard.enter()
	defer n.tree.guard.exit()

	n.mu.RLock()
	present := n.present
	n.mu.RUnlock()

	if present {
		n.assign(obj)
	} else {
		n.becomePresent(obj)
	}
	return nil
}

// Update behaves like the composite Update while present: the mutator's
// writes flush as a single emission, and the lock is released even on
// failure or panic. While absent it is a documented no-op: nothing runs and
// the result is the absence value. Set an object first.
func (n *NullableNode) Update(mutator func(*NullableNode) error) (any, error) {
	if n.IsNull() {
		return nil, nil
	}

	n.tree.guard.enter()
	defer n.tree.guard.exit()

	err := n.runLocked(func() error { return mutator(n) })
	return n.Get(), err
}

func (n *NullableNode) runLocked(fn func() error) error {
	n.gate.enter()
	defer func() {
		if n.gate.exit() {
			n.emit(n.readAny())
		}
	}()
	return fn()
}

// toAbsent reverts to the absence marker. The child set is dropped; every
// pending projection detaches from its real child and emits nil, before the
// node itself emits, keeping notification order children-first.
func (n *NullableNode) toAbsent() {
	n.tree.guard.enter()
	defer n.tree.guard.exit()

	n.mu.Lock()
	n.present = false
	n.children = nil
	n.order = nil
	n.mu.Unlock()

	for _, p := range n.pendingList() {
		p.parentAbsent()
	}
	n.changed()
}

// becomePresent builds the child set from obj's keys, wires the pending
// projections that were created while absent, then emits the merged value.
func (n *NullableNode) becomePresent(obj map[string]any) {
	names := sortedKeys(obj)

	n.mu.Lock()
	n.present = true
	n.children = make(map[string]Node, len(obj))
	n.order = names
	for _, name := range names {
		n.children[name] = buildNode(n.tree, joinPath(n.path, name), obj[name])
	}
	n.mu.Unlock()

	for _, name := range names {
		n.attachChild(name, n.childRef(name))
	}
	n.changed()
}

// assign writes a replacement object field by field. Known fields route
// through the existing child (each write propagates on its own, as for a
// composite Set); unseen fields grow new children on demand.
func (n *NullableNode) assign(obj map[string]any) {
	added := false
	for _, name := range sortedKeys(obj) {
		if child := n.childRef(name); child != nil {
			_ = child.Set(obj[name])
			continue
		}

		child := buildNode(n.tree, joinPath(n.path, name), obj[name])
		n.mu.Lock()
		n.children[name] = child
		n.order = append(n.order, name)
		n.mu.Unlock()
		n.attachChild(name, child)
		added = true
	}
	if added {
		n.changed()
	}
}

// attachChild wires the pending projection (so the projection's subscribers
// hear before the parent re-derives) and then chains the child's emissions
// into this node's derivation.
func (n *NullableNode) attachChild(name string, child Node) {
	n.pendMu.Lock()
	p := n.pending[name]
	n.pendMu.Unlock()
	if p != nil {
		p.wire(child)
	}

	if h, ok := child.(hooker); ok {
		h.addHook(func(any) { n.childChanged() })
	}
}

func (n *NullableNode) childChanged() {
	if n.gate.held() {
		return
	}
	n.emit(n.readAny())
}

// readAny merges the current child values, nil while absent.
func (n *NullableNode) readAny() any {
	n.mu.RLock()
	if !n.present {
		n.mu.RUnlock()
		return nil
	}
	order := make([]string, len(n.order))
	copy(order, n.order)
	children := n.children
	n.mu.RUnlock()

	m := make(map[string]any, len(order))
	for _, name := range order {
		m[name] = children[name].Get()
	}
	return m
}

// childValue reads one real child's value, nil while absent or unknown.
func (n *NullableNode) childValue(name string) any {
	child := n.childRef(name)
	if child == nil {
		return nil
	}
	return child.Get()
}

// childRef returns the real child for name, nil while absent or unknown.
func (n *NullableNode) childRef(name string) Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.present {
		return nil
	}
	return n.children[name]
}

// setChild routes a pending projection's write to the real child. A write
// while absent, or to a field with no real child, is a no-op.
func (n *NullableNode) setChild(name string, v any) error {
	child := n.childRef(name)
	if child == nil {
		return nil
	}
	return child.Set(v)
}

func (n *NullableNode) changed() {
	if n.gate.held() {
		return
	}
	n.emit(n.readAny())
}

func (n *NullableNode) pendingList() []*pendingNode {
	n.pendMu.Lock()
	defer n.pendMu.Unlock()
	out := make([]*pendingNode, 0, len(n.pending))
	for _, p := range n.pending {
		out = append(out, p)
	}
	return out
}

// pendingNode is the always-valid projection of one nullable field. While
// the parent is absent it emits nil; once the parent is present it forwards
// the real child's stream.
type pendingNode struct {
	nodeBase

	parent *NullableNode
	name   string

	// unhook detaches from the currently wired real child.
	unhook Unsubscribe
}

func newPendingNode(parent *NullableNode, name string) *pendingNode {
	p := &pendingNode{parent: parent, name: name}
	p.init(parent.tree, joinPath(parent.path, name), p.readThrough, sameDeep)
	return p
}

// Get reads through the real child, nil while the parent is absent.
func (p *pendingNode) Get() any {
	return p.readThrough()
}

// Set writes through to the real child. While the parent is absent, or the
// field has no real child, the write is a no-op.
func (p *pendingNode) Set(v any) error {
	return p.parent.setChild(p.name, v)
}

// wire subscribes to the real child's stream and pushes its current value,
// replacing any previous wiring.
func (p *pendingNode) wire(child Node) {
	if p.unhook != nil {
		p.unhook()
		p.unhook = nil
	}
	if h, ok := child.(hooker); ok {
		p.unhook = h.addHook(func(v any) { p.emit(v) })
	}
	p.emit(child.Get())
}

// parentAbsent detaches from the real child and emits the absence value.
func (p *pendingNode) parentAbsent() {
	if p.unhook != nil {
		p.unhook()
		p.unhook = nil
	}
	p.emit(nil)
}

func (p *pendingNode) readThrough() any {
	return p.parent.childValue(p.name)
}

// sortedKeys returns obj's keys in sorted order for deterministic iteration.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
