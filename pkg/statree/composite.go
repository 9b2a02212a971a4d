package statree

import "sort"

// CompositeNode is the reactive view over a fixed set of named children. The
// children are authoritative; the composite's value is the merge of their
// current values, re-derived whenever any child emits.
type CompositeNode struct {
	nodeBase

	// names is the fixed field set, sorted for deterministic iteration.
	names    []string
	children map[string]Node

	gate batchGate
}

// newCompositeNode builds the composite and one child node per field.
func newCompositeNode(t *tree, path string, fields map[string]any) *CompositeNode {
	c := &CompositeNode{
		names:    make([]string, 0, len(fields)),
		children: make(map[string]Node, len(fields)),
	}
	for name := range fields {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	for _, name := range c.names {
		c.children[name] = buildNode(t, joinPath(path, name), fields[name])
	}

	c.init(t, path, c.mergeAny, sameDeep)

	for _, name := range c.names {
		if h, ok := c.children[name].(hooker); ok {
			h.addHook(func(any) { c.childChanged() })
		}
	}
	return c
}

// Get returns the merge of all children's current values.
func (c *CompositeNode) Get() any {
	return c.merge()
}

// Field returns the child node for name, or nil if the composite has no such
// field. The field set is fixed at construction.
func (c *CompositeNode) Field(name string) Node {
	return c.children[name]
}

// Set assigns each field of v to the corresponding child. This is not atomic
// at this layer: every changed child emits and propagates on its own, so the
// composite's subscribers see one notification per changed field. Use Update
// for a single notification.
//
// Fields of v that the composite does not know are ignored; known fields
// missing from v keep their value. Non-map values are ignored entirely.
func (c *CompositeNode) Set(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if err := checkCycle(m); err != nil {
		return err
	}

	c.tree.guard.enter()
	defer c.tree.guard.exit()

	for _, name := range c.names {
		if val, present := m[name]; present {
			// Child writes re-check for cycles; the whole-value check above
			// already rejected, so these cannot fail.
			_ = c.children[name].Set(val)
		}
	}
	return nil
}

// Update runs mutator against this composite with the batch lock held:
// however many descendant writes the mutator performs, the composite's
// subscribers get at most one notification, carrying the final merged value.
// Child subscribers still see each write as it lands.
//
// The lock is released even when the mutator fails or panics; writes made
// before the failure stay committed. The returned value is the final merge.
func (c *CompositeNode) Update(mutator func(*CompositeNode) error) (any, error) {
	if len(c.names) == 0 {
		return c.Get(), nil
	}

	c.tree.guard.enter()
	defer c.tree.guard.exit()

	err := c.runLocked(func() error { return mutator(c) })
	return c.Get(), err
}

// runLocked holds the gate around fn and flushes one emission on release.
func (c *CompositeNode) runLocked(fn func() error) error {
	c.gate.enter()
	defer func() {
		if c.gate.exit() {
			c.emit(c.mergeAny())
		}
	}()
	return fn()
}

// childChanged re-derives and emits unless the gate is held. The flush on
// gate release covers the held case.
func (c *CompositeNode) childChanged() {
	if c.gate.held() {
		return
	}
	c.emit(c.mergeAny())
}

// merge reads every child's current value into a fresh map.
func (c *CompositeNode) merge() map[string]any {
	m := make(map[string]any, len(c.names))
	for _, name := range c.names {
		m[name] = c.children[name].Get()
	}
	return m
}

func (c *CompositeNode) mergeAny() any {
	return c.merge()
}
