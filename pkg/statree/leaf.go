package statree

import "sync"

// LeafNode is the reactive cell for a primitive or opaque value. It is the
// authoritative store for its value; there are no children.
//
// The distinctness policy is reference equality: writing the same value
// again does not notify.
type LeafNode struct {
	nodeBase

	mu    sync.RWMutex
	value any
}

// newLeafNode builds a leaf holding a snapshot of initial.
func newLeafNode(t *tree, path string, initial any) *LeafNode {
	l := &LeafNode{value: deepCopy(initial)}
	l.init(t, path, l.snapshot, sameRef)
	return l
}

// Get returns a snapshot of the current value.
func (l *LeafNode) Get() any {
	return l.snapshot()
}

// Set stores v and notifies subscribers synchronously. Every value is
// accepted except one containing a reference cycle.
func (l *LeafNode) Set(v any) error {
	if err := checkCycle(v); err != nil {
		return err
	}

	l.tree.guard.enter()
	defer l.tree.guard.exit()

	next := deepCopy(v)
	l.mu.Lock()
	l.value = next
	l.mu.Unlock()

	l.emit(l.snapshot())
	return nil
}

func (l *LeafNode) snapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return deepCopy(l.value)
}
