package statree

import "sync"

// Unsubscribe detaches a subscription. Calling it more than once is safe.
// It stops future notifications but has no effect on in-flight synchronous
// propagation.
type Unsubscribe func()

// Node is one reactive unit addressing one path in the state tree.
//
// Get never fails: reading a child of an absent nullable returns nil. Set
// returns ErrCircularReference when the value graph contains a cycle (the
// store is left unchanged) and ErrReadOnly on derived nodes; it is nil
// otherwise. Values returned by Get and handed to subscribers are snapshots:
// mutating them does not affect stored state.
type Node interface {
	Get() any
	Set(v any) error
	Subscribe(fn func(any)) Unsubscribe
	SubscribeOnce(fn func(any)) Unsubscribe
	Path() string
}

// subscriber is one external Subscribe registration.
type subscriber struct {
	id uint64
	fn func(any)
}

// hook is one internal propagation registration: a parent composite's
// re-derivation, an element projection's re-read, or a pending child's
// forwarder. Hooks run after external subscribers so that notifications
// arrive children-first up the tree.
type hook struct {
	id uint64
	fn func(any)
}

// hooker is the internal surface nodes use to chain propagation.
type hooker interface {
	addHook(fn func(any)) Unsubscribe
}

// treeHolder exposes the shared tree state; every node implements it.
type treeHolder interface {
	treeRef() *tree
}

// nodeBase carries what every node kind shares: identity, path, the shared
// tree state, external subscribers, internal propagation hooks, and the
// emission gate (last emitted value plus the distinctness predicate).
type nodeBase struct {
	id   uint64
	path string
	tree *tree

	// read produces the node's current snapshot; set by the concrete node.
	read func() any

	// same is the distinctness predicate; nil means every emit passes.
	same func(prev, next any) bool

	subMu sync.RWMutex
	subs  []subscriber

	hookMu sync.RWMutex
	hooks  []hook

	// emitMu serializes the emitted-value bookkeeping.
	emitMu sync.Mutex
	last   any
}

// init wires the base. The initial value counts as "last emitted" so that
// writing the initial value back does not notify anyone.
func (b *nodeBase) init(t *tree, path string, read func() any, same func(prev, next any) bool) {
	b.id = nextID()
	b.path = path
	b.tree = t
	b.read = read
	b.same = same
	b.last = read()
}

// Path returns the node's dotted path from the root.
func (b *nodeBase) Path() string {
	return b.path
}

func (b *nodeBase) treeRef() *tree {
	return b.tree
}

// Subscribe registers fn, replays the current value synchronously, and
// returns the detach function.
func (b *nodeBase) Subscribe(fn func(any)) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	s := subscriber{id: nextID(), fn: fn}
	b.subMu.Lock()
	b.subs = append(b.subs, s)
	b.subMu.Unlock()

	fn(b.read())

	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		for i, existing := range b.subs {
			if existing.id == s.id {
				b.subs[i] = b.subs[len(b.subs)-1]
				b.subs = b.subs[:len(b.subs)-1]
				return
			}
		}
	}
}

// SubscribeOnce delivers exactly one value, the current one, and detaches.
// The returned Unsubscribe is a no-op kept for interface symmetry.
func (b *nodeBase) SubscribeOnce(fn func(any)) Unsubscribe {
	if fn != nil {
		fn(b.read())
	}
	return func() {}
}

// addHook registers an internal propagation hook and returns its removal.
func (b *nodeBase) addHook(fn func(any)) Unsubscribe {
	h := hook{id: nextID(), fn: fn}
	b.hookMu.Lock()
	b.hooks = append(b.hooks, h)
	b.hookMu.Unlock()

	return func() {
		b.hookMu.Lock()
		defer b.hookMu.Unlock()
		for i, existing := range b.hooks {
			if existing.id == h.id {
				b.hooks[i] = b.hooks[len(b.hooks)-1]
				b.hooks = b.hooks[:len(b.hooks)-1]
				return
			}
		}
	}
}

// emit pushes next through the distinctness gate. When it passes, the value
// is published to the change feed, then to external subscribers, then to
// propagation hooks; hooks last keeps notification order children-first.
// next must already be a snapshot the caller will not mutate.
func (b *nodeBase) emit(next any) {
	b.emitMu.Lock()
	if b.same != nil && b.same(b.last, next) {
		b.emitMu.Unlock()
		return
	}
	old := b.last
	b.last = next
	b.emitMu.Unlock()

	b.tree.publish(Event{Path: b.path, Old: old, New: next})

	b.subMu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()
	for _, s := range subs {
		s.fn(next)
	}

	b.hookMu.RLock()
	hooks := make([]hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.hookMu.RUnlock()
	for _, h := range hooks {
		h.fn(next)
	}
}

// joinPath joins a parent path and a field name with a dot.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
