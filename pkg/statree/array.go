package statree

import "sync"

// ArrayNode is the reactive cell for a whole sequence. It is authoritative
// for the sequence; the element nodes handed out by At are projections that
// read and write through this node's store.
//
// The default distinctness policy is to emit on every replacement; configure
// DistinctShallow, DistinctDeep, or DistinctFunc per instance.
type ArrayNode struct {
	nodeBase

	mu    sync.RWMutex
	items []any

	opts arrayOptions

	elemMu sync.Mutex
	elems  map[int]*ElementNode

	gate batchGate

	lenOnce sync.Once
	lenNode *derivedNode
}

// newArrayNode builds an array node holding a snapshot of initial.
func newArrayNode(t *tree, path string, initial []any, opts ...ArrayOption) *ArrayNode {
	a := &ArrayNode{
		items: deepCopySlice(initial),
		opts:  applyArrayOptions(opts),
		elems: make(map[int]*ElementNode),
	}

	same := func(prev, next any) bool {
		if a.opts.same == nil {
			return false
		}
		p, _ := prev.([]any)
		n, _ := next.([]any)
		return a.opts.same(p, n)
	}
	a.init(t, path, a.snapshotAny, same)
	return a
}

// Get returns a snapshot of the whole sequence as []any.
func (a *ArrayNode) Get() any {
	return a.snapshotAny()
}

// Set replaces the whole sequence. Slices of any element type are accepted;
// non-slice values are ignored. Element projections for indices beyond the
// new length are invalidated; projections that still resolve keep working
// and re-emit their new value.
func (a *ArrayNode) Set(v any) error {
	s, ok := toSlice(v)
	if !ok {
		return nil
	}
	if err := checkCycle(s); err != nil {
		return err
	}

	a.tree.guard.enter()
	defer a.tree.guard.exit()

	a.mu.Lock()
	a.items = deepCopySlice(s)
	n := len(a.items)
	a.mu.Unlock()

	a.dropElemsFrom(n)
	a.changed()
	return nil
}

// At returns the element projection for index i, memoized per index. Out of
// range (including negative — indices are not wrapped) returns nil.
func (a *ArrayNode) At(i int) Node {
	if i < 0 || i >= a.Len() {
		return nil
	}

	a.elemMu.Lock()
	defer a.elemMu.Unlock()
	if e, ok := a.elems[i]; ok {
		return e
	}
	e := newElementNode(a, i)
	a.elems[i] = e
	return e
}

// Push appends items and returns the new length.
func (a *ArrayNode) Push(items ...any) (int, error) {
	if err := checkCycle(items); err != nil {
		return a.Len(), err
	}

	a.tree.guard.enter()
	defer a.tree.guard.exit()

	a.mu.Lock()
	next := make([]any, 0, len(a.items)+len(items))
	next = append(next, a.items...)
	for _, it := range items {
		next = append(next, deepCopy(it))
	}
	a.items = next
	n := len(next)
	a.mu.Unlock()

	a.changed()
	return n, nil
}

// Pop removes and returns the last element. The second return is false on an
// empty sequence.
func (a *ArrayNode) Pop() (any, bool) {
	a.tree.guard.enter()
	defer a.tree.guard.exit()

	a.mu.Lock()
	n := len(a.items)
	if n == 0 {
		a.mu.Unlock()
		return nil, false
	}
	last := a.items[n-1]
	next := make([]any, n-1)
	copy(next, a.items[:n-1])
	a.items = next
	a.mu.Unlock()

	a.dropElemsFrom(n - 1)
	a.changed()
	return last, true
}

// Len returns the current length.
func (a *ArrayNode) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Length returns an observable view of the length: a derived int stream that
// emits only when the length actually changes, regardless of the array's own
// distinctness policy.
func (a *ArrayNode) Length() Node {
	a.lenOnce.Do(func() {
		a.lenNode = newDerivedNode(a.tree, joinPath(a.path, "length"),
			[]hooker{a},
			func() any { return a.Len() },
			func(prev, next any) bool { return prev == next },
		)
	})
	return a.lenNode
}

// Map returns a non-reactive snapshot with fn applied to every element.
func (a *ArrayNode) Map(fn func(any) any) []any {
	s := a.snapshot()
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = fn(e)
	}
	return out
}

// Filter returns a non-reactive snapshot of the elements satisfying pred.
func (a *ArrayNode) Filter(pred func(any) bool) []any {
	s := a.snapshot()
	out := make([]any, 0, len(s))
	for _, e := range s {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Update runs mutator with the batch lock held: element and whole-sequence
// writes inside it land in the store immediately, but the array's stream
// flushes a single emission when the mutator returns. The lock is released
// even when the mutator fails or panics.
func (a *ArrayNode) Update(mutator func(*ArrayNode) error) (any, error) {
	a.tree.guard.enter()
	defer a.tree.guard.exit()

	err := a.runLocked(func() error { return mutator(a) })
	return a.Get(), err
}

func (a *ArrayNode) runLocked(fn func() error) error {
	a.gate.enter()
	defer func() {
		if a.gate.exit() {
			a.emit(a.snapshotAny())
		}
	}()
	return fn()
}

// setAt replaces the element at index i copy-on-write: clone the sequence,
// assign the index, swap the store. Out of range is a no-op.
func (a *ArrayNode) setAt(i int, v any) error {
	if err := checkCycle(v); err != nil {
		return err
	}

	a.tree.guard.enter()
	defer a.tree.guard.exit()

	a.mu.Lock()
	if i < 0 || i >= len(a.items) {
		a.mu.Unlock()
		return nil
	}
	next := make([]any, len(a.items))
	copy(next, a.items)
	next[i] = deepCopy(v)
	a.items = next
	a.mu.Unlock()

	a.changed()
	return nil
}

// valueAt returns a snapshot of the element at index i, or nil out of range.
func (a *ArrayNode) valueAt(i int) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return deepCopy(a.items[i])
}

// changed emits the current snapshot unless the gate is held.
func (a *ArrayNode) changed() {
	if a.gate.held() {
		return
	}
	a.emit(a.snapshotAny())
}

// dropElemsFrom invalidates cached element projections at index n and above.
// Outstanding references to dropped projections keep reading through the
// store and emit nil while out of range.
func (a *ArrayNode) dropElemsFrom(n int) {
	a.elemMu.Lock()
	defer a.elemMu.Unlock()
	for i := range a.elems {
		if i >= n {
			delete(a.elems, i)
		}
	}
}

func (a *ArrayNode) snapshot() []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return deepCopySlice(a.items)
}

func (a *ArrayNode) snapshotAny() any {
	return a.snapshot()
}
