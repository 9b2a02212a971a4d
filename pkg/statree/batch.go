package statree

// batchGate is the per-node batching lock for composite, array, and
// nullable-while-present nodes. While held, the node's derived emissions are
// suppressed; releasing the outermost hold is the caller's cue to flush one
// emission of the then-current value. Nested Update calls on the same node
// stack.
//
// The gate is a logical lock, not a mutex: the write guard already enforces
// a single logical writer, so a plain depth counter is enough.
type batchGate struct {
	depth int
}

// enter takes one level of the gate.
func (g *batchGate) enter() {
	g.depth++
}

// exit releases one level and reports whether the gate is now open.
func (g *batchGate) exit() bool {
	g.depth--
	return g.depth == 0
}

// held reports whether the gate is currently suppressing emissions.
func (g *batchGate) held() bool {
	return g.depth > 0
}
