package statree

import (
	"runtime"
	"sync/atomic"
)

// writeGuard asserts the single-logical-writer assumption. Re-entrant writes
// from the same goroutine (a subscriber writing back during propagation) are
// legal and nest; a write from a second goroutine while another write is in
// flight panics rather than corrupting propagation order.
type writeGuard struct {
	// writer is the goroutine ID of the active writer, 0 when idle.
	writer atomic.Uint64

	// depth counts nested enter calls. Only the owning goroutine touches it.
	depth int
}

// enter claims the guard for the current goroutine.
func (g *writeGuard) enter() {
	gid := goroutineID()
	if g.writer.CompareAndSwap(0, gid) {
		g.depth = 1
		return
	}
	if g.writer.Load() == gid {
		g.depth++
		return
	}
	panic("statree: concurrent write: the tree assumes a single logical writer")
}

// exit releases one level of the guard.
func (g *writeGuard) exit() {
	g.depth--
	if g.depth == 0 {
		g.writer.Store(0)
	}
}

// goroutineID returns a unique identifier for the current goroutine, parsed
// from the runtime stack header ("goroutine <id> ..."). Implementation
// detail; not exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
