// Package bind is the consumer adapter boundary for UI-style consumers: a
// Binding takes a synchronous snapshot on creation, forwards every update,
// and detaches on Close. The package makes no assumption about render
// scheduling; hook it to whatever loop drives the consumer.
package bind

import (
	"sync"

	"github.com/statree-dev/statree/pkg/statree"
)

// Binding adapts one node to a pull-plus-push consumer: Current for the
// synchronous snapshot, OnUpdate for push notification.
type Binding struct {
	mu        sync.Mutex
	current   any
	listeners map[uint64]func(any)
	nextID    uint64
	off       statree.Unsubscribe
	closed    bool
}

// New subscribes to n and returns the binding. The node's current value is
// captured synchronously before New returns.
func New(n statree.Node) *Binding {
	b := &Binding{listeners: make(map[uint64]func(any))}
	b.off = n.Subscribe(b.push)
	return b
}

// Current returns the latest value the binding has seen.
func (b *Binding) Current() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// OnUpdate registers fn for future updates and returns its removal. Unlike
// Subscribe on a node, there is no replay; read Current for the snapshot.
func (b *Binding) OnUpdate(fn func(any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Close detaches from the node. Further node writes no longer reach the
// binding; Current keeps returning the last seen value.
func (b *Binding) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	off := b.off
	b.mu.Unlock()

	if off != nil {
		off()
	}
}

// push records the value and fans it out to listeners.
func (b *Binding) push(v any) {
	b.mu.Lock()
	b.current = v
	fns := make([]func(any), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
