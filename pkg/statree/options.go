package statree

import (
	"sync"

	"go.uber.org/zap"
)

// Option configures a state tree at construction time.
type Option func(*treeOptions)

// treeOptions holds configuration shared by every node of one tree.
type treeOptions struct {
	// name is the log prefix for this tree.
	name string

	// debug logs every accepted write with its path, old, and new value.
	debug bool

	// logger is the logger used for debug output.
	// If nil and debug is set, a development logger is created.
	logger *zap.Logger
}

// WithName sets the tree's name, used as the logger prefix.
//
// Example:
//
//	store := statree.New(initial, statree.WithName("cart"))
func WithName(name string) Option {
	return func(o *treeOptions) {
		o.name = name
	}
}

// WithDebug enables write logging: every accepted set is logged with the
// node's dotted path and the old and new values.
func WithDebug() Option {
	return func(o *treeOptions) {
		o.debug = true
	}
}

// WithLogger sets the logger used for debug output. Implies nothing on its
// own; combine with WithDebug to enable write logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *treeOptions) {
		o.logger = logger
	}
}

// Event describes one emission somewhere in a tree: the node's dotted path,
// the last emitted value, and the new one.
type Event struct {
	Path string
	Old  any
	New  any
}

// tree is the per-tree shared state: options, the write guard, and the
// change-feed taps. Every node of one tree holds a pointer to the same tree.
type tree struct {
	name   string
	debug  bool
	logger *zap.Logger

	guard writeGuard

	tapMu sync.RWMutex
	taps  map[uint64]func(Event)
}

// newTree builds the shared tree state from construction options.
func newTree(opts []Option) *tree {
	var o treeOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil && o.debug {
		logger = zap.Must(zap.NewDevelopment())
	}
	if logger != nil && o.name != "" {
		logger = logger.Named(o.name)
	}

	return &tree{
		name:   o.name,
		debug:  o.debug,
		logger: logger,
	}
}

// addTap registers a change-feed tap and returns its removal function.
func (t *tree) addTap(fn func(Event)) Unsubscribe {
	id := nextID()

	t.tapMu.Lock()
	if t.taps == nil {
		t.taps = make(map[uint64]func(Event))
	}
	t.taps[id] = fn
	t.tapMu.Unlock()

	return func() {
		t.tapMu.Lock()
		delete(t.taps, id)
		t.tapMu.Unlock()
	}
}

// publish reports one emission to the debug log and all registered taps.
func (t *tree) publish(ev Event) {
	if t.debug && t.logger != nil {
		t.logger.Info("set",
			zap.String("path", ev.Path),
			zap.Any("old", ev.Old),
			zap.Any("new", ev.New),
		)
	}

	t.tapMu.RLock()
	if len(t.taps) == 0 {
		t.tapMu.RUnlock()
		return
	}
	taps := make([]func(Event), 0, len(t.taps))
	for _, fn := range t.taps {
		taps = append(taps, fn)
	}
	t.tapMu.RUnlock()

	for _, fn := range taps {
		fn(ev)
	}
}

// OnChange registers a tree-wide tap: fn is invoked for every emission
// anywhere in n's tree, with the emitting node's path and the old and new
// values. The returned function removes the tap.
//
// OnChange is the feed the inspect and metrics packages ride on.
func OnChange(n Node, fn func(Event)) Unsubscribe {
	h, ok := n.(treeHolder)
	if !ok || fn == nil {
		return func() {}
	}
	return h.treeRef().addTap(fn)
}
