// Package statree provides a fine-grained reactive state container.
//
// Given an arbitrary nested value (objects, arrays, nullable objects,
// primitives), New builds a mirror tree of reactive nodes, one per reachable
// path. Reading, writing, and observing any sub-path is O(1) to address, and
// changes propagate only toward ancestors, never to siblings.
//
// # Core Types
//
// Every node implements Node:
//
//	store := statree.New(map[string]any{
//	    "user": map[string]any{"name": "Alice", "age": 30},
//	})
//	root := store.(*statree.CompositeNode)
//	name := root.Field("user").(*statree.CompositeNode).Field("name")
//	name.Get()        // "Alice"
//	name.Set("Bob")   // notifies name, user, and root subscribers
//
// Leaf nodes own their value. Array nodes own a whole sequence and expose
// per-index element projections. Composite nodes derive their value from a
// fixed set of named children. Nullable nodes switch between object and
// absent, and their pending child projections stay subscribable through the
// absent state.
//
// # Subscriptions
//
// Subscribe replays the current value synchronously, then pushes each
// distinct emission:
//
//	off := name.Subscribe(func(v any) { fmt.Println(v) })
//	defer off()
//
// # Batching
//
// Update gates a node's derived stream for the duration of a mutator, so a
// multi-field write lands as a single notification:
//
//	user.Update(func(u *statree.CompositeNode) error {
//	    u.Field("name").Set("Bob")
//	    u.Field("age").Set(31)
//	    return nil
//	})  // one notification to user's subscribers
//
// # Concurrency
//
// The engine is synchronous and assumes a single logical writer at a time.
// All notifications for a write happen in the writer's call stack, children
// before the parents that depend on them. A write guard panics if a second
// goroutine writes while a write is in flight.
package statree
