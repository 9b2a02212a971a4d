package statree

import "testing"

func TestGuardAllowsReentrantWrites(t *testing.T) {
	n := New(0)

	done := false
	n.Subscribe(func(v any) {
		if v == 1 && !done {
			done = true
			n.Set(2) // write-back from a callback, same goroutine
		}
	})

	n.Set(1)
	if n.Get() != 2 {
		t.Errorf("re-entrant write lost, got %v", n.Get())
	}
}

func TestGuardPanicsOnConcurrentWrite(t *testing.T) {
	root := New(map[string]any{"a": 0, "b": 0}).(*CompositeNode)
	a, b := root.Field("a"), root.Field("b")

	panicked := make(chan bool, 1)
	inCallback := make(chan struct{})
	release := make(chan struct{})

	first := true
	a.Subscribe(func(any) {
		if first {
			first = false
			return
		}
		// Hold the write open while a second goroutine writes.
		close(inCallback)
		<-release
	})

	go func() {
		<-inCallback
		defer func() {
			panicked <- recover() != nil
			close(release)
		}()
		b.Set(1)
	}()

	a.Set(1)
	if !<-panicked {
		t.Error("expected the second goroutine's write to panic")
	}
}

func TestGoroutineIDIsStable(t *testing.T) {
	if goroutineID() != goroutineID() {
		t.Error("goroutine ID must be stable within a goroutine")
	}

	otherID := make(chan uint64, 1)
	go func() { otherID <- goroutineID() }()
	if <-otherID == goroutineID() {
		t.Error("distinct goroutines must have distinct IDs")
	}
}
