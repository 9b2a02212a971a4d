package statree

import (
	"reflect"
	"testing"
)

func newSessionStore() (*CompositeNode, *NullableNode) {
	root := New(map[string]any{
		"user":  Nullable(nil),
		"theme": "dark",
	}).(*CompositeNode)
	return root, root.Field("user").(*NullableNode)
}

func TestNullableDeepSubscribeBeforePresent(t *testing.T) {
	_, user := newSessionStore()

	var rec recorder
	user.Field("name").Subscribe(rec.fn)

	if rec.count() != 1 || rec.at(0) != nil {
		t.Fatalf("expected nil replay while absent, got %v", rec.values)
	}

	user.Set(map[string]any{"name": "A"})
	if rec.count() != 2 || rec.last() != "A" {
		t.Fatalf("expected A after the parent became present, got %v", rec.values)
	}

	// The same subscription tracks the real child live.
	user.Field("name").Set("B")
	if rec.count() != 3 || rec.last() != "B" {
		t.Fatalf("expected live tracking of the real child, got %v", rec.values)
	}

	user.Set(nil)
	if rec.count() != 4 || rec.last() != nil {
		t.Fatalf("expected nil after the parent went absent, got %v", rec.values)
	}
}

func TestNullableIsNull(t *testing.T) {
	_, user := newSessionStore()

	if !user.IsNull() {
		t.Error("expected absent at construction")
	}
	user.Set(map[string]any{"name": "A"})
	if user.IsNull() {
		t.Error("expected present after object write")
	}
	user.Set(nil)
	if !user.IsNull() {
		t.Error("expected absent after nil write")
	}
}

func TestNullableAbsentAccessNeverFails(t *testing.T) {
	_, user := newSessionStore()

	if user.Get() != nil {
		t.Errorf("absent Get must be nil, got %v", user.Get())
	}
	if user.Field("anything").Get() != nil {
		t.Errorf("absent child Get must be nil")
	}
	if err := user.Field("anything").Set(1); err != nil {
		t.Errorf("absent child write must be a no-op, got %v", err)
	}
}

func TestNullablePresentFromConstruction(t *testing.T) {
	n := New(Nullable(map[string]any{"name": "A"})).(*NullableNode)

	if n.IsNull() {
		t.Fatal("expected present at construction")
	}
	if got := n.Field("name").Get(); got != "A" {
		t.Errorf("expected A, got %v", got)
	}
}

func TestNullableGetComposesLikeComposite(t *testing.T) {
	_, user := newSessionStore()
	user.Set(map[string]any{"name": "A", "age": 30})

	want := map[string]any{"name": "A", "age": 30}
	if got := user.Get(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNullableEmitsOnTransitions(t *testing.T) {
	_, user := newSessionStore()
	var rec recorder
	user.Subscribe(rec.fn)

	user.Set(map[string]any{"name": "A"})
	user.Set(nil)

	if rec.count() != 3 {
		t.Fatalf("expected replay + 2 transition emissions, got %v", rec.values)
	}
	if !reflect.DeepEqual(rec.at(1), map[string]any{"name": "A"}) || rec.at(2) != nil {
		t.Errorf("unexpected transition values: %v", rec.values)
	}

	// Absent to absent is not a change.
	user.Set(nil)
	if rec.count() != 3 {
		t.Errorf("absent rewrite should not notify, got %d", rec.count())
	}
}

func TestNullableStaleChildKeepsLastValue(t *testing.T) {
	_, user := newSessionStore()
	user.Set(map[string]any{"a": 1, "b": 2})

	var rec recorder
	user.Field("b").Subscribe(rec.fn)

	// Replacement object without b: the child is not removed, subscribers
	// keep the last value. Deliberate, matching the original behavior.
	user.Set(map[string]any{"a": 3})

	if rec.count() != 1 || rec.at(0) != 2 {
		t.Errorf("stale child should keep last value silently, got %v", rec.values)
	}
	if got := user.Get().(map[string]any)["b"]; got != 2 {
		t.Errorf("stale child should still merge, got %v", got)
	}
}

func TestNullableNewFieldOnReplacement(t *testing.T) {
	_, user := newSessionStore()
	user.Set(map[string]any{"a": 1})

	var rec recorder
	user.Field("b").Subscribe(rec.fn)

	user.Set(map[string]any{"a": 1, "b": 5})

	if rec.last() != 5 {
		t.Errorf("expected new field to reach its pending subscriber, got %v", rec.values)
	}
	if got := user.Field("b").Get(); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestNullableUpdateAbsentIsNoOp(t *testing.T) {
	_, user := newSessionStore()

	ran := false
	v, err := user.Update(func(*NullableNode) error {
		ran = true
		return nil
	})
	if err != nil || v != nil {
		t.Errorf("absent Update must return the absence value, got %v, %v", v, err)
	}
	if ran {
		t.Error("absent Update must not run the mutator")
	}
}

func TestNullableUpdatePresentBatches(t *testing.T) {
	_, user := newSessionStore()
	user.Set(map[string]any{"name": "A", "age": 30})

	var rec recorder
	user.Subscribe(rec.fn)

	final, err := user.Update(func(u *NullableNode) error {
		u.Field("name").Set("B")
		u.Field("age").Set(31)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 2 {
		t.Fatalf("expected replay + one batched emission, got %v", rec.values)
	}
	want := map[string]any{"name": "B", "age": 31}
	if !reflect.DeepEqual(final, want) {
		t.Errorf("expected %v, got %v", want, final)
	}
}

func TestNullableNestedChildren(t *testing.T) {
	n := New(Nullable(map[string]any{
		"profile": map[string]any{"city": "Oslo"},
	})).(*NullableNode)

	profile := n.Field("profile")
	if got, ok := profile.Get().(map[string]any); !ok || got["city"] != "Oslo" {
		t.Fatalf("expected nested object through the projection, got %v", profile.Get())
	}

	var rec recorder
	n.Subscribe(rec.fn)

	profile.Set(map[string]any{"city": "Bergen"})

	got := n.Get().(map[string]any)["profile"].(map[string]any)["city"]
	if got != "Bergen" {
		t.Errorf("nested write lost: %v", got)
	}
	if rec.count() != 2 {
		t.Errorf("expected one propagated emission, got %d", rec.count())
	}
}

func TestNullablePropagatesToAncestors(t *testing.T) {
	root, user := newSessionStore()

	var rec recorder
	root.Subscribe(rec.fn)

	user.Set(map[string]any{"name": "A"})
	if rec.count() != 2 {
		t.Fatalf("expected root to hear the transition, got %d", rec.count())
	}
	got := rec.last().(map[string]any)
	if !reflect.DeepEqual(got["user"], map[string]any{"name": "A"}) {
		t.Errorf("unexpected root value %v", got)
	}
}

func TestNullableFieldProjectionIsStable(t *testing.T) {
	_, user := newSessionStore()
	p := user.Field("name")

	user.Set(map[string]any{"name": "A"})
	if user.Field("name") != p {
		t.Error("projection identity must survive transitions")
	}
	user.Set(nil)
	if user.Field("name") != p {
		t.Error("projection identity must survive going absent")
	}
}
