package statree

import (
	"reflect"
	"testing"
)

func newPriceList() *ArrayNode {
	return New([]any{
		map[string]any{"id": 1, "price": 10},
		map[string]any{"id": 2, "price": 20},
	}).(*ArrayNode)
}

func TestArrayRoundTrip(t *testing.T) {
	a := New([]any{1, 2, 3}).(*ArrayNode)

	want := []any{4, 5}
	if err := a.Set([]any{4, 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Get(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestArraySnapshotImmutability(t *testing.T) {
	a := newPriceList()

	got := a.Get().([]any)
	got[0].(map[string]any)["price"] = 999

	if a.At(0).(*ElementNode).Field("price").Get() != 10 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestArrayDefaultAlwaysEmits(t *testing.T) {
	a := New([]any{1, 2, 3}).(*ArrayNode)
	var rec recorder
	a.Subscribe(rec.fn)

	a.Set([]any{1, 2, 3})
	if rec.count() != 2 {
		t.Errorf("default policy should emit on every replacement, got %d", rec.count())
	}
}

func TestArrayDistinctShallow(t *testing.T) {
	a := New(Array([]any{1, 2, 3}, DistinctShallow())).(*ArrayNode)
	var rec recorder
	a.Subscribe(rec.fn)

	a.Set([]any{1, 2, 3})
	if rec.count() != 1 {
		t.Errorf("element-wise equal replacement should not notify, got %d", rec.count())
	}

	a.Set([]any{1, 2, 4})
	if rec.count() != 2 {
		t.Errorf("changed element should notify, got %d", rec.count())
	}

	a.Set([]any{1, 2, 4, 4})
	if rec.count() != 3 {
		t.Errorf("length change should notify, got %d", rec.count())
	}
}

func TestArrayDistinctDeep(t *testing.T) {
	a := New(Array([]any{map[string]any{"id": 1}}, DistinctDeep())).(*ArrayNode)
	var rec recorder
	a.Subscribe(rec.fn)

	a.Set([]any{map[string]any{"id": 1}}) // new references, same structure
	if rec.count() != 1 {
		t.Errorf("structurally equal replacement should not notify, got %d", rec.count())
	}

	a.Set([]any{map[string]any{"id": 2}})
	if rec.count() != 2 {
		t.Errorf("structural change should notify, got %d", rec.count())
	}
}

func TestArrayDistinctFunc(t *testing.T) {
	// Caller-supplied comparator: only the length matters.
	sameLen := func(prev, next []any) bool { return len(prev) == len(next) }
	a := New(Array([]any{1, 2}, DistinctFunc(sameLen))).(*ArrayNode)
	var rec recorder
	a.Subscribe(rec.fn)

	a.Set([]any{8, 9})
	if rec.count() != 1 {
		t.Errorf("comparator said unchanged, got %d deliveries", rec.count())
	}
	a.Set([]any{8, 9, 10})
	if rec.count() != 2 {
		t.Errorf("comparator said changed, got %d deliveries", rec.count())
	}
}

func TestArrayAtBounds(t *testing.T) {
	a := New([]any{1, 2, 3}).(*ArrayNode)

	if a.At(-1) != nil {
		t.Error("negative index must not wrap")
	}
	if a.At(3) != nil {
		t.Error("index past the end must be nil")
	}
	if a.At(2) == nil {
		t.Error("in-range index must resolve")
	}
}

func TestArrayAtMemoized(t *testing.T) {
	a := New([]any{1, 2, 3}).(*ArrayNode)
	if a.At(1) != a.At(1) {
		t.Error("element projections should be cached per index")
	}
}

func TestArrayPushPop(t *testing.T) {
	a := New([]any{"a"}).(*ArrayNode)

	n, err := a.Push("b", "c")
	if err != nil || n != 3 {
		t.Fatalf("expected new length 3, got %d err %v", n, err)
	}

	v, ok := a.Pop()
	if !ok || v != "c" {
		t.Errorf("expected popped c, got %v ok=%v", v, ok)
	}

	a.Pop()
	a.Pop()
	if _, ok := a.Pop(); ok {
		t.Error("pop on empty must report false")
	}
}

func TestArrayLengthObservable(t *testing.T) {
	a := New([]any{1, 2}).(*ArrayNode)
	length := a.Length()

	var rec recorder
	length.Subscribe(rec.fn)
	if rec.at(0) != 2 {
		t.Fatalf("expected replayed length 2, got %v", rec.at(0))
	}

	a.Push(3)
	if rec.count() != 2 || rec.last() != 3 {
		t.Errorf("expected length emission 3, got %v", rec.values)
	}

	// Same length, different content: the array emits, the length view not.
	a.Set([]any{7, 8, 9})
	if rec.count() != 2 {
		t.Errorf("length view should dedupe, got %d deliveries", rec.count())
	}

	if err := length.Set(5); err != ErrReadOnly {
		t.Errorf("length view must be read-only, got %v", err)
	}
}

func TestElementProjectionWrite(t *testing.T) {
	items := newPriceList()

	price := items.At(0).(*ElementNode).Field("price")
	if err := price.Set(15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := price.Get(); got != 15 {
		t.Errorf("expected 15, got %v", got)
	}
	if got := items.Get().([]any)[1].(map[string]any)["price"]; got != 20 {
		t.Errorf("sibling element touched: %v", got)
	}
}

func TestElementSiblingIsolation(t *testing.T) {
	items := newPriceList()

	var sibling recorder
	items.At(1).(*ElementNode).Field("price").Subscribe(sibling.fn)

	items.At(0).(*ElementNode).Field("price").Set(15)

	if sibling.count() != 1 {
		t.Errorf("sibling element projection was notified, %d deliveries", sibling.count())
	}
}

func TestElementEmitsOnWholeArrayReplacement(t *testing.T) {
	items := newPriceList()
	elem := items.At(0)

	var rec recorder
	elem.Subscribe(rec.fn)

	items.Set([]any{map[string]any{"id": 9, "price": 90}})
	want := map[string]any{"id": 9, "price": 90}
	if rec.count() != 2 || !reflect.DeepEqual(rec.last(), want) {
		t.Errorf("expected projection to track replacement, got %v", rec.values)
	}
}

func TestElementProjectionAfterShrink(t *testing.T) {
	items := newPriceList()
	elem := items.At(1)

	var rec recorder
	elem.Subscribe(rec.fn)

	items.Pop()

	if rec.count() != 2 || rec.last() != nil {
		t.Errorf("out-of-range projection should emit nil, got %v", rec.values)
	}
	if elem.Get() != nil {
		t.Errorf("out-of-range Get must be nil, got %v", elem.Get())
	}
	if err := elem.Set(map[string]any{"id": 3}); err != nil {
		t.Errorf("out-of-range write must be a no-op, got %v", err)
	}
	if items.Len() != 1 {
		t.Errorf("no-op write changed the store, len %d", items.Len())
	}
}

func TestArrayMapFilterSnapshots(t *testing.T) {
	a := New([]any{1, 2, 3, 4}).(*ArrayNode)

	doubled := a.Map(func(v any) any { return v.(int) * 2 })
	if !reflect.DeepEqual(doubled, []any{2, 4, 6, 8}) {
		t.Errorf("map snapshot wrong: %v", doubled)
	}

	even := a.Filter(func(v any) bool { return v.(int)%2 == 0 })
	if !reflect.DeepEqual(even, []any{2, 4}) {
		t.Errorf("filter snapshot wrong: %v", even)
	}

	// Non-reactive: the snapshots are plain values, the source is untouched.
	if !reflect.DeepEqual(a.Get(), []any{1, 2, 3, 4}) {
		t.Errorf("source mutated: %v", a.Get())
	}
}

func TestArrayUpdateBatches(t *testing.T) {
	items := newPriceList()
	var rec recorder
	items.Subscribe(rec.fn)

	final, err := items.Update(func(a *ArrayNode) error {
		a.At(0).(*ElementNode).Field("price").Set(11)
		a.At(1).(*ElementNode).Field("price").Set(22)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 2 {
		t.Errorf("expected replay + one batched emission, got %d", rec.count())
	}
	got := final.([]any)
	if got[0].(map[string]any)["price"] != 11 || got[1].(map[string]any)["price"] != 22 {
		t.Errorf("unexpected final value %v", got)
	}
}

func TestArraySetNonSliceIgnored(t *testing.T) {
	a := New([]any{1}).(*ArrayNode)
	var rec recorder
	a.Subscribe(rec.fn)

	if err := a.Set("not a slice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 || a.Len() != 1 {
		t.Errorf("non-slice write must be ignored")
	}
}

func TestArrayTypedSliceAccepted(t *testing.T) {
	a := New([]any{}).(*ArrayNode)
	if err := a.Set([]int{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a.Get(), []any{1, 2, 3}) {
		t.Errorf("typed slice not normalized: %v", a.Get())
	}
}
