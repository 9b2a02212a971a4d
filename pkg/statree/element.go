package statree

import (
	"fmt"
	"sync"
)

// ElementNode is the projection of one array index. It owns no state: reads
// go through the array's store, and writes clone the sequence and replace it
// wholesale (copy-on-write). If the array shrinks below the index, the
// projection reads nil and further writes are no-ops.
type ElementNode struct {
	nodeBase

	arr   *ArrayNode
	index int

	fieldMu sync.Mutex
	fields  map[string]*elementFieldNode
}

func newElementNode(arr *ArrayNode, index int) *ElementNode {
	e := &ElementNode{arr: arr, index: index}
	e.init(arr.tree, fmt.Sprintf("%s[%d]", arr.path, index), e.readThrough, sameDeep)
	arr.addHook(func(any) { e.emit(e.readThrough()) })
	return e
}

// Get returns a snapshot of the element's current value, nil out of range.
func (e *ElementNode) Get() any {
	return e.readThrough()
}

// Set replaces this element in the backing array.
func (e *ElementNode) Set(v any) error {
	return e.arr.setAt(e.index, v)
}

// Field returns the projection of one field of an object element, memoized
// by name. The projection reads through array[index][name]; writing clones
// the element object, assigns the field, and replaces the whole sequence.
// While the element is not an object, the projection reads nil and writes
// are no-ops.
func (e *ElementNode) Field(name string) Node {
	e.fieldMu.Lock()
	defer e.fieldMu.Unlock()
	if e.fields == nil {
		e.fields = make(map[string]*elementFieldNode)
	}
	if f, ok := e.fields[name]; ok {
		return f
	}
	f := newElementFieldNode(e, name)
	e.fields[name] = f
	return f
}

func (e *ElementNode) readThrough() any {
	return e.arr.valueAt(e.index)
}

// elementFieldNode projects one field of an object element.
type elementFieldNode struct {
	nodeBase

	elem *ElementNode
	name string
}

func newElementFieldNode(elem *ElementNode, name string) *elementFieldNode {
	f := &elementFieldNode{elem: elem, name: name}
	f.init(elem.tree, joinPath(elem.path, name), f.readThrough, sameDeep)
	elem.addHook(func(any) { f.emit(f.readThrough()) })
	return f
}

func (f *elementFieldNode) Get() any {
	return f.readThrough()
}

func (f *elementFieldNode) Set(v any) error {
	if err := checkCycle(v); err != nil {
		return err
	}

	obj, ok := f.elem.readThrough().(map[string]any)
	if !ok {
		return nil
	}
	// readThrough already cloned the element, so assigning is safe.
	obj[f.name] = v
	return f.elem.arr.setAt(f.elem.index, obj)
}

func (f *elementFieldNode) readThrough() any {
	obj, ok := f.elem.readThrough().(map[string]any)
	if !ok {
		return nil
	}
	return obj[f.name]
}
