package statree

import "reflect"

// cycleKey identifies a container on the current traversal path. The kind is
// part of the key because a map and a slice can report the same data pointer.
type cycleKey struct {
	ptr  uintptr
	kind reflect.Kind
}

// checkCycle rejects values whose reference graph contains a cycle. It runs
// before any store mutation, so a rejected value never lands anywhere in the
// tree. Shared references (the same container reachable twice on different
// paths) are fine; only a container reachable from itself is a cycle.
func checkCycle(v any) error {
	if v == nil {
		return nil
	}
	return walkCycle(reflect.ValueOf(v), make(map[cycleKey]struct{}))
}

// walkCycle does a depth-first traversal of v, keeping the set of container
// pointers on the current path. Revisiting one of them is a cycle.
func walkCycle(v reflect.Value, onPath map[cycleKey]struct{}) error {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walkCycle(v.Elem(), onPath)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		key := cycleKey{v.Pointer(), reflect.Pointer}
		if _, seen := onPath[key]; seen {
			return ErrCircularReference
		}
		onPath[key] = struct{}{}
		err := walkCycle(v.Elem(), onPath)
		delete(onPath, key)
		return err

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		key := cycleKey{v.Pointer(), reflect.Map}
		if _, seen := onPath[key]; seen {
			return ErrCircularReference
		}
		onPath[key] = struct{}{}
		iter := v.MapRange()
		for iter.Next() {
			if err := walkCycle(iter.Value(), onPath); err != nil {
				return err
			}
		}
		delete(onPath, key)
		return nil

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		key := cycleKey{v.Pointer(), reflect.Slice}
		if _, seen := onPath[key]; seen {
			return ErrCircularReference
		}
		onPath[key] = struct{}{}
		for i := 0; i < v.Len(); i++ {
			if err := walkCycle(v.Index(i), onPath); err != nil {
				return err
			}
		}
		delete(onPath, key)
		return nil

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkCycle(v.Index(i), onPath); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanInterface() {
				continue
			}
			if err := walkCycle(f, onPath); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}
