package statree

import "errors"

// ErrCircularReference is returned when a value handed to a write operation
// contains a reference cycle. Detection runs before the write reaches any
// node's store, so a rejected value leaves the tree unchanged.
var ErrCircularReference = errors.New("statree: value contains a circular reference")

// ErrReadOnly is returned by Set on derived nodes (Select, SelectNamed,
// SelectFromEach, Length views). Derived streams have no store of their own;
// write to their sources instead.
var ErrReadOnly = errors.New("statree: derived node is read-only")
