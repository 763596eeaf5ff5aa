// Package ast defines the syntax tree produced by the parser: named
// functions made of branches, patterns, and a body of members, plus the
// IndexMap/Index machinery and location types used by every downstream
// compiler pass to refer back into the tree without pointers.
package ast

import "fmt"

// Index is a dense, monotonically assigned position into an IndexMap. It
// survives editing as long as the corresponding element keeps the same
// position in the source.
type Index[T any] uint32

func (i Index[T]) String() string { return fmt.Sprintf("#%d", uint32(i)) }

// IndexMap is an ordered mapping from a dense Index[T] to T. It is the only
// cross-reference mechanism inside the syntax tree: every container
// (branches, parameters, body members) is stored in one, so that compiler
// passes can address an element by position without holding a pointer into
// someone else's slice.
type IndexMap[T any] struct {
	items []T
}

// NewIndexMap returns an empty IndexMap.
func NewIndexMap[T any]() *IndexMap[T] { return &IndexMap[T]{} }

// Push appends v and returns the Index it was assigned.
func (m *IndexMap[T]) Push(v T) Index[T] {
	i := Index[T](len(m.items))
	m.items = append(m.items, v)
	return i
}

// Get returns the element at i, or the zero value and false if i is out of
// range.
func (m *IndexMap[T]) Get(i Index[T]) (T, bool) {
	var zero T
	if int(i) < 0 || int(i) >= len(m.items) {
		return zero, false
	}
	return m.items[i], true
}

// MustGet is like Get but panics on an out-of-range index; used where the
// index is known to be valid by construction (e.g. iterating Each).
func (m *IndexMap[T]) MustGet(i Index[T]) T {
	v, ok := m.Get(i)
	if !ok {
		panic(fmt.Sprintf("ast: index %v out of range (len=%d)", i, len(m.items)))
	}
	return v
}

// Set overwrites the element at i. It panics if i is out of range.
func (m *IndexMap[T]) Set(i Index[T], v T) {
	if int(i) < 0 || int(i) >= len(m.items) {
		panic(fmt.Sprintf("ast: index %v out of range (len=%d)", i, len(m.items)))
	}
	m.items[i] = v
}

// Len returns the number of elements.
func (m *IndexMap[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Each calls fn for every element in index order, stopping early if fn
// returns false.
func (m *IndexMap[T]) Each(fn func(Index[T], T) bool) {
	if m == nil {
		return
	}
	for i, v := range m.items {
		if !fn(Index[T](i), v) {
			return
		}
	}
}

// Indices returns the dense indices in order, a convenience for callers that
// want to build a parallel slice keyed by position.
func (m *IndexMap[T]) Indices() []Index[T] {
	out := make([]Index[T], m.Len())
	for i := range out {
		out[i] = Index[T](i)
	}
	return out
}

// Located pairs a fragment of the tree with the location it was found at.
// Adapted from the original implementation's Located<T, M> convenience
// wrapper (see DESIGN.md) so debugger and compiler passes don't need to
// thread location and fragment through parallel slices.
type Located[T any] struct {
	Fragment T
	Location any
}
