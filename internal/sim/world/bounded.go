package world

import "fmt"

// BoundedList is a pre-allocated, append-only sequence with a fixed
// maximum capacity. It never reallocates: every fixed-budget buffer in
// the engine is built on it so steady-state rebuilds and streaming do
// no heap allocation. Push past capacity is a programming error and
// panics; size capacities so it cannot happen in pool contexts.
type BoundedList[T any] struct {
	items []T
	n     int
}

func NewBoundedList[T any](capacity int) *BoundedList[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("bounded list: negative capacity %d", capacity))
	}
	return &BoundedList[T]{items: make([]T, capacity)}
}

func (l *BoundedList[T]) Len() int { return l.n }

func (l *BoundedList[T]) Cap() int { return len(l.items) }

func (l *BoundedList[T]) Push(v T) {
	if l.n == len(l.items) {
		panic(fmt.Sprintf("bounded list: push past capacity %d", len(l.items)))
	}
	l.items[l.n] = v
	l.n++
}

func (l *BoundedList[T]) At(i int) T {
	if i < 0 || i >= l.n {
		panic(fmt.Sprintf("bounded list: index %d out of range [0,%d)", i, l.n))
	}
	return l.items[i]
}

func (l *BoundedList[T]) Set(i int, v T) {
	if i < 0 || i >= l.n {
		panic(fmt.Sprintf("bounded list: index %d out of range [0,%d)", i, l.n))
	}
	l.items[i] = v
}

// Clear resets the length to zero without releasing storage. Slots
// beyond the new length keep their old contents; see Raw.
func (l *BoundedList[T]) Clear() { l.n = 0 }

// SwapRemove replaces slot i with the last element and shrinks the
// list by one. O(1); iteration order changes.
func (l *BoundedList[T]) SwapRemove(i int) T {
	if i < 0 || i >= l.n {
		panic(fmt.Sprintf("bounded list: swap-remove index %d out of range [0,%d)", i, l.n))
	}
	v := l.items[i]
	l.n--
	l.items[i] = l.items[l.n]
	var zero T
	l.items[l.n] = zero
	return v
}

// Slice is a live view of the current contents. Valid until the next
// mutation.
func (l *BoundedList[T]) Slice() []T { return l.items[:l.n] }

// Raw exposes the full-capacity backing array, including slots beyond
// Len. Consumers that upload fixed-size buffers read this; the mesh
// builder uses it to neutralize stale slots left by a larger previous
// rebuild.
func (l *BoundedList[T]) Raw() []T { return l.items }
