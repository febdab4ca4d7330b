package core

import "fmt"

// Vector is a shared, indexable sequence.
//
// Two access patterns are supported:
//
//   - Disjoint-index writes. At and UpdateAt touch only element i. Concurrent
//     calls on distinct indices need no locking, provided the caller
//     guarantees no two goroutines ever use the same index and no structural
//     operation runs at the same time. This is how a grid of per-cell tasks
//     writes its results.
//   - Structural changes. Push, Pop, Shift, Unshift, InsertAt, DeleteAt and
//     Resize change the length and require the caller to hold the lock, the
//     same discipline as Queue.
type Vector[T any] struct {
	mutex
	items []T
}

// NewVector creates a vector of size zero values.
func NewVector[T any](size int) (*Vector[T], error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Vector[T]{items: make([]T, size)}, nil
}

// WithLock runs fn while holding the vector lock.
func (v *Vector[T]) WithLock(fn func(v *Vector[T])) {
	v.Lock()
	defer func() { _ = v.Unlock() }()
	fn(v)
}

// Size returns the number of elements.
func (v *Vector[T]) Size() int {
	return len(v.items)
}

// At returns element i.
func (v *Vector[T]) At(i int) (T, error) {
	if i < 0 || i >= len(v.items) {
		var zero T
		return zero, v.outOfRange(i)
	}
	return v.items[i], nil
}

// UpdateAt replaces element i.
func (v *Vector[T]) UpdateAt(i int, value T) error {
	if i < 0 || i >= len(v.items) {
		return v.outOfRange(i)
	}
	v.items[i] = value
	return nil
}

// Push appends value.
func (v *Vector[T]) Push(value T) {
	v.items = append(v.items, value)
}

// Pop removes and returns the last element, or ErrEmptyQueue.
func (v *Vector[T]) Pop() (T, error) {
	var zero T
	n := len(v.items)
	if n == 0 {
		return zero, ErrEmptyQueue
	}
	value := v.items[n-1]
	v.items[n-1] = zero
	v.items = v.items[:n-1]
	return value, nil
}

// Shift removes and returns the first element, or ErrEmptyQueue.
func (v *Vector[T]) Shift() (T, error) {
	var zero T
	if len(v.items) == 0 {
		return zero, ErrEmptyQueue
	}
	value := v.items[0]
	copy(v.items, v.items[1:])
	v.items[len(v.items)-1] = zero
	v.items = v.items[:len(v.items)-1]
	return value, nil
}

// Unshift prepends value.
func (v *Vector[T]) Unshift(value T) {
	var zero T
	v.items = append(v.items, zero)
	copy(v.items[1:], v.items)
	v.items[0] = value
}

// InsertAt inserts value before element i. i == Size() appends.
func (v *Vector[T]) InsertAt(i int, value T) error {
	if i < 0 || i > len(v.items) {
		return v.outOfRange(i)
	}
	var zero T
	v.items = append(v.items, zero)
	copy(v.items[i+1:], v.items[i:])
	v.items[i] = value
	return nil
}

// DeleteAt removes element i.
func (v *Vector[T]) DeleteAt(i int) error {
	if i < 0 || i >= len(v.items) {
		return v.outOfRange(i)
	}
	var zero T
	copy(v.items[i:], v.items[i+1:])
	v.items[len(v.items)-1] = zero
	v.items = v.items[:len(v.items)-1]
	return nil
}

// Resize grows the vector with fill values or truncates it to size.
func (v *Vector[T]) Resize(size int, fill T) error {
	if size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	n := len(v.items)
	if size <= n {
		var zero T
		for i := size; i < n; i++ {
			v.items[i] = zero
		}
		v.items = v.items[:size]
		return nil
	}
	for range size - n {
		v.items = append(v.items, fill)
	}
	return nil
}

// Snapshot returns a copy of the elements.
func (v *Vector[T]) Snapshot() []T {
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}

func (v *Vector[T]) outOfRange(i int) error {
	return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(v.items))
}

func (v *Vector[T]) sharedArgument() {}
