package core

import (
	"maps"
	"slices"
)

// HashTable is a shared map with the same manual lock discipline as Queue:
// none of its methods lock, so a caller sharing it between goroutines holds
// the lock around every access.
type HashTable[K comparable, V any] struct {
	mutex
	items map[K]V
}

// NewHashTable creates an empty HashTable.
func NewHashTable[K comparable, V any]() *HashTable[K, V] {
	return &HashTable[K, V]{items: make(map[K]V)}
}

// WithLock runs fn while holding the table lock.
func (h *HashTable[K, V]) WithLock(fn func(h *HashTable[K, V])) {
	h.Lock()
	defer func() { _ = h.Unlock() }()
	fn(h)
}

// Get returns the value stored under key.
func (h *HashTable[K, V]) Get(key K) (V, bool) {
	v, ok := h.items[key]
	return v, ok
}

// Set stores value under key.
func (h *HashTable[K, V]) Set(key K, value V) {
	if h.items == nil {
		h.items = make(map[K]V)
	}
	h.items[key] = value
}

// Delete removes key. It reports whether the key was present.
func (h *HashTable[K, V]) Delete(key K) bool {
	if _, ok := h.items[key]; !ok {
		return false
	}
	delete(h.items, key)
	return true
}

// Has reports whether key is present.
func (h *HashTable[K, V]) Has(key K) bool {
	_, ok := h.items[key]
	return ok
}

// Len returns the number of entries.
func (h *HashTable[K, V]) Len() int {
	return len(h.items)
}

// Keys returns the keys in unspecified order.
func (h *HashTable[K, V]) Keys() []K {
	return slices.Collect(maps.Keys(h.items))
}

func (h *HashTable[K, V]) sharedArgument() {}
