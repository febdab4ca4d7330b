package core

import (
	"sync"
	"sync/atomic"
)

// mutex is the explicit lock shared by the manually-locked containers
// (Queue, Vector, HashTable, AtomicInteger).
//
// Unlike sync.Mutex, unlocking an unheld mutex is reported as ErrLockNotHeld
// instead of crashing the process. Ownership is not tracked per goroutine:
// any goroutine may release a held lock, as with sync.Mutex.
type mutex struct {
	mu   sync.Mutex
	held atomic.Bool
}

// Lock acquires the lock, blocking until it is available.
func (m *mutex) Lock() {
	m.mu.Lock()
	m.held.Store(true)
}

// TryLock acquires the lock if it is free and reports whether it did.
func (m *mutex) TryLock() bool {
	if !m.mu.TryLock() {
		return false
	}
	m.held.Store(true)
	return true
}

// Unlock releases the lock. It returns ErrLockNotHeld if the lock is free.
func (m *mutex) Unlock() error {
	if !m.held.CompareAndSwap(true, false) {
		return ErrLockNotHeld
	}
	m.mu.Unlock()
	return nil
}

// Locked reports whether the lock is currently held by anyone.
func (m *mutex) Locked() bool {
	return m.held.Load()
}
