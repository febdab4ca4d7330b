package core

import "sync/atomic"

// AtomicInteger is a shared counter. Get, Set, Inc, Dec and Add are each
// atomic on their own; Lock/Unlock let callers compose sequences such as
// "check the value, then pop a queue, then decrement" into one step against
// other lock holders.
type AtomicInteger struct {
	mutex
	v atomic.Int64
}

// NewAtomicInteger creates a counter holding initial.
func NewAtomicInteger(initial int64) *AtomicInteger {
	a := &AtomicInteger{}
	a.v.Store(initial)
	return a
}

// Get returns the current value.
func (a *AtomicInteger) Get() int64 { return a.v.Load() }

// Set stores value.
func (a *AtomicInteger) Set(value int64) { a.v.Store(value) }

// Inc adds one and returns the new value.
func (a *AtomicInteger) Inc() int64 { return a.v.Add(1) }

// Dec subtracts one and returns the new value.
func (a *AtomicInteger) Dec() int64 { return a.v.Add(-1) }

// Add adds delta and returns the new value.
func (a *AtomicInteger) Add(delta int64) int64 { return a.v.Add(delta) }

func (a *AtomicInteger) sharedArgument() {}
