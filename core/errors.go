package core

import "errors"

var (
	// ErrInvalidPoolSize is returned by NewPool when size < 1.
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrInvalidState is returned when an operation is attempted outside the
	// lifecycle state it is valid in (Join before Start, AddTask after Close, ...).
	ErrInvalidState = errors.New("invalid state")

	// ErrEmptyQueue is returned when popping or peeking an empty container.
	// It is an expected polling outcome, not a failure.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrUseAfterFinish is returned when pushing to a finished MessageQueue.
	ErrUseAfterFinish = errors.New("push after finish")

	// ErrInvalidTask is returned when a function task fails the arity/shape check.
	ErrInvalidTask = errors.New("invalid task")

	// ErrLockNotHeld is returned by Unlock when the lock is not held.
	ErrLockNotHeld = errors.New("lock is not held")

	// ErrIndexOutOfRange is returned by indexed access outside [0, Size()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidSize is returned when a container is sized with a negative length.
	ErrInvalidSize = errors.New("invalid size")
)
