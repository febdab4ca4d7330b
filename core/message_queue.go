package core

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// DrainPollInterval caps the sleep between idle polls in MessageQueue.Drain.
var DrainPollInterval = time.Millisecond

// MessageQueue is an internally locked FIFO with a one-way "producer finished"
// signal.
//
// Consumers must use the termination predicate
//
//	for !mq.Finished() || mq.HasMessages() { ... }
//
// Checking Finished alone can lose messages pushed just before Finish was
// observed; checking HasMessages alone never ends while the producer is slow.
// Drain implements the loop.
type MessageQueue[T any] struct {
	q        Queue[T]
	finished atomic.Bool
}

// NewMessageQueue creates an empty, unfinished MessageQueue.
func NewMessageQueue[T any]() *MessageQueue[T] {
	return &MessageQueue[T]{}
}

// Push appends v. It returns ErrUseAfterFinish once Finish has been called.
func (mq *MessageQueue[T]) Push(v T) error {
	mq.q.Lock()
	defer func() { _ = mq.q.Unlock() }()

	// Checked under the lock so a Push racing Finish either lands before the
	// finished flag is visible or fails.
	if mq.finished.Load() {
		return ErrUseAfterFinish
	}
	mq.q.Push(v)
	return nil
}

// Pop removes and returns the oldest message. It never blocks: found is false
// when the queue is empty at the instant of the call.
func (mq *MessageQueue[T]) Pop() (v T, found bool) {
	mq.q.Lock()
	defer func() { _ = mq.q.Unlock() }()

	v, err := mq.q.Pop()
	return v, err == nil
}

// Finish marks the producer side as done. Calling it again is a no-op.
func (mq *MessageQueue[T]) Finish() {
	mq.q.Lock()
	mq.finished.Store(true)
	_ = mq.q.Unlock()
}

// Finished reports whether Finish has been called.
func (mq *MessageQueue[T]) Finished() bool {
	return mq.finished.Load()
}

// HasMessages reports whether at least one message is queued.
func (mq *MessageQueue[T]) HasMessages() bool {
	return mq.Len() > 0
}

// Len returns the number of queued messages.
func (mq *MessageQueue[T]) Len() int {
	mq.q.Lock()
	defer func() { _ = mq.q.Unlock() }()
	return mq.q.Size()
}

// Drain polls the queue, passing every message to fn, until the producer has
// finished and the queue is empty. It returns ctx.Err() if ctx is cancelled
// first; messages already handed to fn stay consumed.
func (mq *MessageQueue[T]) Drain(ctx context.Context, fn func(T)) error {
	idle := 0
	for !mq.Finished() || mq.HasMessages() {
		if v, ok := mq.Pop(); ok {
			idle = 0
			fn(v)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		idle++
		backoff(idle)
	}
	return nil
}

// backoff yields on the first idle polls and sleeps with a growing delay
// after that, capped at DrainPollInterval.
func backoff(idle int) {
	if idle < 16 {
		runtime.Gosched()
		return
	}
	d := time.Duration(idle-15) * 10 * time.Microsecond
	time.Sleep(min(d, DrainPollInterval))
}

func (mq *MessageQueue[T]) sharedArgument() {}
