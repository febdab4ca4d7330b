package core

import (
	"golang.org/x/sync/errgroup"
)

// ThreadHandle is a creator-held reference to a single detached worker that
// runs a task list fixed at construction. Use it when a Pool is unnecessary.
//
// The handle has no return-value slot. A task reports results through the
// queues it was constructed with, typically pushing to a MessageQueue and
// calling Finish:
//
//	mq := core.NewMessageQueue[int]()
//	h, _ := core.NewThreadHandle(core.TaskFunc(func(ctx context.Context) {
//	    _ = mq.Push(1)
//	    mq.Finish()
//	}))
//	_ = h.Start()
//	_ = mq.Drain(ctx, func(v int) { fmt.Println(v) })
//	_ = h.Join()
type ThreadHandle struct {
	worker *WorkerThread
}

// NewThreadHandle creates a handle in StateCreated running task followed by more.
func NewThreadHandle(task Task, more ...Task) (*ThreadHandle, error) {
	return NewThreadHandleWithConfig(nil, task, more...)
}

// NewThreadHandleWithConfig is NewThreadHandle with explicit worker
// configuration. cfg.Mode is ignored; handles always use fixed-batch dispatch.
func NewThreadHandleWithConfig(cfg *WorkerConfig, task Task, more ...Task) (*ThreadHandle, error) {
	c := cfg.withDefaults()
	c.Mode = DispatchFixedBatch

	w := NewWorkerThread(&c)
	if err := w.AddTask(task); err != nil {
		return nil, err
	}
	for _, t := range more {
		if err := w.AddTask(t); err != nil {
			return nil, err
		}
	}
	return &ThreadHandle{worker: w}, nil
}

// NewFunctionThreadHandle creates a handle running fn(args...) once.
func NewFunctionThreadHandle(fn any, args ...any) (*ThreadHandle, error) {
	task, err := NewFunctionTask(fn, args...)
	if err != nil {
		return nil, err
	}
	return NewThreadHandle(task)
}

// NewFileThreadHandle creates a handle running the script at path once.
// See FileTask for how the script receives args.
func NewFileThreadHandle(path string, args ...any) (*ThreadHandle, error) {
	task, err := NewFileTask(path, args...)
	if err != nil {
		return nil, err
	}
	return NewThreadHandle(task)
}

// ID returns the identifier of the underlying worker.
func (h *ThreadHandle) ID() string { return h.worker.ID() }

// Start spawns the worker. A second call returns ErrInvalidState.
func (h *ThreadHandle) Start() error { return h.worker.Start() }

// Join blocks until the task list has run and reclaims the worker.
// Join before Start, or a second Join, returns ErrInvalidState.
func (h *ThreadHandle) Join() error { return h.worker.Join() }

// State returns the lifecycle state of the underlying worker.
func (h *ThreadHandle) State() WorkerState { return h.worker.State() }

// Done returns a channel closed when the task list has run.
func (h *ThreadHandle) Done() <-chan struct{} { return h.worker.Done() }

// Stats returns a snapshot of the underlying worker.
func (h *ThreadHandle) Stats() WorkerStats { return h.worker.Stats() }

// JoinAll joins every handle concurrently and returns the first error.
// All handles are waited for even when one of them fails.
func JoinAll(handles ...*ThreadHandle) error {
	var g errgroup.Group
	for _, h := range handles {
		g.Go(h.Join)
	}
	return g.Wait()
}
