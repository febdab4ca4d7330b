package demo

import (
	"context"
	"math/rand/v2"

	"github.com/Swind/go-threadkit/core"
)

// ThreadOptions configures RunThread.
type ThreadOptions struct {
	TaskCount int
	Worker    *core.WorkerConfig

	// OnHandle, if set, is called with the handle before it is started.
	OnHandle func(h *core.ThreadHandle)
}

// RunThread runs TaskCount producer tasks on a single detached thread. The
// task list is fixed at construction; a final task finishes the queue so the
// creator's drain loop terminates.
func RunThread(ctx context.Context, opts ThreadOptions) ([]int, error) {
	mq := core.NewMessageQueue[int]()

	tasks := make([]core.Task, 0, opts.TaskCount+1)
	for range opts.TaskCount {
		tasks = append(tasks, core.TaskFunc(func(ctx context.Context) {
			_ = mq.Push(rand.Int())
		}))
	}
	tasks = append(tasks, core.TaskFunc(func(ctx context.Context) {
		mq.Finish()
	}))

	h, err := core.NewThreadHandleWithConfig(opts.Worker, tasks[0], tasks[1:]...)
	if err != nil {
		return nil, err
	}
	if opts.OnHandle != nil {
		opts.OnHandle(h)
	}
	if err := h.Start(); err != nil {
		return nil, err
	}

	values := make([]int, 0, opts.TaskCount)
	drainErr := mq.Drain(ctx, func(v int) { values = append(values, v) })

	if err := h.Join(); err != nil {
		return nil, err
	}
	if drainErr != nil {
		return nil, drainErr
	}
	return values, nil
}
