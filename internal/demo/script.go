package demo

import (
	"context"
	"fmt"

	"github.com/Swind/go-threadkit/core"
)

// ScriptOptions configures RunScript.
type ScriptOptions struct {
	Path string

	// Args follow the output queue in the script's args array.
	Args   []string
	Worker *core.WorkerConfig

	// OnHandle, if set, is called with the handle before it is started.
	OnHandle func(h *core.ThreadHandle)
}

// RunScript runs a JavaScript file on a single detached thread. The script
// receives a *MessageQueue[string] as args[0] and reports by pushing to it.
// A final task finishes the queue, so the script may but need not call Finish.
func RunScript(ctx context.Context, opts ScriptOptions) ([]string, error) {
	mq := core.NewMessageQueue[string]()

	args := make([]any, 0, len(opts.Args)+1)
	args = append(args, mq)
	for _, a := range opts.Args {
		args = append(args, a)
	}
	task, err := core.NewFileTask(opts.Path, args...)
	if err != nil {
		return nil, err
	}

	h, err := core.NewThreadHandleWithConfig(opts.Worker, task, core.TaskFunc(func(ctx context.Context) {
		mq.Finish()
	}))
	if err != nil {
		return nil, err
	}
	if opts.OnHandle != nil {
		opts.OnHandle(h)
	}
	if err := h.Start(); err != nil {
		return nil, err
	}

	var out []string
	drainErr := mq.Drain(ctx, func(s string) { out = append(out, s) })

	if err := h.Join(); err != nil {
		return nil, err
	}
	if drainErr != nil {
		return nil, drainErr
	}
	if h.Stats().Panicked > 0 {
		return out, fmt.Errorf("script %s failed", task.Path())
	}
	return out, nil
}
