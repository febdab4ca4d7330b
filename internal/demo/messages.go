package demo

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Swind/go-threadkit/core"
	"golang.org/x/sync/errgroup"
)

// Message is produced by one task of a messages run.
type Message struct {
	Run    int
	Task   int
	Worker int
	Value  int
}

// MessagesOptions configures RunMessages.
type MessagesOptions struct {
	PoolSize  int
	TaskCount int

	// Runs is the number of independent pools run concurrently.
	Runs int

	Pool   *core.PoolConfig
	OnPool func(p *core.Pool)
}

// RunMessages runs opts.Runs independent pools concurrently. Each pool gets
// TaskCount tasks pushing a Message to a MessageQueue consumed while the pool
// runs. The consumer stops once the pool is closed, the queue finished and
// every message drained. Messages are returned per run, in consumption order.
func RunMessages(ctx context.Context, opts MessagesOptions) ([][]Message, error) {
	runs := max(opts.Runs, 1)
	out := make([][]Message, runs)

	g, ctx := errgroup.WithContext(ctx)
	for run := range runs {
		g.Go(func() error {
			msgs, err := runMessagesOnce(ctx, run, opts)
			if err != nil {
				return fmt.Errorf("run %d: %w", run, err)
			}
			out[run] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func runMessagesOnce(ctx context.Context, run int, opts MessagesOptions) ([]Message, error) {
	cfg := opts.Pool
	if cfg != nil && cfg.Name != "" && opts.Runs > 1 {
		c := *cfg
		c.Name = fmt.Sprintf("%s-%d", cfg.Name, run)
		cfg = &c
	}

	pool, err := core.NewPoolWithConfig(opts.PoolSize, cfg)
	if err != nil {
		return nil, err
	}
	if opts.OnPool != nil {
		opts.OnPool(pool)
	}

	mq := core.NewMessageQueue[Message]()
	msgs := make([]Message, 0, opts.TaskCount)

	var consumer errgroup.Group
	consumer.Go(func() error {
		return mq.Drain(ctx, func(m Message) { msgs = append(msgs, m) })
	})

	var submitErr error
	for task := range opts.TaskCount {
		if submitErr = pool.AddFunctionTask(produce, mq, run, task); submitErr != nil {
			break
		}
	}

	closeErr := pool.Close()
	mq.Finish()
	drainErr := consumer.Wait()

	switch {
	case submitErr != nil:
		return nil, submitErr
	case closeErr != nil:
		return nil, closeErr
	case drainErr != nil:
		return nil, drainErr
	}
	return msgs, nil
}

func produce(ctx context.Context, mq *core.MessageQueue[Message], run, task int) {
	worker := -1
	if w := core.GetCurrentWorker(ctx); w != nil {
		worker = w.Index()
	}
	_ = mq.Push(Message{Run: run, Task: task, Worker: worker, Value: rand.Int()})
}
