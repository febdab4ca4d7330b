package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DispatchMode selects how a WorkerThread consumes its task queue.
type DispatchMode int

const (
	// DispatchFixedBatch: tasks are loaded before Start; the worker runs them
	// to exhaustion and finishes. AddTask fails once the worker is running.
	DispatchFixedBatch DispatchMode = iota

	// DispatchPersistent: the worker keeps waiting for tasks after Start until
	// Close (or Join) is called, then drains its queue and finishes.
	DispatchPersistent
)

func (m DispatchMode) String() string {
	switch m {
	case DispatchFixedBatch:
		return "fixed_batch"
	case DispatchPersistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// WorkerState is the lifecycle state of a WorkerThread.
//
//	StateCreated → StateRunning   [Start()]
//	StateRunning → StateFinished  [run-body returns]
//	StateFinished → StateJoined   [Join()]
//
// Transitions are one-way; StateJoined is terminal.
type WorkerState int32

const (
	StateCreated WorkerState = iota
	StateRunning
	StateFinished
	StateJoined
)

func (s WorkerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

type queuedTask struct {
	task Task
	id   TaskID
	name string
}

// WorkerThread owns one dedicated goroutine and a FIFO task queue.
//
// At most one task runs at a time and tasks run in submission order. Writes
// made by tasks are visible to any goroutine that returns from Join or
// receives from Done.
type WorkerThread struct {
	id    string
	name  string
	index int
	mode  DispatchMode

	logger          Logger
	panicHandler    PanicHandler
	metrics         Metrics
	rejectedHandler RejectedTaskHandler

	// mu guards tasks and closing, and serializes state transitions with
	// AddTask's admission check.
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   Queue[queuedTask]
	closing bool
	state   atomic.Int32

	joinMu sync.Mutex
	done   chan struct{}

	executed atomic.Int64
	panicked atomic.Int64
	rejected atomic.Int64
	history  *executionHistory
}

// NewWorkerThread creates a standalone worker in StateCreated.
// A nil cfg uses DefaultWorkerConfig.
func NewWorkerThread(cfg *WorkerConfig) *WorkerThread {
	return newWorkerThread(cfg, -1)
}

func newWorkerThread(cfg *WorkerConfig, index int) *WorkerThread {
	c := cfg.withDefaults()

	id := uuid.NewString()
	name := c.Name
	if name == "" {
		name = "worker-" + id[:8]
	}

	w := &WorkerThread{
		id:              id,
		name:            name,
		index:           index,
		mode:            c.Mode,
		logger:          c.Logger,
		panicHandler:    c.PanicHandler,
		metrics:         c.Metrics,
		rejectedHandler: c.RejectedTaskHandler,
		done:            make(chan struct{}),
		history:         newExecutionHistory(c.HistoryCapacity),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// ID returns the worker's unique identifier.
func (w *WorkerThread) ID() string { return w.id }

// Name returns the worker's name.
func (w *WorkerThread) Name() string { return w.name }

// Index returns the worker's pool slot, or -1 for a standalone worker.
func (w *WorkerThread) Index() int { return w.index }

// Mode returns the worker's dispatch mode.
func (w *WorkerThread) Mode() DispatchMode { return w.mode }

// State returns the current lifecycle state.
func (w *WorkerThread) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done returns a channel closed when the run-body returns.
func (w *WorkerThread) Done() <-chan struct{} {
	return w.done
}

// TaskCount returns the number of tasks waiting to run.
func (w *WorkerThread) TaskCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tasks.Size()
}

// AddTask enqueues task.
//
// It returns ErrInvalidState when the worker has finished or been joined,
// when a fixed-batch worker is already running, or when Close has been called.
func (w *WorkerThread) AddTask(task Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidTask)
	}

	w.mu.Lock()
	if reason := w.rejectReasonLocked(); reason != "" {
		w.mu.Unlock()
		w.reject(reason)
		return fmt.Errorf("%w: %s cannot accept tasks (%s)", ErrInvalidState, w.name, reason)
	}
	w.tasks.Push(queuedTask{
		task: task,
		id:   GenerateTaskID(),
		name: TaskName(task),
	})
	depth := w.tasks.Size()
	w.cond.Signal()
	w.mu.Unlock()

	w.metrics.RecordQueueDepth(w.name, depth)
	return nil
}

// AddFunctionTask wraps fn and args with NewFunctionTask and enqueues it.
func (w *WorkerThread) AddFunctionTask(fn any, args ...any) error {
	task, err := NewFunctionTask(fn, args...)
	if err != nil {
		return err
	}
	return w.AddTask(task)
}

// Start transitions StateCreated → StateRunning and spawns the worker
// goroutine. Calling Start on a worker that is not in StateCreated returns
// ErrInvalidState.
func (w *WorkerThread) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st := w.State(); st != StateCreated {
		return fmt.Errorf("%w: start %s in state %s", ErrInvalidState, w.name, st)
	}
	w.state.Store(int32(StateRunning))
	go w.runLoop()

	w.logger.Debug("worker started",
		F("worker", w.name),
		F("mode", w.mode),
		F("pending", w.tasks.Size()),
	)
	return nil
}

// Close marks submission as done: further AddTask calls fail and a persistent
// worker finishes once its queue is drained. Close does not block and may be
// called more than once. It returns ErrInvalidState after Join.
func (w *WorkerThread) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st := w.State(); st == StateJoined {
		return fmt.Errorf("%w: close %s in state %s", ErrInvalidState, w.name, st)
	}
	if !w.closing {
		w.closing = true
		w.cond.Broadcast()
	}
	return nil
}

// Join closes the worker, blocks until its run-body returns and transitions
// it to StateJoined. Join before Start, or on a joined worker, returns
// ErrInvalidState.
func (w *WorkerThread) Join() error {
	w.joinMu.Lock()
	defer w.joinMu.Unlock()

	switch st := w.State(); st {
	case StateCreated, StateJoined:
		return fmt.Errorf("%w: join %s in state %s", ErrInvalidState, w.name, st)
	}

	if err := w.Close(); err != nil {
		return err
	}
	<-w.done

	w.mu.Lock()
	w.state.Store(int32(StateJoined))
	w.tasks.clear()
	w.mu.Unlock()

	w.logger.Debug("worker joined",
		F("worker", w.name),
		F("executed", w.executed.Load()),
	)
	return nil
}

// Stats returns a snapshot of the worker's runtime state.
func (w *WorkerThread) Stats() WorkerStats {
	stats := WorkerStats{
		ID:       w.id,
		Name:     w.name,
		Index:    w.index,
		Mode:     w.mode,
		State:    w.State(),
		Pending:  w.TaskCount(),
		Executed: w.executed.Load(),
		Panicked: w.panicked.Load(),
		Rejected: w.rejected.Load(),
	}
	if last, ok := w.history.Last(); ok {
		stats.LastTaskName = last.Name
		stats.LastTaskAt = last.FinishedAt
	}
	return stats
}

// RecentTasks returns up to limit execution records, newest first.
// limit <= 0 returns every retained record.
func (w *WorkerThread) RecentTasks(limit int) []TaskExecutionRecord {
	return w.history.Recent(limit)
}

func (w *WorkerThread) rejectReasonLocked() string {
	switch w.State() {
	case StateJoined:
		return RejectReasonJoined
	case StateFinished:
		return RejectReasonFinished
	case StateRunning:
		if w.mode == DispatchFixedBatch {
			return RejectReasonBatchRunning
		}
	}
	if w.closing {
		return RejectReasonClosed
	}
	return ""
}

func (w *WorkerThread) reject(reason string) {
	w.rejected.Add(1)
	w.metrics.RecordTaskRejected(w.name, reason)
	w.rejectedHandler.HandleRejectedTask(w.name, reason)
}

// runLoop occupies the worker's dedicated goroutine
func (w *WorkerThread) runLoop() {
	defer close(w.done)

	ctx := context.WithValue(context.Background(), workerKey, w)

	for {
		item, depth, ok := w.next()
		if !ok {
			break
		}
		w.metrics.RecordQueueDepth(w.name, depth)
		w.execute(ctx, item)
	}

	w.logger.Debug("worker finished",
		F("worker", w.name),
		F("executed", w.executed.Load()),
	)
}

// next dequeues the next task. When nothing is left to run it moves the
// worker to StateFinished under the same lock AddTask checks, so no task can
// be admitted after the worker has decided to stop.
func (w *WorkerThread) next() (queuedTask, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.mode == DispatchPersistent && !w.closing && w.tasks.Size() == 0 {
		w.cond.Wait()
	}

	item, err := w.tasks.Pop()
	if err != nil {
		w.state.Store(int32(StateFinished))
		return queuedTask{}, 0, false
	}
	return item, w.tasks.Size(), true
}

func (w *WorkerThread) execute(ctx context.Context, item queuedTask) {
	startedAt := time.Now()
	panicked := false

	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			w.panicked.Add(1)
			w.metrics.RecordTaskPanic(w.name, rec)
			w.panicHandler.HandlePanic(ctx, w.name, w.index, rec, debug.Stack())
		}

		finishedAt := time.Now()
		duration := finishedAt.Sub(startedAt)
		w.executed.Add(1)
		w.metrics.RecordTaskDuration(w.name, duration)
		w.history.Add(TaskExecutionRecord{
			TaskID:      item.id,
			Name:        item.name,
			WorkerName:  w.name,
			WorkerIndex: w.index,
			StartedAt:   startedAt,
			FinishedAt:  finishedAt,
			Duration:    duration,
			Panicked:    panicked,
		})
	}()

	item.task.Run(ctx)
}
