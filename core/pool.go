package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Pool owns a fixed set of persistent WorkerThreads and assigns submitted
// tasks to them round-robin.
//
// The cursor is pool state, not per-call state: the k-th task submitted over
// the pool's lifetime (0-indexed) goes to worker k mod Size(). Distribution is
// therefore fair over the long run, not per batch. Round-robin touches only
// the target worker's queue, which is enough for near-uniform task costs;
// there is no load awareness or work stealing.
type Pool struct {
	id     string
	name   string
	logger Logger

	workers []*WorkerThread
	cursor  atomic.Uint64

	// closeMu orders AddTask (read side) against Close (write side) so no
	// task can be admitted after Close has started joining workers.
	closeMu sync.RWMutex
	closed  bool
}

// NewPool creates a pool of size persistent workers and starts them.
// size < 1 returns ErrInvalidPoolSize.
func NewPool(size int) (*Pool, error) {
	return NewPoolWithConfig(size, nil)
}

// NewPoolWithConfig is NewPool with explicit configuration.
func NewPoolWithConfig(size int, cfg *PoolConfig) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidPoolSize, size)
	}
	if cfg == nil {
		cfg = DefaultPoolConfig()
	}

	id := uuid.NewString()
	name := cfg.Name
	if name == "" {
		name = "pool-" + id[:8]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}

	p := &Pool{
		id:      id,
		name:    name,
		logger:  logger,
		workers: make([]*WorkerThread, size),
	}
	for i := range size {
		p.workers[i] = newWorkerThread(cfg.workerConfig(name, i), i)
	}
	for _, w := range p.workers {
		// Fresh workers are in StateCreated; Start cannot fail here.
		_ = w.Start()
	}

	logger.Info("pool started", F("pool", name), F("workers", size))
	return p, nil
}

// ID returns the pool's unique identifier.
func (p *Pool) ID() string { return p.id }

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Worker returns the worker at slot i.
func (p *Pool) Worker(i int) *WorkerThread { return p.workers[i] }

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	return p.closed
}

// AddTask assigns task to the worker under the cursor and advances the
// cursor. It returns ErrInvalidState after Close.
func (p *Pool) AddTask(task Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidTask)
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	if p.closed {
		return fmt.Errorf("%w: pool %s is closed", ErrInvalidState, p.name)
	}

	k := p.cursor.Add(1) - 1
	return p.workers[k%uint64(len(p.workers))].AddTask(task)
}

// AddFunctionTask wraps fn and args with NewFunctionTask and submits it.
// A task that fails validation does not advance the cursor.
func (p *Pool) AddFunctionTask(fn any, args ...any) error {
	task, err := NewFunctionTask(fn, args...)
	if err != nil {
		return err
	}
	return p.AddTask(task)
}

// Close joins every worker in index order, blocking until each has drained
// its queue. A second Close returns ErrInvalidState.
func (p *Pool) Close() error {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return fmt.Errorf("%w: pool %s is already closed", ErrInvalidState, p.name)
	}
	p.closed = true
	p.closeMu.Unlock()

	// Closing every worker first lets them drain in parallel; the joins
	// below then return in index order.
	for _, w := range p.workers {
		_ = w.Close()
	}

	var errs []error
	for _, w := range p.workers {
		if err := w.Join(); err != nil {
			errs = append(errs, err)
		}
	}

	p.logger.Info("pool closed",
		F("pool", p.name),
		F("submitted", p.cursor.Load()),
	)
	return errors.Join(errs...)
}

// Stats returns a snapshot of the pool's runtime state.
func (p *Pool) Stats() PoolStats {
	stats := PoolStats{
		ID:        p.id,
		Name:      p.name,
		Workers:   len(p.workers),
		Submitted: p.cursor.Load(),
		Closed:    p.IsClosed(),
	}
	for _, w := range p.workers {
		stats.Queued += w.TaskCount()
		stats.Executed += w.executed.Load()
	}
	return stats
}

// WorkerStats returns a snapshot of every worker, in index order.
func (p *Pool) WorkerStats() []WorkerStats {
	out := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.Stats()
	}
	return out
}
