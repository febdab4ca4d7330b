package core

import (
	"context"
	"strconv"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution.
// The worker recovers the panic so its own lifecycle stays consistent; the
// failure itself is not reported back to the submitter.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context the task ran with (GetCurrentWorker works on it)
	// - workerName: The name of the worker where the panic occurred
	// - workerIndex: The pool slot of the worker, -1 for standalone workers
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, workerName string, workerIndex int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs panics at Error level.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic value and stack.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, workerName string, workerIndex int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panicked",
		F("worker", workerName),
		F("index", workerIndex),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting task execution metrics.
// Methods should be non-blocking and fast to avoid impacting task execution.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(workerName string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(workerName string, panicInfo any)

	// RecordQueueDepth records the worker's pending task count.
	// Called after every enqueue and dequeue.
	RecordQueueDepth(workerName string, depth int)

	// RecordTaskRejected records that a task was rejected by AddTask.
	RecordTaskRejected(workerName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(workerName string, duration time.Duration) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(workerName string, panicInfo any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(workerName string, depth int) {}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(workerName string, reason string) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// Reasons passed to RejectedTaskHandler and Metrics.RecordTaskRejected.
const (
	RejectReasonBatchRunning = "batch_running"
	RejectReasonClosed       = "closed"
	RejectReasonFinished     = "finished"
	RejectReasonJoined       = "joined"
)

// RejectedTaskHandler is called when AddTask refuses a task because the
// worker is outside the state that accepts submissions. AddTask still
// returns ErrInvalidState to the caller.
type RejectedTaskHandler interface {
	HandleRejectedTask(workerName string, reason string)
}

// DefaultRejectedTaskHandler logs rejected tasks at Warn level.
type DefaultRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(workerName string, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Warn("task rejected", F("worker", workerName), F("reason", reason))
}

// =============================================================================
// Configuration
// =============================================================================

const defaultHistoryCapacity = 100

// WorkerConfig holds configuration options for a WorkerThread.
// Zero-valued fields fall back to the defaults of DefaultWorkerConfig.
type WorkerConfig struct {
	// Name labels the worker in logs, metrics and execution records.
	// Defaults to "worker-<short id>".
	Name string

	// Mode selects fixed-batch or persistent dispatch. Defaults to DispatchFixedBatch.
	Mode DispatchMode

	// Logger receives lifecycle and rejection logs. Defaults to NoOpLogger.
	Logger Logger

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records task execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when AddTask refuses a task.
	// Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// HistoryCapacity bounds the number of retained execution records.
	HistoryCapacity int
}

// DefaultWorkerConfig returns a config with default handlers.
func DefaultWorkerConfig() *WorkerConfig {
	logger := NewNoOpLogger()
	return &WorkerConfig{
		Mode:                DispatchFixedBatch,
		Logger:              logger,
		PanicHandler:        &DefaultPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{Logger: logger},
		HistoryCapacity:     defaultHistoryCapacity,
	}
}

// withDefaults returns a copy of cfg with every unset field filled in.
func (cfg *WorkerConfig) withDefaults() WorkerConfig {
	d := DefaultWorkerConfig()
	if cfg == nil {
		return *d
	}
	out := *cfg
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	if out.PanicHandler == nil {
		out.PanicHandler = d.PanicHandler
	}
	if out.Metrics == nil {
		out.Metrics = d.Metrics
	}
	if out.RejectedTaskHandler == nil {
		out.RejectedTaskHandler = &DefaultRejectedTaskHandler{Logger: out.Logger}
	}
	if out.HistoryCapacity <= 0 {
		out.HistoryCapacity = d.HistoryCapacity
	}
	return out
}

// PoolConfig holds configuration options for a Pool. The handlers are
// shared by every worker of the pool.
type PoolConfig struct {
	// Name labels the pool; workers are named "<name>-worker-<i>".
	// Defaults to "pool-<short id>".
	Name string

	Logger              Logger
	PanicHandler        PanicHandler
	Metrics             Metrics
	RejectedTaskHandler RejectedTaskHandler

	// HistoryCapacity bounds the execution records retained per worker.
	HistoryCapacity int
}

// DefaultPoolConfig returns a config with default handlers.
func DefaultPoolConfig() *PoolConfig {
	d := DefaultWorkerConfig()
	return &PoolConfig{
		Logger:              d.Logger,
		PanicHandler:        d.PanicHandler,
		Metrics:             d.Metrics,
		RejectedTaskHandler: d.RejectedTaskHandler,
		HistoryCapacity:     d.HistoryCapacity,
	}
}

// workerConfig derives the config of the worker at pool slot index.
func (cfg *PoolConfig) workerConfig(poolName string, index int) *WorkerConfig {
	wc := &WorkerConfig{
		Name: poolName + "-worker-" + strconv.Itoa(index),
		Mode: DispatchPersistent,
	}
	if cfg != nil {
		wc.Logger = cfg.Logger
		wc.PanicHandler = cfg.PanicHandler
		wc.Metrics = cfg.Metrics
		wc.RejectedTaskHandler = cfg.RejectedTaskHandler
		wc.HistoryCapacity = cfg.HistoryCapacity
	}
	return wc
}
