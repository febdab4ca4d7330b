package core

import "time"

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID      TaskID
	Name        string
	WorkerName  string
	WorkerIndex int
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Panicked    bool
}

// WorkerStats represents runtime observability state for a worker thread.
type WorkerStats struct {
	ID           string
	Name         string
	Index        int
	Mode         DispatchMode
	State        WorkerState
	Pending      int
	Executed     int64
	Panicked     int64
	Rejected     int64
	LastTaskName string
	LastTaskAt   time.Time
}

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	ID        string
	Name      string
	Workers   int
	Queued    int
	Executed  int64
	Submitted uint64
	Closed    bool
}
