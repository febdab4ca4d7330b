package threadkit

import "github.com/Swind/go-threadkit/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the threadkit package for most use cases.

// Task is the unit of work run by a worker
type Task = core.Task

// TaskFunc adapts a closure to Task
type TaskFunc = core.TaskFunc

// FunctionTask binds a func value to a captured argument list
type FunctionTask = core.FunctionTask

// FileTask runs a JavaScript file on a worker
type FileTask = core.FileTask

// WorkerThread owns one dedicated goroutine and a FIFO task queue
type WorkerThread = core.WorkerThread

// ThreadHandle is a creator-held reference to a single detached worker
type ThreadHandle = core.ThreadHandle

// Pool assigns tasks round-robin to a fixed set of persistent workers
type Pool = core.Pool

// Queue is a FIFO with manual lock discipline
type Queue[T any] = core.Queue[T]

// MessageQueue is a self-locking FIFO with a producer-finished signal
type MessageQueue[T any] = core.MessageQueue[T]

// Vector is a shared indexable sequence
type Vector[T any] = core.Vector[T]

// HashTable is a shared map with manual lock discipline
type HashTable[K comparable, V any] = core.HashTable[K, V]

// AtomicInteger is a shared counter
type AtomicInteger = core.AtomicInteger

// WorkerConfig and PoolConfig configure workers and pools
type (
	WorkerConfig = core.WorkerConfig
	PoolConfig   = core.PoolConfig
)

// Lifecycle states
const (
	StateCreated  = core.StateCreated
	StateRunning  = core.StateRunning
	StateFinished = core.StateFinished
	StateJoined   = core.StateJoined
)

// Constructors
var (
	NewWorkerThread         = core.NewWorkerThread
	NewThreadHandle         = core.NewThreadHandle
	NewFunctionThreadHandle = core.NewFunctionThreadHandle
	NewFileThreadHandle     = core.NewFileThreadHandle
	NewPool                 = core.NewPool
	NewPoolWithConfig       = core.NewPoolWithConfig
	NewFunctionTask         = core.NewFunctionTask
	NewFileTask             = core.NewFileTask
	NewAtomicInteger        = core.NewAtomicInteger
	JoinAll                 = core.JoinAll
)

// NewQueue creates an empty Queue.
func NewQueue[T any]() *Queue[T] { return core.NewQueue[T]() }

// NewMessageQueue creates an empty, unfinished MessageQueue.
func NewMessageQueue[T any]() *MessageQueue[T] { return core.NewMessageQueue[T]() }

// NewVector creates a vector of size zero values.
func NewVector[T any](size int) (*Vector[T], error) { return core.NewVector[T](size) }

// NewHashTable creates an empty HashTable.
func NewHashTable[K comparable, V any]() *HashTable[K, V] { return core.NewHashTable[K, V]() }

// GetCurrentWorker retrieves the WorkerThread running the current task from context
var GetCurrentWorker = core.GetCurrentWorker
