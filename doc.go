// Package threadkit provides a small thread lifecycle and task-dispatch toolkit
// for Go.
//
// Work is expressed as Tasks executed by WorkerThreads, each owning one
// dedicated goroutine and a FIFO queue. Results leave a task only through the
// shared containers it was given: a Queue (manual locking), a MessageQueue
// (self-locking with a producer-finished signal), a Vector written at disjoint
// indices, a HashTable or an AtomicInteger.
//
// # Quick Start
//
// Create a pool, submit tasks and close it:
//
//	pool, err := threadkit.NewPool(4)
//	if err != nil {
//		return err
//	}
//	mq := threadkit.NewMessageQueue[string]()
//	for range 10 {
//		_ = pool.AddFunctionTask(func(mq *threadkit.MessageQueue[string]) {
//			_ = mq.Push("message")
//		}, mq)
//	}
//	_ = pool.Close() // joins every worker in index order
//	mq.Finish()
//	_ = mq.Drain(ctx, func(s string) { fmt.Println(s) })
//
// # Key Concepts
//
// WorkerThread: a worker moves through created → running → finished → joined.
// A fixed-batch worker runs the tasks loaded before Start and finishes; a
// persistent worker keeps accepting tasks until it is closed or joined.
//
// Pool: a fixed set of persistent workers. The k-th task submitted over the
// pool's lifetime goes to worker k mod Size().
//
// ThreadHandle: a single fixed-batch worker with a task list fixed at
// construction, for when a pool is unnecessary.
//
// FileTask: a JavaScript file run on a worker. Its arguments arrive as the
// global args array; NewFileThreadHandle runs one on a detached thread.
//
// MessageQueue: consumers loop while the producer has not finished or
// messages remain. Drain implements that loop.
//
// # Thread Safety
//
// Task arguments are deep-copied at submission. Only the shared containers
// above, channels and funcs are passed by reference.
//
// Tasks on one worker never run concurrently. Writes made by tasks are
// visible after Join (or Pool.Close) returns.
//
// For more details, see https://github.com/Swind/go-threadkit
package threadkit
