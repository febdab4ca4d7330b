package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// =============================================================================
// Queue: FIFO with manual lock discipline
// =============================================================================

// Queue is a generic FIFO guarded by an explicit lock.
//
// Push, Pop, Front and Size do NOT lock. A caller sharing the queue between
// goroutines must hold the lock around them, which lets it compose several
// operations into one atomic step:
//
//	q.Lock()
//	if q.Size() > 0 {
//	    v, _ := q.Pop()
//	    remaining.Dec()
//	    use(v)
//	}
//	_ = q.Unlock()
//
// WithLock wraps the same pattern in a scoped call. Use MessageQueue when no
// composition is needed.
type Queue[T any] struct {
	mutex
	items []T
}

// NewQueue creates an empty Queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0, defaultQueueCap),
	}
}

// WithLock runs fn while holding the queue lock.
func (q *Queue[T]) WithLock(fn func(q *Queue[T])) {
	q.Lock()
	defer func() { _ = q.Unlock() }()
	fn(q)
}

// Push appends v. The caller must hold the lock.
func (q *Queue[T]) Push(v T) {
	q.items = append(q.items, v)
}

// Pop removes and returns the oldest value, or ErrEmptyQueue.
// The caller must hold the lock.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmptyQueue
	}

	v := q.items[0]
	// Zero out the slot so the backing array does not pin the value
	q.items[0] = zero
	q.items = q.items[1:]
	q.maybeCompact()

	return v, nil
}

// Front returns the oldest value without removing it, or ErrEmptyQueue.
// The caller must hold the lock.
func (q *Queue[T]) Front() (T, error) {
	if len(q.items) == 0 {
		var zero T
		return zero, ErrEmptyQueue
	}
	return q.items[0], nil
}

// Size returns the number of queued values. The caller must hold the lock.
func (q *Queue[T]) Size() int {
	return len(q.items)
}

// clear drops every value and releases the backing array.
func (q *Queue[T]) clear() {
	q.items = make([]T, 0, defaultQueueCap)
}

func (q *Queue[T]) maybeCompact() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]T, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	items := make([]T, n, newCap)
	copy(items, q.items)
	q.items = items
}

func (q *Queue[T]) sharedArgument() {}
