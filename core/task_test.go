package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addInto(q *Queue[int], a, b int) {
	q.Push(a + b)
}

// TestFunctionTask_BindsArguments verifies a function task runs with its args
// Given: A func(*Queue[int], int, int) and matching arguments
// When: The task runs
// Then: The sum lands in the shared queue
func TestFunctionTask_BindsArguments(t *testing.T) {
	q := NewQueue[int]()

	task, err := NewFunctionTask(addInto, q, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, task.Arity())

	task.Run(context.Background())

	v, err := q.Pop()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

// TestFunctionTask_InjectsContext verifies a leading context.Context parameter
// receives the run context and is not counted as an argument
func TestFunctionTask_InjectsContext(t *testing.T) {
	type key struct{}
	var got any

	task, err := NewFunctionTask(func(ctx context.Context, n int) {
		got = ctx.Value(key{})
		_ = n
	}, 1)
	require.NoError(t, err)

	task.Run(context.WithValue(context.Background(), key{}, "v"))

	assert.Equal(t, "v", got)
}

// TestFunctionTask_Variadic verifies variadic functions accept zero or more
// trailing arguments
func TestFunctionTask_Variadic(t *testing.T) {
	var total int
	sum := func(base int, xs ...int) {
		total = base
		for _, x := range xs {
			total += x
		}
	}

	task, err := NewFunctionTask(sum, 1)
	require.NoError(t, err)
	task.Run(context.Background())
	assert.Equal(t, 1, total)

	task, err = NewFunctionTask(sum, 1, 2, 3)
	require.NoError(t, err)
	task.Run(context.Background())
	assert.Equal(t, 6, total)

	_, err = NewFunctionTask(sum, 1, "x")
	assert.ErrorIs(t, err, ErrInvalidTask)
}

// TestFunctionTask_Validation verifies shape errors are reported at construction
func TestFunctionTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		args []any
	}{
		{"not a func", 42, nil},
		{"nil func", (func())(nil), nil},
		{"untyped nil", nil, nil},
		{"too few args", addInto, []any{NewQueue[int](), 1}},
		{"too many args", func() {}, []any{1}},
		{"wrong type", func(s string) {}, []any{1}},
		{"nil for value type", func(n int) {}, []any{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFunctionTask(tt.fn, tt.args...)
			assert.ErrorIs(t, err, ErrInvalidTask)
		})
	}
}

// TestFunctionTask_NilForPointer verifies nil binds to nillable parameters
func TestFunctionTask_NilForPointer(t *testing.T) {
	var gotNil bool
	task, err := NewFunctionTask(func(q *Queue[int]) { gotNil = q == nil }, nil)
	require.NoError(t, err)

	task.Run(context.Background())

	assert.True(t, gotNil)
}

// TestFunctionTask_CopiesSlices verifies the submitter may reuse its buffer
// Given: A slice argument captured by a task
// When: The submitter overwrites the slice before the task runs
// Then: The task still sees the submitted values
func TestFunctionTask_CopiesSlices(t *testing.T) {
	buf := []int{1, 2, 3}
	var seen []int

	task, err := NewFunctionTask(func(xs []int) { seen = append([]int(nil), xs...) }, buf)
	require.NoError(t, err)

	buf[0] = 99
	task.Run(context.Background())

	assert.Equal(t, []int{1, 2, 3}, seen)
}

type gridBox struct {
	Vals  []int
	cells map[string][]int
	Next  *gridBox
}

// TestFunctionTask_DeepCopiesArguments verifies nested values are copied
// Given: A nested slice, a struct holding slices and maps, and a pointer chain
// When: The submitter mutates every level before the worker runs the task
// Then: The task sees the values as they were at submission
func TestFunctionTask_DeepCopiesArguments(t *testing.T) {
	// Arrange
	grid := [][]int{{1, 2}, {3, 4}}
	box := gridBox{Vals: []int{7}, cells: map[string][]int{"a": {5}}, Next: &gridBox{Vals: []int{8}}}
	ptr := &gridBox{Vals: []int{9}}
	items := []any{[]int{6}}

	var gotGrid [][]int
	var gotBox gridBox
	var gotPtr *gridBox
	var gotItem int
	w := NewWorkerThread(nil)
	require.NoError(t, w.AddFunctionTask(func(g [][]int, b gridBox, p *gridBox, xs []any) {
		gotGrid, gotBox, gotPtr = g, b, p
		gotItem = xs[0].([]int)[0]
	}, grid, box, ptr, items))

	// Act
	grid[0][0] = 99
	box.Vals[0] = 99
	box.cells["a"][0] = 99
	box.Next.Vals[0] = 99
	ptr.Vals[0] = 99
	items[0].([]int)[0] = 99
	require.NoError(t, w.Start())
	require.NoError(t, w.Join())

	// Assert
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, gotGrid)
	assert.Equal(t, []int{7}, gotBox.Vals)
	assert.Equal(t, []int{5}, gotBox.cells["a"])
	assert.Equal(t, []int{8}, gotBox.Next.Vals)
	assert.Equal(t, []int{9}, gotPtr.Vals)
	assert.NotSame(t, ptr, gotPtr)
	assert.Equal(t, 6, gotItem)
}

// TestFunctionTask_SharesContainers verifies shared containers are passed by
// reference, directly and nested inside copied values
func TestFunctionTask_SharesContainers(t *testing.T) {
	q := NewQueue[int]()
	mq := NewMessageQueue[int]()
	v, err := NewVector[int](1)
	require.NoError(t, err)
	h := NewHashTable[string, int]()
	n := NewAtomicInteger(0)
	ch := make(chan int, 1)

	type bundle struct {
		Q *Queue[int]
		V *Vector[int]
	}

	task, err := NewFunctionTask(func(q2 *Queue[int], mq2 *MessageQueue[int], h2 *HashTable[string, int], n2 *AtomicInteger, b bundle, c chan int) {
		assert.Same(t, q, q2)
		assert.Same(t, mq, mq2)
		assert.Same(t, h, h2)
		assert.Same(t, n, n2)
		assert.Same(t, q, b.Q)
		assert.Same(t, v, b.V)
		c <- 1
	}, q, mq, h, n, bundle{Q: q, V: v}, ch)
	require.NoError(t, err)

	task.Run(context.Background())

	assert.Len(t, ch, 1)
}

// TestFunctionTask_KeepsTimeLocation verifies times keep their location identity
func TestFunctionTask_KeepsTimeLocation(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	var got time.Time
	task, err := NewFunctionTask(func(ts time.Time) { got = ts }, at)
	require.NoError(t, err)
	task.Run(context.Background())

	assert.True(t, at.Equal(got))
	assert.Same(t, time.Local, got.Location())
}

type ring struct {
	Val  int
	Next *ring
}

// TestFunctionTask_CopiesPointerCycles verifies a cyclic argument is copied
// with its shape preserved
func TestFunctionTask_CopiesPointerCycles(t *testing.T) {
	a := &ring{Val: 1}
	a.Next = &ring{Val: 2, Next: a}

	var got *ring
	task, err := NewFunctionTask(func(r *ring) { got = r }, a)
	require.NoError(t, err)
	a.Next.Val = 99

	task.Run(context.Background())

	require.NotNil(t, got)
	assert.NotSame(t, a, got)
	assert.Equal(t, 2, got.Next.Val)
	assert.Same(t, got, got.Next.Next)
}

// TestTaskName verifies names resolved for execution records
func TestTaskName(t *testing.T) {
	ft, err := NewFunctionTask(addInto, NewQueue[int](), 1, 1)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(TaskName(ft), "addInto"))
	assert.NotEmpty(t, TaskName(TaskFunc(func(ctx context.Context) {})))
	assert.Equal(t, "anonymous", TaskName(nil))
}

// TestTaskID verifies generated IDs are unique and non-zero
func TestTaskID(t *testing.T) {
	a, b := GenerateTaskID(), GenerateTaskID()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
	assert.True(t, TaskID{}.IsZero())
	assert.Len(t, a.String(), 36)
}

// TestGetCurrentWorker_OutsideWorker verifies nil outside a worker context
func TestGetCurrentWorker_OutsideWorker(t *testing.T) {
	assert.Nil(t, GetCurrentWorker(context.Background()))
}
