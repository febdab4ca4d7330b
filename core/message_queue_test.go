package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMessageQueue_DrainAfterFinish verifies no message is lost at finish
// Given: A queue with "a" and "b" pushed, then Finish called
// When: The consumer drains it
// Then: Exactly ["a", "b"] is observed and Drain returns
func TestMessageQueue_DrainAfterFinish(t *testing.T) {
	// Arrange
	mq := NewMessageQueue[string]()
	require.NoError(t, mq.Push("a"))
	require.NoError(t, mq.Push("b"))
	mq.Finish()

	// Act
	var got []string
	err := mq.Drain(context.Background(), func(s string) { got = append(got, s) })

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.True(t, mq.Finished())
	assert.False(t, mq.HasMessages())
}

// TestMessageQueue_FinishTwice verifies Finish is idempotent
func TestMessageQueue_FinishTwice(t *testing.T) {
	mq := NewMessageQueue[int]()
	mq.Finish()
	mq.Finish()
	assert.True(t, mq.Finished())
}

// TestMessageQueue_PushAfterFinish verifies the finished flag is one-way
// Given: A finished queue
// When: A producer pushes again
// Then: Push returns ErrUseAfterFinish and the queue stays empty
func TestMessageQueue_PushAfterFinish(t *testing.T) {
	mq := NewMessageQueue[int]()
	mq.Finish()

	err := mq.Push(1)

	assert.ErrorIs(t, err, ErrUseAfterFinish)
	assert.Equal(t, 0, mq.Len())
}

// TestMessageQueue_PopEmptyNeverBlocks verifies Pop on an empty queue
// returns immediately with found == false
func TestMessageQueue_PopEmptyNeverBlocks(t *testing.T) {
	mq := NewMessageQueue[int]()

	done := make(chan struct{})
	go func() {
		_, found := mq.Pop()
		assert.False(t, found)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pop blocked on an empty queue")
	}
}

// TestMessageQueue_ConcurrentProducer verifies the termination predicate
// Given: A producer goroutine pushing 1000 values then calling Finish
// When: The consumer drains concurrently
// Then: Every value is observed exactly once, in order
func TestMessageQueue_ConcurrentProducer(t *testing.T) {
	// Arrange
	const n = 1000
	mq := NewMessageQueue[int]()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range n {
			_ = mq.Push(i)
		}
		mq.Finish()
	}()

	// Act
	got := make([]int, 0, n)
	err := mq.Drain(context.Background(), func(v int) { got = append(got, v) })
	wg.Wait()

	// Assert
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

// TestMessageQueue_DrainCancelled verifies Drain honours ctx
// Given: A queue whose producer never finishes
// When: Drain is called with a short deadline
// Then: Drain returns context.DeadlineExceeded
func TestMessageQueue_DrainCancelled(t *testing.T) {
	mq := NewMessageQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := mq.Drain(ctx, func(int) {})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
