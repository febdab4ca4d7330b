package core

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Metrics
// =============================================================================

// TestMetrics is a mock metrics collector for testing
type TestMetrics struct {
	mu         sync.Mutex
	durations  map[string]int
	panics     map[string]int
	rejections []string
	maxDepth   int
}

func NewTestMetrics() *TestMetrics {
	return &TestMetrics{
		durations: make(map[string]int),
		panics:    make(map[string]int),
	}
}

func (m *TestMetrics) RecordTaskDuration(workerName string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[workerName]++
}

func (m *TestMetrics) RecordTaskPanic(workerName string, panicInfo any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[workerName]++
}

func (m *TestMetrics) RecordQueueDepth(workerName string, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxDepth = max(m.maxDepth, depth)
}

func (m *TestMetrics) RecordTaskRejected(workerName string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, workerName+":"+reason)
}

func TestDefaultPanicHandler(t *testing.T) {
	// Given: A DefaultPanicHandler writing to a captured logger
	buf := captureLog(t)
	handler := &DefaultPanicHandler{}

	// When: HandlePanic is called
	handler.HandlePanic(context.Background(), "pool-worker-2", 2, "test panic", []byte("stack trace"))

	// Then: The panic is logged at Error level with the worker
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[ERROR] task panicked"))
	assert.Contains(t, out, "worker: pool-worker-2")
	assert.Contains(t, out, "panic: test panic")
}

func TestDefaultRejectedTaskHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := &DefaultRejectedTaskHandler{Logger: &bufferLogger{buf: &buf}}

	handler.HandleRejectedTask("w", RejectReasonClosed)

	assert.Equal(t, "[WARN] task rejected {worker: w, reason: closed}", buf.String())
}

func TestNilMetrics(t *testing.T) {
	m := &NilMetrics{}
	m.RecordTaskDuration("w", time.Second)
	m.RecordTaskPanic("w", nil)
	m.RecordQueueDepth("w", 1)
	m.RecordTaskRejected("w", "closed")
}

// TestWorkerConfig_Defaults verifies unset fields are filled in
func TestWorkerConfig_Defaults(t *testing.T) {
	var nilCfg *WorkerConfig
	d := nilCfg.withDefaults()
	assert.Equal(t, DispatchFixedBatch, d.Mode)
	assert.NotNil(t, d.Logger)
	assert.NotNil(t, d.PanicHandler)
	assert.NotNil(t, d.Metrics)
	assert.NotNil(t, d.RejectedTaskHandler)
	assert.Equal(t, defaultHistoryCapacity, d.HistoryCapacity)

	metrics := NewTestMetrics()
	partial := (&WorkerConfig{Name: "x", Metrics: metrics, HistoryCapacity: -1}).withDefaults()
	assert.Equal(t, "x", partial.Name)
	assert.Same(t, metrics, partial.Metrics)
	assert.Equal(t, defaultHistoryCapacity, partial.HistoryCapacity)
}

// TestPoolConfig_WorkerConfig verifies pool workers share the pool hooks
func TestPoolConfig_WorkerConfig(t *testing.T) {
	metrics := NewTestMetrics()
	cfg := &PoolConfig{Metrics: metrics, HistoryCapacity: 7}

	wc := cfg.workerConfig("p", 3)

	assert.Equal(t, "p-worker-3", wc.Name)
	assert.Equal(t, DispatchPersistent, wc.Mode)
	assert.Same(t, metrics, wc.Metrics)
	assert.Equal(t, 7, wc.HistoryCapacity)

	var nilCfg *PoolConfig
	assert.Equal(t, "q-worker-0", nilCfg.workerConfig("q", 0).Name)
}

// TestPool_MetricsHooks verifies every hook fires through a pool
// Given: A pool of 2 with TestMetrics
// When: 6 tasks run (one panics), the pool closes, and a late task is sent to a worker
// Then: Durations, the panic, queue depth and the rejection are all recorded
func TestPool_MetricsHooks(t *testing.T) {
	metrics := NewTestMetrics()
	p, err := NewPoolWithConfig(2, &PoolConfig{
		Name:                "hooks",
		Metrics:             metrics,
		PanicHandler:        &recordingPanicHandler{},
		RejectedTaskHandler: &recordingRejectedHandler{},
	})
	require.NoError(t, err)

	for i := range 6 {
		require.NoError(t, p.AddTask(TaskFunc(func(ctx context.Context) {
			if i == 1 {
				panic("hook")
			}
		})))
	}
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Worker(0).AddTask(TaskFunc(func(ctx context.Context) {})), ErrInvalidState)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 3, metrics.durations["hooks-worker-0"])
	assert.Equal(t, 3, metrics.durations["hooks-worker-1"])
	assert.Equal(t, 1, metrics.panics["hooks-worker-1"])
	assert.GreaterOrEqual(t, metrics.maxDepth, 1)
	assert.Equal(t, []string{"hooks-worker-0:joined"}, metrics.rejections)
}

type bufferLogger struct {
	buf *bytes.Buffer
}

func (l *bufferLogger) Debug(msg string, fields ...Field) {}
func (l *bufferLogger) Info(msg string, fields ...Field)  {}
func (l *bufferLogger) Warn(msg string, fields ...Field) {
	l.buf.WriteString(formatLogLine("WARN", msg, fields...))
}
func (l *bufferLogger) Error(msg string, fields ...Field) {
	l.buf.WriteString(formatLogLine("ERROR", msg, fields...))
}
