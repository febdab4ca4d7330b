package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-threadkit/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("threadkit", reg, ExporterOptions{})
	require.NoError(t, err)

	exporter.RecordTaskDuration("pool-worker-0", 250*time.Millisecond)
	exporter.RecordTaskPanic("pool-worker-0", "panic")
	exporter.RecordQueueDepth("pool-worker-0", 7)
	exporter.RecordTaskRejected("pool-worker-0", core.RejectReasonJoined)

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("pool", "pool-worker-0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskExecutedTotal.WithLabelValues("pool", "pool-worker-0")))
	assert.Equal(t, 7.0, testutil.ToFloat64(exporter.queueDepth.WithLabelValues("pool", "pool-worker-0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues("pool", "pool-worker-0", "joined")))

	histCount, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("pool", "pool-worker-0"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("threadkit", reg, ExporterOptions{})
	require.NoError(t, err)
	second, err := NewMetricsExporter("threadkit", reg, ExporterOptions{})
	require.NoError(t, err)

	first.RecordTaskPanic("w", nil)
	second.RecordTaskPanic("w", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.taskPanicTotal.WithLabelValues(standalonePool, "w")))
}

func TestMetricsExporter_NilSafe(t *testing.T) {
	var m *MetricsExporter
	m.RecordTaskDuration("w", time.Second)
	m.RecordTaskPanic("w", nil)
	m.RecordQueueDepth("w", 1)
	m.RecordTaskRejected("w", "closed")
}

// TestMetricsExporter_WiredIntoPool verifies a pool reports through the exporter
// Given: A pool of 2 configured with the exporter as its Metrics
// When: 10 tasks run, one of them panicking, and the pool is closed
// Then: Durations are observed for every task and the panic is counted once
func TestMetricsExporter_WiredIntoPool(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{DurationBuckets: []float64{0.001, 0.01}})
	require.NoError(t, err)

	p, err := core.NewPoolWithConfig(2, &core.PoolConfig{
		Name:         "m",
		Metrics:      exporter,
		PanicHandler: &core.DefaultPanicHandler{Logger: core.NewNoOpLogger()},
	})
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, p.AddTask(core.TaskFunc(func(ctx context.Context) {
			if i == 3 {
				panic("boom")
			}
		})))
	}
	require.NoError(t, p.Close())

	var total uint64
	for _, w := range []string{"m-worker-0", "m-worker-1"} {
		n, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("m", w))
		require.NoError(t, err)
		assert.Equal(t, uint64(5), n)
		assert.Equal(t, 5.0, testutil.ToFloat64(exporter.taskExecutedTotal.WithLabelValues("m", w)))
		total += n
	}
	assert.Equal(t, uint64(10), total)
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("m", "m-worker-1")))
}

// TestMetricsExporter_RejectionsByReason verifies each lifecycle refusal is
// counted under its own reason
// Given: A fixed-batch worker and a closed pool sharing one exporter
// When: Tasks are added while running, after Close and after Join
// Then: batch_running is counted on the standalone worker and joined on the pool slot
func TestMetricsExporter_RejectionsByReason(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	require.NoError(t, err)
	noop := core.TaskFunc(func(ctx context.Context) {})
	quiet := &core.DefaultRejectedTaskHandler{Logger: core.NewNoOpLogger()}

	release := make(chan struct{})
	w := core.NewWorkerThread(&core.WorkerConfig{Name: "batch", Metrics: exporter, RejectedTaskHandler: quiet})
	require.NoError(t, w.AddTask(core.TaskFunc(func(ctx context.Context) { <-release })))
	require.NoError(t, w.Start())
	assert.ErrorIs(t, w.AddTask(noop), core.ErrInvalidState)
	close(release)
	require.NoError(t, w.Join())
	assert.ErrorIs(t, w.AddTask(noop), core.ErrInvalidState)

	p, err := core.NewPoolWithConfig(2, &core.PoolConfig{Name: "grid", Metrics: exporter, RejectedTaskHandler: quiet})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Worker(1).AddTask(noop), core.ErrInvalidState)

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues(standalonePool, "batch", core.RejectReasonBatchRunning)))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues(standalonePool, "batch", core.RejectReasonJoined)))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues("grid", "grid-worker-1", core.RejectReasonJoined)))
	assert.Equal(t, 3, testutil.CollectAndCount(exporter.taskRejectedTotal))
}

// TestMetricsExporter_QueueDepthPeak verifies the peak only rises
func TestMetricsExporter_QueueDepthPeak(t *testing.T) {
	exporter, err := NewMetricsExporter("", prom.NewRegistry(), ExporterOptions{})
	require.NoError(t, err)

	for _, depth := range []int{1, 4, 2, 0} {
		exporter.RecordQueueDepth("p-worker-0", depth)
	}

	assert.Equal(t, 0.0, testutil.ToFloat64(exporter.queueDepth.WithLabelValues("p", "p-worker-0")))
	assert.Equal(t, 4.0, testutil.ToFloat64(exporter.queueDepthPeak.WithLabelValues("p", "p-worker-0")))
}

func TestWorkerLabels(t *testing.T) {
	tests := []struct {
		name, pool, worker string
	}{
		{"grid-worker-3", "grid", "grid-worker-3"},
		{"msg-1-worker-0", "msg-1", "msg-1-worker-0"},
		{"batch", standalonePool, "batch"},
		{"-worker-0", standalonePool, "-worker-0"},
		{"grid-worker-x", standalonePool, "grid-worker-x"},
		{"", standalonePool, "unknown"},
	}
	for _, tt := range tests {
		pool, worker := workerLabels(tt.name)
		assert.Equal(t, tt.pool, pool, tt.name)
		assert.Equal(t, tt.worker, worker, tt.name)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
