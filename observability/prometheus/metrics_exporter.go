package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Swind/go-threadkit/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

const (
	defaultNamespace = "threadkit"

	// standalonePool is the pool label of workers that belong to no pool.
	standalonePool = "standalone"

	poolWorkerInfix = "-worker-"
)

// MetricsExporter adapts core.Metrics to Prometheus collectors. Every series
// carries a pool and a worker label. Pool workers are named
// "<pool>-worker-<i>", so the pool is recovered from the worker name and
// per-pool balance of the round-robin cursor can be compared across slots.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskExecutedTotal   *prom.CounterVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	queueDepthPeak      *prom.GaugeVec

	peakMu sync.Mutex
	peaks  map[string]int
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	labels := []string{"pool", "worker"}
	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds, panicked tasks included.",
		Buckets:   buckets,
	}, labels)
	executedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_executed_total",
		Help:      "Tasks run to completion or panic, per worker slot.",
	}, labels)
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Tasks whose panic was recovered by the worker.",
	}, labels)
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Tasks refused by AddTask, by lifecycle reason (batch_running, closed, finished, joined).",
	}, append(labels, "reason"))
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Pending tasks in the worker queue.",
	}, labels)
	queuePeakVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth_peak",
		Help:      "Highest pending task count seen per worker.",
	}, labels)

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	for _, vec := range []**prom.CounterVec{&executedVec, &panicVec, &rejectedVec} {
		if *vec, err = registerCollector(reg, *vec); err != nil {
			return nil, err
		}
	}
	for _, vec := range []**prom.GaugeVec{&queueDepthVec, &queuePeakVec} {
		if *vec, err = registerCollector(reg, *vec); err != nil {
			return nil, err
		}
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskExecutedTotal:   executedVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		queueDepthPeak:      queuePeakVec,
		peaks:               make(map[string]int),
	}, nil
}

// RecordTaskDuration records task execution duration.
func (m *MetricsExporter) RecordTaskDuration(workerName string, duration time.Duration) {
	if m == nil {
		return
	}
	pool, worker := workerLabels(workerName)
	m.taskDurationSeconds.WithLabelValues(pool, worker).Observe(duration.Seconds())
	m.taskExecutedTotal.WithLabelValues(pool, worker).Inc()
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(workerName string, panicInfo any) {
	if m == nil {
		return
	}
	pool, worker := workerLabels(workerName)
	m.taskPanicTotal.WithLabelValues(pool, worker).Inc()
}

// RecordQueueDepth records queue depth and raises the worker's peak.
func (m *MetricsExporter) RecordQueueDepth(workerName string, depth int) {
	if m == nil {
		return
	}
	pool, worker := workerLabels(workerName)
	m.queueDepth.WithLabelValues(pool, worker).Set(float64(depth))

	m.peakMu.Lock()
	defer m.peakMu.Unlock()
	if depth > m.peaks[worker] {
		m.peaks[worker] = depth
		m.queueDepthPeak.WithLabelValues(pool, worker).Set(float64(depth))
	}
}

// RecordTaskRejected records task rejection events.
func (m *MetricsExporter) RecordTaskRejected(workerName string, reason string) {
	if m == nil {
		return
	}
	pool, worker := workerLabels(workerName)
	m.taskRejectedTotal.WithLabelValues(pool, worker, normalizeLabel(reason, "unknown")).Inc()
}

// workerLabels splits a pool worker name "<pool>-worker-<i>" into its pool
// and worker labels. Other names belong to the standalone pool.
func workerLabels(workerName string) (pool, worker string) {
	worker = normalizeLabel(workerName, "unknown")
	i := strings.LastIndex(worker, poolWorkerInfix)
	if i <= 0 {
		return standalonePool, worker
	}
	if _, err := strconv.Atoi(worker[i+len(poolWorkerInfix):]); err != nil {
		return standalonePool, worker
	}
	return worker[:i], worker
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
