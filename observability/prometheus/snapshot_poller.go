package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-threadkit/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// WorkerSnapshotProvider provides current worker stats snapshots.
// *core.WorkerThread and *core.ThreadHandle satisfy it.
type WorkerSnapshotProvider interface {
	Stats() core.WorkerStats
}

// PoolSnapshotProvider provides current pool stats snapshots.
// *core.Pool satisfies it.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// poolWorkersProvider is implemented by providers that can also report
// per-worker snapshots, such as *core.Pool.
type poolWorkersProvider interface {
	WorkerStats() []core.WorkerStats
}

// SnapshotPoller periodically exports worker/pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	workersMu sync.RWMutex
	workers   map[string]WorkerSnapshotProvider

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	workerPending  *prom.GaugeVec
	workerExecuted *prom.GaugeVec
	workerPanicked *prom.GaugeVec
	workerRejected *prom.GaugeVec
	workerState    *prom.GaugeVec

	poolQueued    *prom.GaugeVec
	poolExecuted  *prom.GaugeVec
	poolSubmitted *prom.GaugeVec
	poolWorkers   *prom.GaugeVec
	poolClosed    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	workerLabels := []string{"worker", "mode"}
	workerPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "worker_pending",
		Help:      "Number of pending tasks per worker.",
	}, workerLabels)
	workerExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "worker_executed",
		Help:      "Worker executed task count snapshot.",
	}, workerLabels)
	workerPanicked := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "worker_panicked",
		Help:      "Worker panicked task count snapshot.",
	}, workerLabels)
	workerRejected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "worker_rejected",
		Help:      "Worker rejected task count snapshot.",
	}, workerLabels)
	workerState := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "worker_state",
		Help:      "Worker lifecycle state (0=created, 1=running, 2=finished, 3=joined).",
	}, workerLabels)

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "pool_queued",
		Help:      "Queued tasks per pool.",
	}, []string{"pool"})
	poolExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "pool_executed",
		Help:      "Executed tasks per pool.",
	}, []string{"pool"})
	poolSubmitted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "pool_submitted",
		Help:      "Tasks assigned by the round-robin cursor per pool.",
	}, []string{"pool"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolClosed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: defaultNamespace,
		Name:      "pool_closed",
		Help:      "Pool closed state (1=closed, 0=open).",
	}, []string{"pool"})

	var err error
	for _, vec := range []**prom.GaugeVec{
		&workerPending, &workerExecuted, &workerPanicked, &workerRejected, &workerState,
		&poolQueued, &poolExecuted, &poolSubmitted, &poolWorkers, &poolClosed,
	} {
		if *vec, err = registerCollector(reg, *vec); err != nil {
			return nil, err
		}
	}

	return &SnapshotPoller{
		interval:       interval,
		workers:        make(map[string]WorkerSnapshotProvider),
		pools:          make(map[string]PoolSnapshotProvider),
		workerPending:  workerPending,
		workerExecuted: workerExecuted,
		workerPanicked: workerPanicked,
		workerRejected: workerRejected,
		workerState:    workerState,
		poolQueued:     poolQueued,
		poolExecuted:   poolExecuted,
		poolSubmitted:  poolSubmitted,
		poolWorkers:    poolWorkers,
		poolClosed:     poolClosed,
	}, nil
}

// AddWorker adds or replaces a worker snapshot provider by name.
func (p *SnapshotPoller) AddWorker(name string, provider WorkerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "worker")
	p.workersMu.Lock()
	p.workers[name] = provider
	p.workersMu.Unlock()
}

// AddPool adds or replaces a pool snapshot provider by name. When the
// provider also reports per-worker stats, its workers are exported too.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling after a final collection; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

// CollectOnce exports the current snapshots immediately.
func (p *SnapshotPoller) CollectOnce() {
	if p == nil {
		return
	}
	p.collectOnce()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			p.collectOnce()
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.workersMu.RLock()
	for name, provider := range p.workers {
		p.setWorker(name, provider.Stats())
	}
	p.workersMu.RUnlock()

	p.poolsMu.RLock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.poolExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.poolSubmitted.WithLabelValues(name).Set(float64(stats.Submitted))
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolClosed.WithLabelValues(name).Set(boolGauge(stats.Closed))

		if wp, ok := provider.(poolWorkersProvider); ok {
			for _, ws := range wp.WorkerStats() {
				p.setWorker(normalizeLabel(ws.Name, "worker"), ws)
			}
		}
	}
	p.poolsMu.RUnlock()
}

func (p *SnapshotPoller) setWorker(name string, stats core.WorkerStats) {
	mode := stats.Mode.String()
	p.workerPending.WithLabelValues(name, mode).Set(float64(stats.Pending))
	p.workerExecuted.WithLabelValues(name, mode).Set(float64(stats.Executed))
	p.workerPanicked.WithLabelValues(name, mode).Set(float64(stats.Panicked))
	p.workerRejected.WithLabelValues(name, mode).Set(float64(stats.Rejected))
	p.workerState.WithLabelValues(name, mode).Set(float64(stats.State))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
