package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Swind/go-threadkit/core"
	"github.com/Swind/go-threadkit/internal/config"
	threadprom "github.com/Swind/go-threadkit/observability/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// loadConfig reads --config (or defaults) and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("pool-size") {
		cfg.PoolSize = c.Int("pool-size")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("metrics-hold") {
		cfg.MetricsHold = c.Duration("metrics-hold")
	}
	if c.IsSet("grid-size") {
		cfg.GridSize = c.Int("grid-size")
	}
	if c.IsSet("max-iterations") {
		cfg.MaxIterations = c.Int("max-iterations")
	}
	if c.IsSet("bailout") {
		cfg.Bailout = c.Float64("bailout")
	}
	if c.IsSet("tasks") {
		cfg.TaskCount = c.Int("tasks")
	}
	if c.IsSet("runs") {
		cfg.Runs = c.Int("runs")
	}
	if c.IsSet("timeout") {
		cfg.DrainTimeout = c.Duration("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeEnv carries the logger and the optional metrics stack shared by the
// commands.
type runtimeEnv struct {
	cfg    *config.Config
	logger core.Logger

	metrics core.Metrics
	poller  *threadprom.SnapshotPoller
	server  *http.Server
}

func newRuntimeEnv(cfg *config.Config) (*runtimeEnv, error) {
	env := &runtimeEnv{
		cfg:     cfg,
		logger:  core.NewDefaultLoggerWithLevel(core.ParseLevel(cfg.LogLevel)),
		metrics: &core.NilMetrics{},
	}
	if cfg.MetricsAddr == "" {
		return env, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := threadprom.NewMetricsExporter("", reg, threadprom.ExporterOptions{})
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	poller, err := threadprom.NewSnapshotPoller(reg, time.Second)
	if err != nil {
		return nil, fmt.Errorf("snapshot poller: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	env.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	env.metrics = exporter
	env.poller = poller

	go func() {
		if err := env.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.Error("metrics server failed", core.F("error", err))
		}
	}()
	poller.Start(context.Background())

	env.logger.Info("serving metrics", core.F("addr", ln.Addr().String()))
	return env, nil
}

func (e *runtimeEnv) poolConfig(name string) *core.PoolConfig {
	cfg := core.DefaultPoolConfig()
	cfg.Name = name
	cfg.Logger = e.logger
	cfg.Metrics = e.metrics
	cfg.PanicHandler = &core.DefaultPanicHandler{Logger: e.logger}
	cfg.RejectedTaskHandler = &core.DefaultRejectedTaskHandler{Logger: e.logger}
	return cfg
}

func (e *runtimeEnv) workerConfig(name string) *core.WorkerConfig {
	cfg := core.DefaultWorkerConfig()
	cfg.Name = name
	cfg.Logger = e.logger
	cfg.Metrics = e.metrics
	cfg.PanicHandler = &core.DefaultPanicHandler{Logger: e.logger}
	cfg.RejectedTaskHandler = &core.DefaultRejectedTaskHandler{Logger: e.logger}
	return cfg
}

func (e *runtimeEnv) trackPool(p *core.Pool) {
	if e.poller != nil {
		e.poller.AddPool(p.Name(), p)
	}
}

func (e *runtimeEnv) trackHandle(h *core.ThreadHandle) {
	if e.poller != nil {
		e.poller.AddWorker(h.Stats().Name, h)
	}
}

// close publishes a final snapshot, holds the endpoint open for MetricsHold
// and shuts the server down.
func (e *runtimeEnv) close() {
	if e.server == nil {
		return
	}
	e.poller.Stop()

	if e.cfg.MetricsHold > 0 {
		e.logger.Info("holding metrics endpoint", core.F("for", e.cfg.MetricsHold))
		time.Sleep(e.cfg.MetricsHold)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		e.logger.Warn("metrics server shutdown", core.F("error", err))
	}
}
