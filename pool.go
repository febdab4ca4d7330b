package threadkit

import (
	"fmt"
	"sync"

	"github.com/Swind/go-threadkit/core"
)

// =============================================================================
// Global Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *core.Pool
	globalMu   sync.Mutex
)

// InitGlobalPool creates and starts the global pool with size workers.
// Calling it again while a global pool exists is a no-op.
func InitGlobalPool(size int) error {
	return InitGlobalPoolWithConfig(size, nil)
}

// InitGlobalPoolWithConfig is InitGlobalPool with explicit configuration.
func InitGlobalPoolWithConfig(size int, cfg *core.PoolConfig) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return nil // Already initialized
	}

	if cfg == nil {
		cfg = core.DefaultPoolConfig()
	}
	if cfg.Name == "" {
		c := *cfg
		c.Name = "global-pool"
		cfg = &c
	}

	p, err := core.NewPoolWithConfig(size, cfg)
	if err != nil {
		return fmt.Errorf("init global pool: %w", err)
	}
	globalPool = p
	return nil
}

// GetGlobalPool returns the global pool instance.
// It panics if InitGlobalPool has not been called.
func GetGlobalPool() *core.Pool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool closes the global pool, waiting for queued tasks, and
// clears it so InitGlobalPool can create a new one.
func ShutdownGlobalPool() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		return nil
	}
	err := globalPool.Close()
	globalPool = nil
	return err
}

// Submit adds task to the global pool.
func Submit(task Task) error {
	return GetGlobalPool().AddTask(task)
}
