package metrics

import (
	"context"
	"fmt"
	"time"
)

// PoolSampler is implemented by pkg/pool's Pool so the collector can sample
// queue depth and probe liveness without metrics depending on pool (pool
// already depends on metrics to increment counters/histograms as work runs).
type PoolSampler interface {
	QueueDepth() int
	Workers() int
	Capacity() int
	Ping(ctx context.Context) error
}

// RegistrySampler is implemented by pkg/nstore's Registry so the collector
// can report how many relations are registered without metrics depending on
// nstore.
type RegistrySampler interface {
	Names() []string
}

// Collector periodically samples gauges that aren't naturally updated at the
// call site, such as queue depth, and drives the kv/pool/nstore health
// components from that same sampling pass rather than a value fixed at
// startup.
type Collector struct {
	pool     PoolSampler
	registry RegistrySampler
	stopCh   chan struct{}
}

// NewCollector creates a collector sampling the given pool and, if non-nil,
// reporting the given registry's relation count as part of health.
func NewCollector(pool PoolSampler, registry RegistrySampler) *Collector {
	return &Collector{pool: pool, registry: registry, stopCh: make(chan struct{})}
}

// Start begins periodic sampling on its own goroutine.
func (c *Collector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the sampling goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.pool == nil {
		return
	}

	depth := c.pool.QueueDepth()
	capacity := c.pool.Capacity()
	QueueDepth.Set(float64(depth))
	WorkersTotal.Set(float64(c.pool.Workers()))

	if capacity > 0 && depth >= capacity {
		UpdateComponent("pool", false, fmt.Sprintf("queue saturated: %d/%d pending", depth, capacity))
	} else {
		UpdateComponent("pool", true, fmt.Sprintf("queue depth %d/%d", depth, capacity))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.pool.Ping(ctx); err != nil {
		UpdateComponent("kv", false, err.Error())
	} else {
		UpdateComponent("kv", true, "reachable")
	}

	if c.registry != nil {
		UpdateComponent("nstore", true, fmt.Sprintf("%d relations registered", len(c.registry.Names())))
	}
}
