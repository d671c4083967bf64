/*
Package metrics provides Prometheus metrics collection and exposition for
lattice.

The metrics package defines and registers gauges, counters and histograms
covering the worker pool, the kv substrate, and nstore/query execution, and
exposes them over HTTP for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Pool: queue depth, workers, reopens        │          │
	│  │  kv: op counts, op duration                 │          │
	│  │  nstore: op counts by relation              │          │
	│  │  query: duration, binding count             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: metrics.Handler()               │          │
	│  └────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────┘

# Core Components

Metrics variables (metrics.go): package-level prometheus.Gauge/Counter/
Histogram values, registered once via init(). Callers reference the
variables directly — there is no accessor layer.

Collector (collector.go): samples gauges that reflect pending state rather
than a completed event, such as queue depth. It polls a PoolSampler on a
ticker so pkg/pool itself never has to know about a sampling interval.

Timer (metrics.go): a small helper wrapping time.Now() for latency
histograms; ObserveDuration/ObserveDurationVec record the elapsed time in
seconds, matching Prometheus's convention for duration units.

Health (health.go): a process-wide HealthChecker tracking named components
("kv", "pool") as healthy/unhealthy, exposed through /health, /ready and
/live handlers for container orchestrators and load balancers.

# Usage

	metrics.KVOpsTotal.WithLabelValues("get", "ok").Inc()

	timer := metrics.NewTimer()
	rows, err := kv.Query(conn, start, end, 0, -1)
	timer.ObserveDurationVec(metrics.QueryDuration, "1")

	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
*/
package metrics
