package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pool metrics
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_pool_queue_depth",
			Help: "Current number of calls waiting in the worker pool queue",
		},
	)

	WorkersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_pool_workers_total",
			Help: "Number of worker goroutines in the pool",
		},
	)

	ConnectionReopensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_pool_connection_reopens_total",
			Help: "Total number of worker connections reopened after a substrate failure",
		},
	)

	WriteLockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lattice_pool_write_lock_wait_seconds",
			Help:    "Time a caller waited to acquire the write mutex before enqueueing a call",
			Buckets: prometheus.DefBuckets,
		},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lattice_pool_task_duration_seconds",
			Help:    "Time a dispatched call spent executing on a worker, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	TasksFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_pool_tasks_failed_total",
			Help: "Total number of dispatched calls that returned an error, by operation",
		},
		[]string{"operation"},
	)

	// kv metrics
	KVOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_kv_ops_total",
			Help: "Total number of kv operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	KVOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lattice_kv_op_duration_seconds",
			Help:    "kv operation duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// nstore / query metrics
	NStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_nstore_ops_total",
			Help: "Total number of nstore operations by relation, kind and outcome",
		},
		[]string{"relation", "op", "outcome"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lattice_query_duration_seconds",
			Help:    "Multi-pattern query execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pattern_count"},
	)

	QueryBindingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_query_bindings_total",
			Help: "Total number of variable bindings produced across all queries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		QueueDepth,
		WorkersTotal,
		ConnectionReopensTotal,
		WriteLockWaitSeconds,
		TaskDuration,
		TasksFailedTotal,
		KVOpsTotal,
		KVOpDuration,
		NStoreOpsTotal,
		QueryDuration,
		QueryBindingsTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
