// Package lattice wires the worker pool, ordered kv layer, relation store,
// and query executor together behind a single Handle, the entry point both
// cmd/lattice and library callers use.
package lattice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/config"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/log"
	"github.com/cuemby/lattice/pkg/metrics"
	"github.com/cuemby/lattice/pkg/nstore"
	"github.com/cuemby/lattice/pkg/pool"
	"github.com/cuemby/lattice/pkg/query"
)

// Handle is an open lattice database: a worker pool bound to one bbolt file,
// plus the registry of relations defined over it.
type Handle struct {
	cfg       config.Config
	pool      *pool.Pool
	registry  *nstore.Registry
	collector *metrics.Collector

	metricsSrv *http.Server
}

// Open starts a pool against cfg.Path and returns a ready Handle. cfg is run
// through config.Defaults first, so callers may leave optional fields zero.
func Open(cfg config.Config) (*Handle, error) {
	cfg = config.Defaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	p, err := pool.Open(cfg.Path, cfg.Bucket, cfg.PoolSize, cfg.QueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}

	h := &Handle{
		cfg:      cfg,
		pool:     p,
		registry: nstore.NewRegistry(),
	}

	h.collector = metrics.NewCollector(p, h.registry)
	h.collector.Start(5 * time.Second)

	if cfg.MetricsAddr != "" {
		h.startMetricsServer(cfg.MetricsAddr)
	}

	log.WithComponent("lattice").Info().Str("path", cfg.Path).Int("workers", p.Workers()).Msg("handle opened")
	return h, nil
}

func (h *Handle) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	h.metricsSrv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := h.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithComponent("lattice").Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// Apply submits fn to the underlying worker pool and blocks for its result,
// for callers that need direct connection access beyond Get/Set/Query/Register.
func (h *Handle) Apply(ctx context.Context, op string, readonly bool, fn pool.Func) (any, error) {
	return h.pool.Apply(ctx, op, readonly, fn)
}

type getResult struct {
	val []byte
	ok  bool
}

// Get returns the value stored under key.
func (h *Handle) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	val, err := h.pool.Apply(ctx, "kv.get", true, func(conn *kv.RawConn) (any, error) {
		v, ok, err := kv.Get(conn, key)
		return getResult{val: v, ok: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := val.(getResult)
	return r.val, r.ok, nil
}

// Set writes key to value.
func (h *Handle) Set(ctx context.Context, key, value []byte) error {
	_, err := h.pool.Apply(ctx, "kv.set", false, func(conn *kv.RawConn) (any, error) {
		return nil, kv.Set(conn, key, value)
	})
	return err
}

// Delete removes key, returning the number removed (0 or 1).
func (h *Handle) Delete(ctx context.Context, key []byte) (int, error) {
	val, err := h.pool.Apply(ctx, "kv.delete", false, func(conn *kv.RawConn) (any, error) {
		return kv.Delete(conn, key)
	})
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

// Query returns rows in [start, end), honoring offset/limit (limit < 0 means
// unbounded).
func (h *Handle) Query(ctx context.Context, start, end []byte, offset, limit int) ([]kv.Row, error) {
	val, err := h.pool.Apply(ctx, "kv.query", true, func(conn *kv.RawConn) (any, error) {
		return kv.Query(conn, start, end, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return val.([]kv.Row), nil
}

// DeleteRange removes the rows in [start, end), honoring offset/limit, and
// returns the count removed.
func (h *Handle) DeleteRange(ctx context.Context, start, end []byte, offset, limit int) (int, error) {
	val, err := h.pool.Apply(ctx, "kv.delete_range", false, func(conn *kv.RawConn) (any, error) {
		return kv.DeleteRange(conn, start, end, offset, limit)
	})
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

// Count returns the number of rows in [start, end), honoring offset/limit.
func (h *Handle) Count(ctx context.Context, start, end []byte, offset, limit int) (int, error) {
	val, err := h.pool.Apply(ctx, "kv.count", true, func(conn *kv.RawConn) (any, error) {
		return kv.Count(conn, start, end, offset, limit)
	})
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

// Bytes returns the sum of key+value byte lengths over [start, end), honoring
// offset/limit.
func (h *Handle) Bytes(ctx context.Context, start, end []byte, offset, limit int) (int, error) {
	val, err := h.pool.Apply(ctx, "kv.bytes", true, func(conn *kv.RawConn) (any, error) {
		return kv.Bytes(conn, start, end, offset, limit)
	})
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

// WithTxn runs fn in a single writable transaction dispatched through the
// pool, committing on normal return and rolling back on error.
func (h *Handle) WithTxn(ctx context.Context, op string, fn func(*kv.TxnConn) (any, error)) (any, error) {
	return h.pool.Apply(ctx, op, false, func(conn *kv.RawConn) (any, error) {
		return kv.WithTxn(conn, fn)
	})
}

// Register creates and registers a new relation of the given arity.
func (h *Handle) Register(name string, arity int) (*nstore.NStore, error) {
	return h.registry.Register(name, arity)
}

// NStore looks up a previously registered relation by name.
func (h *Handle) NStore(name string) (*nstore.NStore, error) {
	return h.registry.Lookup(name)
}

// Names lists every registered relation.
func (h *Handle) Names() []string {
	return h.registry.Names()
}

// AddTuple inserts items into the named relation.
func (h *Handle) AddTuple(ctx context.Context, relation string, items codec.Tuple) error {
	ns, err := h.registry.Lookup(relation)
	if err != nil {
		return err
	}
	_, err = h.pool.Apply(ctx, "nstore.add", false, func(conn *kv.RawConn) (any, error) {
		return nil, ns.Add(conn, items)
	})
	return err
}

// DeleteTuple removes items from the named relation.
func (h *Handle) DeleteTuple(ctx context.Context, relation string, items codec.Tuple) error {
	ns, err := h.registry.Lookup(relation)
	if err != nil {
		return err
	}
	_, err = h.pool.Apply(ctx, "nstore.delete", false, func(conn *kv.RawConn) (any, error) {
		return nil, ns.Delete(conn, items)
	})
	return err
}

// Run executes a multi-clause query against the relations named by its
// clauses; they need not be registered on this handle.
func (h *Handle) Run(ctx context.Context, clauses ...query.Clause) ([]query.Binding, error) {
	val, err := h.pool.Apply(ctx, "query.run", true, func(conn *kv.RawConn) (any, error) {
		return query.Run(conn, clauses...)
	})
	if err != nil {
		return nil, err
	}
	return val.([]query.Binding), nil
}

// Close stops the worker pool, metrics collector, and metrics HTTP server
// (if one was started).
func (h *Handle) Close() error {
	h.collector.Stop()
	if h.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.metricsSrv.Shutdown(ctx)
	}
	return h.pool.Close()
}
