// Package pool implements the worker-pool concurrency substrate lattice
// dispatches every kv and nstore operation through: a fixed number of
// goroutines, each owning its own long-lived kv connection, draining a
// single shared work queue. Callers never touch a connection directly —
// they submit a closure via Apply and block on its result.
//
// Write operations additionally serialize through the pool's single write
// mutex held by the caller around enqueue-and-wait, so that bbolt (a
// single-writer store) never sees two concurrent Update transactions.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/lattice/pkg/errs"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/log"
	"github.com/cuemby/lattice/pkg/metrics"
)

// DefaultPoolSize is 2x the CPU count, floored at 4.
func DefaultPoolSize() int {
	n := 2 * runtime.NumCPU()
	if n < 4 {
		return 4
	}
	return n
}

// Func is the work a caller submits: it receives the long-lived connection
// of the worker that picks it up and returns a result or an error.
type Func func(conn *kv.RawConn) (any, error)

type task struct {
	id       string
	op       string
	readonly bool
	fn       Func
	reply    chan taskResult
}

type taskResult struct {
	val any
	err error
}

// Pool is a fixed-size set of workers sharing one dispatch queue, each
// bound to its own connection against a single bbolt database.
type Pool struct {
	path   string
	bucket string

	writeMu sync.Mutex
	queue   chan task

	workers int
	wg      sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once
}

// Open starts a pool of size workers (DefaultPoolSize() if size <= 0) over
// one kv.Store opened against path/bucket, each worker holding its own
// connection to that store.
func Open(path, bucket string, size, queueCapacity int) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize()
	}
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}

	p := &Pool{
		path:    path,
		bucket:  bucket,
		queue:   make(chan task, queueCapacity),
		workers: size,
		closeCh: make(chan struct{}),
	}

	store, err := kv.Open(path, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: starting workers: %v", errs.ErrSubstrateFailure, err)
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i, store.NewConn())
	}
	metrics.WorkersTotal.Set(float64(size))
	log.WithComponent("pool").Info().Int("workers", size).Str("path", path).Msg("pool started")
	return p, nil
}

// Workers returns the number of worker goroutines in the pool.
func (p *Pool) Workers() int { return p.workers }

// QueueDepth returns the current number of calls waiting to be picked up by
// a worker.
func (p *Pool) QueueDepth() int { return len(p.queue) }

// Capacity returns the queue's maximum pending-call depth.
func (p *Pool) Capacity() int { return cap(p.queue) }

// Ping submits a trivial readonly task and waits for a worker to pick it up
// and return, confirming both that the pool is still dispatching work and
// that the underlying bbolt connection a worker holds is still usable.
func (p *Pool) Ping(ctx context.Context) error {
	_, err := p.Apply(ctx, "pool.ping", true, func(conn *kv.RawConn) (any, error) {
		_, err := kv.Count(conn, nil, nil, 0, -1)
		return nil, err
	})
	return err
}

func (p *Pool) run(id int, conn *kv.RawConn) {
	defer p.wg.Done()
	wlog := log.WithWorkerID(id)

	for {
		select {
		case <-p.closeCh:
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			conn = p.execute(id, wlog, conn, t)
		}
	}
}

func (p *Pool) execute(id int, wlog zerolog.Logger, conn *kv.RawConn, t task) (out *kv.RawConn) {
	out = conn
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDurationVec(metrics.TaskDuration, t.op)
		if r := recover(); r != nil {
			out = conn
			metrics.TasksFailedTotal.WithLabelValues(t.op).Inc()
			t.reply <- taskResult{err: fmt.Errorf("%w: worker %d panicked: %v", errs.ErrUserFailure, id, r)}
		}
	}()

	val, err := t.fn(conn)
	if err != nil && isSubstrateFailure(err) {
		wlog.Warn().Err(err).Str("task_id", t.id).Msg("reopening connection after substrate failure")
		metrics.ConnectionReopensTotal.Inc()
		if reErr := conn.Reopen(p.path); reErr != nil {
			wlog.Error().Err(reErr).Msg("failed to reopen connection")
		}
	}
	if err != nil {
		metrics.TasksFailedTotal.WithLabelValues(t.op).Inc()
	}
	t.reply <- taskResult{val: val, err: err}
	return conn
}

func isSubstrateFailure(err error) bool {
	return errors.Is(err, errs.ErrSubstrateFailure)
}

func newTaskID() string {
	return uuid.NewString()
}

// Apply submits fn to the pool and blocks for its result. readonly calls may
// run concurrently with other readonly calls; non-readonly calls acquire
// the pool's write mutex before enqueueing so only one write transaction is
// ever outstanding at a time against the single-writer bbolt substrate.
func (p *Pool) Apply(ctx context.Context, op string, readonly bool, fn Func) (any, error) {
	select {
	case <-p.closeCh:
		return nil, fmt.Errorf("%w: pool is closed", errs.ErrIllegalState)
	default:
	}

	if !readonly {
		waitStart := time.Now()
		p.writeMu.Lock()
		metrics.WriteLockWaitSeconds.Observe(time.Since(waitStart).Seconds())
		defer p.writeMu.Unlock()
	}

	reply := make(chan taskResult, 1)
	t := task{id: newTaskID(), op: op, readonly: readonly, fn: fn, reply: reply}

	select {
	case p.queue <- t:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errs.ErrIllegalState, ctx.Err())
	case <-p.closeCh:
		return nil, fmt.Errorf("%w: pool is closed", errs.ErrIllegalState)
	}

	select {
	case r := <-reply:
		return r.val, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errs.ErrIllegalState, ctx.Err())
	}
}

// Close stops accepting new work and waits for in-flight workers to finish
// their current task.
func (p *Pool) Close() error {
	p.once.Do(func() {
		close(p.closeCh)
	})
	p.wg.Wait()
	return nil
}
