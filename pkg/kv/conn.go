package kv

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/lattice/pkg/errs"
)

// Conn is satisfied by both RawConn and TxnConn: operations take
// a Conn so they can be called standalone (each gets its own transaction) or
// nested inside a larger WithTxn block (all share one transaction).
type Conn interface {
	runTx(readonly bool, fn func(*bolt.Tx) error) error
	bucketName() []byte
}

// RawConn is a worker's persistent connection to the bbolt substrate, not
// currently inside a transaction.
type RawConn struct {
	db     *bolt.DB
	bucket []byte
}

func newRawConn(db *bolt.DB, bucket []byte) *RawConn { return &RawConn{db: db, bucket: bucket} }

func (c *RawConn) runTx(readonly bool, fn func(*bolt.Tx) error) error {
	if readonly {
		return c.db.View(fn)
	}
	return c.db.Update(fn)
}

func (c *RawConn) bucketName() []byte { return c.bucket }

// Reopen discards and reopens the underlying bbolt handle, used by the
// worker pool when a connection-level substrate error occurs.
func (c *RawConn) Reopen(path string) error {
	_ = c.db.Close()
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("%w: reopening bbolt file %q: %v", errs.ErrSubstrateFailure, path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(c.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %v", errs.ErrSubstrateFailure, err)
	}
	c.db = db
	return nil
}

// TxnConn marks a connection as already inside a transaction, so operations
// invoked on it participate in that transaction instead of starting a new
// one.
type TxnConn struct {
	tx     *bolt.Tx
	bucket []byte
}

func (c *TxnConn) runTx(_ bool, fn func(*bolt.Tx) error) error {
	return fn(c.tx)
}

func (c *TxnConn) bucketName() []byte { return c.bucket }

// Tx exposes the underlying bbolt transaction for callers (nstore, pool)
// that need direct cursor access beyond the Get/Set/Query surface.
func (c *TxnConn) Tx() *bolt.Tx { return c.tx }

// Transactional lifts fn so it can be called with either a RawConn (opens a
// transaction, commits on success, rolls back on error/panic) or a TxnConn
// (participates in the caller's transaction directly) — the generic
// equivalent of a `transactional` decorator.
func Transactional[T any](conn Conn, readonly bool, fn func(*TxnConn) (T, error)) (T, error) {
	var zero, result T
	switch c := conn.(type) {
	case *RawConn:
		var ferr error
		txErr := c.runTx(readonly, func(tx *bolt.Tx) error {
			tc := &TxnConn{tx: tx, bucket: c.bucket}
			result, ferr = fn(tc)
			return ferr
		})
		if txErr != nil {
			if ferr != nil {
				return zero, ferr
			}
			return zero, fmt.Errorf("%w: %v", errs.ErrSubstrateFailure, txErr)
		}
		return result, nil
	case *TxnConn:
		return fn(c)
	default:
		return zero, fmt.Errorf("%w: unsupported connection type %T", errs.ErrInvalidInput, conn)
	}
}
