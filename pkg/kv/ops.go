package kv

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/lattice/pkg/errs"
	"github.com/cuemby/lattice/pkg/metrics"
)

func recordOp(op string, timer *metrics.Timer, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.KVOpsTotal.WithLabelValues(op, outcome).Inc()
	timer.ObserveDurationVec(metrics.KVOpDuration, op)
}

// Row is one (key, value) pair.
type Row struct {
	Key   []byte
	Value []byte
}

func bucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%w: bucket %q missing", errs.ErrSubstrateFailure, name)
	}
	return b, nil
}

// Set replaces or inserts (key, value), enforcing the key/value size limits.
func Set(conn Conn, key, value []byte) (err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("set", timer, err) }()

	if len(key) > MaxKeySize {
		return fmt.Errorf("%w: key length %d exceeds %d", errs.ErrInvalidInput, len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: value length %d exceeds %d", errs.ErrInvalidInput, len(value), MaxValueSize)
	}
	_, err = Transactional(conn, false, func(tc *TxnConn) (struct{}, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, b.Put(key, value)
	})
	return err
}

// Get returns the value for key, or (nil, false) if absent.
func Get(conn Conn, key []byte) (val []byte, ok bool, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("get", timer, err) }()

	type result struct {
		val []byte
		ok  bool
	}
	r, err := Transactional(conn, true, func(tc *TxnConn) (result, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return result{}, err
		}
		v := b.Get(key)
		if v == nil {
			return result{}, nil
		}
		cp := make([]byte, len(v))
		copy(cp, v)
		return result{val: cp, ok: true}, nil
	})
	return r.val, r.ok, err
}

// Delete removes key if present, returning the number removed (0 or 1).
func Delete(conn Conn, key []byte) (n int, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("delete", timer, err) }()

	return Transactional(conn, false, func(tc *TxnConn) (int, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return 0, err
		}
		if b.Get(key) == nil {
			return 0, nil
		}
		if err := b.Delete(key); err != nil {
			return 0, fmt.Errorf("%w: %v", errs.ErrSubstrateFailure, err)
		}
		return 1, nil
	})
}

// direction resolves the forward/reverse/empty range semantics of a scan.
type direction int

const (
	dirEmpty direction = iota
	dirForward
	dirReverse
)

func rangeDirection(start, end []byte) direction {
	switch bytes.Compare(start, end) {
	case 0:
		return dirEmpty
	case -1:
		return dirForward
	default:
		return dirReverse
	}
}

// scanRange walks the range implied by (start, end) in ascending or
// descending order, applying offset and limit, invoking yield for each
// surviving row.
// yield returning false stops the scan early.
func scanRange(b *bolt.Bucket, start, end []byte, offset, limit int, yield func(k, v []byte) bool) {
	dir := rangeDirection(start, end)
	if dir == dirEmpty {
		return
	}
	c := b.Cursor()
	skipped := 0
	taken := 0
	withinLimit := func() bool { return limit < 0 || taken < limit }

	emit := func(k, v []byte) bool {
		if skipped < offset {
			skipped++
			return true
		}
		if !withinLimit() {
			return false
		}
		taken++
		if !yield(k, v) {
			return false
		}
		return withinLimit()
	}

	if dir == dirForward {
		for k, v := c.Seek(start); k != nil && bytes.Compare(k, end) < 0; k, v = c.Next() {
			if !emit(k, v) {
				return
			}
		}
		return
	}

	// Reverse: keys in [end, start) descending.
	k, v := c.Seek(start)
	if k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	for k != nil && bytes.Compare(k, end) >= 0 {
		if !emit(k, v) {
			return
		}
		k, v = c.Prev()
	}
}

// Query returns rows in [start,end) ascending, or [end,start) descending when
// start > end, honoring offset/limit. limit < 0 means unbounded.
func Query(conn Conn, start, end []byte, offset, limit int) (rows []Row, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("query", timer, err) }()

	return Transactional(conn, true, func(tc *TxnConn) ([]Row, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return nil, err
		}
		var rows []Row
		scanRange(b, start, end, offset, limit, func(k, v []byte) bool {
			kc, vc := make([]byte, len(k)), make([]byte, len(v))
			copy(kc, k)
			copy(vc, v)
			rows = append(rows, Row{Key: kc, Value: vc})
			return true
		})
		return rows, nil
	})
}

// Count returns the cardinality of the range described in Query.
func Count(conn Conn, start, end []byte, offset, limit int) (n int, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("count", timer, err) }()

	return Transactional(conn, true, func(tc *TxnConn) (int, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return 0, err
		}
		n := 0
		scanRange(b, start, end, offset, limit, func(k, v []byte) bool {
			n++
			return true
		})
		return n, nil
	})
}

// Bytes returns the sum of len(key)+len(value) over the range described in
// Query.
func Bytes(conn Conn, start, end []byte, offset, limit int) (total int, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("bytes", timer, err) }()

	return Transactional(conn, true, func(tc *TxnConn) (int, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return 0, err
		}
		total := 0
		scanRange(b, start, end, offset, limit, func(k, v []byte) bool {
			total += len(k) + len(v)
			return true
		})
		return total, nil
	})
}

// DeleteRange removes the rows described in Query, returning the count
// removed.
func DeleteRange(conn Conn, start, end []byte, offset, limit int) (n int, err error) {
	timer := metrics.NewTimer()
	defer func() { recordOp("delete_range", timer, err) }()

	return Transactional(conn, false, func(tc *TxnConn) (int, error) {
		b, err := bucket(tc.tx, tc.bucket)
		if err != nil {
			return 0, err
		}
		var keys [][]byte
		scanRange(b, start, end, offset, limit, func(k, v []byte) bool {
			kc := make([]byte, len(k))
			copy(kc, k)
			keys = append(keys, kc)
			return true
		})
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return len(keys), fmt.Errorf("%w: %v", errs.ErrSubstrateFailure, err)
			}
		}
		return len(keys), nil
	})
}

// WithTxn runs fn in a single writable transaction over conn, committing on
// normal return and rolling back on error.
func WithTxn[T any](conn Conn, fn func(*TxnConn) (T, error)) (T, error) {
	return Transactional(conn, false, fn)
}
