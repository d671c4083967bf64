// Package kv implements the ordered key-value layer over
// go.etcd.io/bbolt: a typed wrapper exposing get/set/delete/range-scan/count/
// byte-sum and a transaction scope, persisting a single logical table of
// (key BLOB primary key, value BLOB) as one bbolt bucket.
package kv

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/lattice/pkg/errs"
	"github.com/cuemby/lattice/pkg/log"
)

const (
	// MaxKeySize is the largest key this layer accepts.
	MaxKeySize = 1024
	// MaxValueSize is the largest value this layer accepts.
	MaxValueSize = 1 << 20
)

// DefaultBucket is the bucket name used when none is configured.
const DefaultBucket = "kv"

// Store owns the bbolt database handle and the bucket all rows live in.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open opens (creating if necessary) a bbolt file at path and ensures the
// configured bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening bbolt file %q: %v", errs.ErrSubstrateFailure, path, err)
	}
	bucketName := []byte(bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating bucket %q: %v", errs.ErrSubstrateFailure, bucket, err)
	}
	log.WithComponent("kv").Debug().Str("path", path).Str("bucket", bucket).Msg("opened store")
	return &Store{db: db, bucket: bucketName}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: closing bbolt file: %v", errs.ErrSubstrateFailure, err)
	}
	return nil
}

// NewConn returns a fresh, not-yet-transactional connection over this
// store's database handle (one per worker).
func (s *Store) NewConn() *RawConn { return newRawConn(s.db, s.bucket) }

// DB exposes the underlying bbolt handle.
func (s *Store) DB() *bolt.DB { return s.db }

// Bucket returns the bucket name rows are stored under.
func (s *Store) Bucket() []byte { return s.bucket }
