package pool

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lattice/pkg/kv"
)

func openTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lattice.db")
	p, err := Open(path, "", size, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestOpenStartsConfiguredWorkers(t *testing.T) {
	p := openTestPool(t, 3)
	assert.Equal(t, 3, p.Workers())
}

func TestOpenUsesDefaultSizeWhenUnset(t *testing.T) {
	p := openTestPool(t, 0)
	assert.Equal(t, DefaultPoolSize(), p.Workers())
}

func TestApplySetAndGetRoundtrip(t *testing.T) {
	p := openTestPool(t, 2)
	ctx := context.Background()

	_, err := p.Apply(ctx, "set", false, func(conn *kv.RawConn) (any, error) {
		return nil, kv.Set(conn, []byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	val, err := p.Apply(ctx, "get", true, func(conn *kv.RawConn) (any, error) {
		v, _, err := kv.Get(conn, []byte("k"))
		return v, err
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestApplyPropagatesError(t *testing.T) {
	p := openTestPool(t, 1)
	_, err := p.Apply(context.Background(), "fail", true, func(conn *kv.RawConn) (any, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestApplyRecoversPanic(t *testing.T) {
	p := openTestPool(t, 1)
	_, err := p.Apply(context.Background(), "panic", true, func(conn *kv.RawConn) (any, error) {
		panic("boom")
	})
	assert.Error(t, err)

	// Pool must still accept work after a worker panic.
	_, err = p.Apply(context.Background(), "get", true, func(conn *kv.RawConn) (any, error) {
		_, _, err := kv.Get(conn, []byte("anything"))
		return nil, err
	})
	assert.NoError(t, err)
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	p := openTestPool(t, 4)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Apply(ctx, "set", false, func(conn *kv.RawConn) (any, error) {
				val, _, err := kv.Get(conn, []byte("counter"))
				if err != nil {
					return nil, err
				}
				next := append(append([]byte{}, val...), 'x')
				return nil, kv.Set(conn, []byte("counter"), next)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	val, err := p.Apply(ctx, "get", true, func(conn *kv.RawConn) (any, error) {
		v, _, err := kv.Get(conn, []byte("counter"))
		return v, err
	})
	require.NoError(t, err)
	assert.Len(t, val, n, "read-modify-write under the write mutex must not lose updates")
}

func TestQueueDepthIsZeroWhenIdle(t *testing.T) {
	p := openTestPool(t, 1)
	assert.Equal(t, 0, p.QueueDepth())
}

func TestCloseStopsAcceptingWork(t *testing.T) {
	p := openTestPool(t, 1)
	require.NoError(t, p.Close())

	_, err := p.Apply(context.Background(), "get", true, func(conn *kv.RawConn) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
}
