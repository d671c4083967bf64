package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lattice.db")
	s, err := Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDefaultBucket(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, []byte(DefaultBucket), s.Bucket())
}

func TestSetGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	require.NoError(t, Set(conn, []byte("a"), []byte("1")))

	v, ok, err := Get(conn, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	v, ok, err := Get(conn, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetRejectsOversizedKey(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	big := make([]byte, MaxKeySize+1)
	err := Set(conn, big, []byte("v"))
	assert.Error(t, err)
}

func TestSetRejectsOversizedValue(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	big := make([]byte, MaxValueSize+1)
	err := Set(conn, []byte("k"), big)
	assert.Error(t, err)
}

func TestDeleteReturnsCount(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	require.NoError(t, Set(conn, []byte("k"), []byte("v")))

	n, err := Delete(conn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = Delete(conn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueryForwardRange(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, Set(conn, []byte(k), []byte(k)))
	}

	rows, err := Query(conn, []byte("b"), []byte("d"), 0, -1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("b"), rows[0].Key)
	assert.Equal(t, []byte("c"), rows[1].Key)
}

func TestQueryReverseRange(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, Set(conn, []byte(k), []byte(k)))
	}

	// start > end means descending scan over [end, start)
	rows, err := Query(conn, []byte("d"), []byte("b"), 0, -1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("c"), rows[0].Key)
	assert.Equal(t, []byte("b"), rows[1].Key)
}

func TestQueryOffsetLimit(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, Set(conn, []byte(k), []byte(k)))
	}

	rows, err := Query(conn, []byte("a"), []byte("z"), 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("b"), rows[0].Key)
	assert.Equal(t, []byte("c"), rows[1].Key)
}

func TestCountAndBytes(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	require.NoError(t, Set(conn, []byte("ab"), []byte("xyz")))
	require.NoError(t, Set(conn, []byte("ac"), []byte("xy")))

	n, err := Count(conn, []byte("a"), []byte("b"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := Bytes(conn, []byte("a"), []byte("b"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 2+2+3+2, total)
}

func TestDeleteRange(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, Set(conn, []byte(k), []byte(k)))
	}

	n, err := DeleteRange(conn, []byte("a"), []byte("z"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := Query(conn, []byte("a"), []byte("z"), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTxnRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	_, err := WithTxn(conn, func(tc *TxnConn) (struct{}, error) {
		if err := Set(tc, []byte("k"), []byte("v")); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, assert.AnError
	})
	assert.Error(t, err)

	_, ok, err := Get(conn, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok, "writes inside a failed transaction must not be visible")
}

func TestWithTxnNestsOperations(t *testing.T) {
	s := openTestStore(t)
	conn := s.NewConn()

	_, err := WithTxn(conn, func(tc *TxnConn) (struct{}, error) {
		require.NoError(t, Set(tc, []byte("k1"), []byte("v1")))
		require.NoError(t, Set(tc, []byte("k2"), []byte("v2")))
		return struct{}{}, nil
	})
	require.NoError(t, err)

	v1, ok, err := Get(conn, []byte("k1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v1)
}
