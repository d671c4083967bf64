package nstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/kv"
)

func openTestStore(t *testing.T) kv.Conn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lattice.db")
	s, err := kv.Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.NewConn()
}

func friendsTuple(a, b string) codec.Tuple {
	return codec.Tuple{codec.String(a), codec.String(b)}
}

func TestAddExistsDelete(t *testing.T) {
	conn := openTestStore(t)
	ns, err := New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, err)

	tup := friendsTuple("alice", "bob")

	ok, err := ns.Exists(conn, tup)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ns.Add(conn, tup))

	ok, err = ns.Exists(conn, tup)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, ns.Delete(conn, tup))

	ok, err = ns.Exists(conn, tup)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddIsIdempotent(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)
	tup := friendsTuple("alice", "bob")

	require.NoError(t, ns.Add(conn, tup))
	require.NoError(t, ns.Add(conn, tup))

	n, err := ns.Count(conn, Pattern{Bound(codec.String("alice")), Unbound("x")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddRejectsWrongArity(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)
	err := ns.Add(conn, codec.Tuple{codec.String("alice")})
	assert.Error(t, err)
}

func TestScanAllFreePattern(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)

	pairs := []codec.Tuple{
		friendsTuple("alice", "bob"),
		friendsTuple("alice", "carol"),
		friendsTuple("bob", "carol"),
	}
	for _, p := range pairs {
		require.NoError(t, ns.Add(conn, p))
	}

	results, err := ns.Scan(conn, Pattern{Unbound("a"), Unbound("b")})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestScanOneBoundPosition(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)

	require.NoError(t, ns.Add(conn, friendsTuple("alice", "bob")))
	require.NoError(t, ns.Add(conn, friendsTuple("alice", "carol")))
	require.NoError(t, ns.Add(conn, friendsTuple("bob", "carol")))

	results, err := ns.Scan(conn, Pattern{Bound(codec.String("alice")), Unbound("b")})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		name, _ := r[0].AsString()
		assert.Equal(t, "alice", name)
	}
}

func TestScanSecondPositionBound(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)

	require.NoError(t, ns.Add(conn, friendsTuple("alice", "carol")))
	require.NoError(t, ns.Add(conn, friendsTuple("bob", "carol")))
	require.NoError(t, ns.Add(conn, friendsTuple("dave", "erin")))

	results, err := ns.Scan(conn, Pattern{Unbound("a"), Bound(codec.String("carol"))})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		name, _ := r[1].AsString()
		assert.Equal(t, "carol", name)
	}
}

func TestScanFullyBoundPattern(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, ns.Add(conn, friendsTuple("alice", "bob")))

	results, err := ns.Scan(conn, Pattern{Bound(codec.String("alice")), Bound(codec.String("bob"))})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = ns.Scan(conn, Pattern{Bound(codec.String("alice")), Bound(codec.String("zzz"))})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCountAndBytes(t *testing.T) {
	conn := openTestStore(t)
	ns, _ := New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, ns.Add(conn, friendsTuple("alice", "bob")))
	require.NoError(t, ns.Add(conn, friendsTuple("alice", "carol")))

	n, err := ns.Count(conn, Pattern{Bound(codec.String("alice")), Unbound("x")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := ns.Bytes(conn, Pattern{Bound(codec.String("alice")), Unbound("x")})
	require.NoError(t, err)
	assert.Greater(t, b, 0)
}

func TestArity3SupportsAllBoundCombinations(t *testing.T) {
	conn := openTestStore(t)
	ns, err := New("triples", codec.Tuple{codec.String("triples")}, 3)
	require.NoError(t, err)

	tup := codec.Tuple{codec.Int(1), codec.Int(2), codec.Int(3)}
	require.NoError(t, ns.Add(conn, tup))

	patterns := []Pattern{
		{Unbound("a"), Unbound("b"), Unbound("c")},
		{Bound(codec.Int(1)), Unbound("b"), Unbound("c")},
		{Unbound("a"), Bound(codec.Int(2)), Unbound("c")},
		{Unbound("a"), Unbound("b"), Bound(codec.Int(3))},
		{Bound(codec.Int(1)), Bound(codec.Int(2)), Unbound("c")},
		{Bound(codec.Int(1)), Unbound("b"), Bound(codec.Int(3))},
		{Unbound("a"), Bound(codec.Int(2)), Bound(codec.Int(3))},
		{Bound(codec.Int(1)), Bound(codec.Int(2)), Bound(codec.Int(3))},
	}
	for _, p := range patterns {
		results, err := ns.Scan(conn, p)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	ns, err := reg.Register("friends", 2)
	require.NoError(t, err)
	assert.Equal(t, "friends", ns.Name)

	got, err := reg.Lookup("friends")
	require.NoError(t, err)
	assert.Same(t, ns, got)
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("friends", 2)
	require.NoError(t, err)

	_, err = reg.Register("friends", 3)
	assert.Error(t, err)
}

func TestRegistryLookupMissingName(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup("missing")
	assert.Error(t, err)
}
