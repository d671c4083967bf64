package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/nstore"
)

func openTestConn(t *testing.T) kv.Conn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lattice.db")
	s, err := kv.Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.NewConn()
}

func mustAdd(t *testing.T, conn kv.Conn, ns *nstore.NStore, items ...codec.Scalar) {
	t.Helper()
	require.NoError(t, ns.Add(conn, codec.Tuple(items)))
}

// Friends-of-friends: a two-clause join over a single relation where the
// second clause's first position is bound to the first clause's second
// variable.
func TestTwoClauseJoinSingleRelation(t *testing.T) {
	conn := openTestConn(t)
	friends, err := nstore.New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, err)

	mustAdd(t, conn, friends, codec.String("alice"), codec.String("bob"))
	mustAdd(t, conn, friends, codec.String("bob"), codec.String("carol"))
	mustAdd(t, conn, friends, codec.String("bob"), codec.String("dave"))

	results, err := Run(conn,
		Clause{Relation: friends, Pattern: nstore.Pattern{nstore.Bound(codec.String("alice")), nstore.Unbound("mid")}},
		Clause{Relation: friends, Pattern: nstore.Pattern{nstore.Unbound("mid"), nstore.Unbound("fof")}},
	)
	require.NoError(t, err)
	require.Len(t, results, 2)

	got := map[string]bool{}
	for _, b := range results {
		mid, _ := b["mid"].AsString()
		assert.Equal(t, "bob", mid)
		fof, _ := b["fof"].AsString()
		got[fof] = true
	}
	assert.True(t, got["carol"])
	assert.True(t, got["dave"])
}

// Two relations joined on a shared variable: people and their departments,
// and departments and their floor number.
func TestTwoRelationJoin(t *testing.T) {
	conn := openTestConn(t)
	worksIn, err := nstore.New("works_in", codec.Tuple{codec.String("works_in")}, 2)
	require.NoError(t, err)
	onFloor, err := nstore.New("on_floor", codec.Tuple{codec.String("on_floor")}, 2)
	require.NoError(t, err)

	mustAdd(t, conn, worksIn, codec.String("alice"), codec.String("eng"))
	mustAdd(t, conn, worksIn, codec.String("bob"), codec.String("sales"))
	mustAdd(t, conn, onFloor, codec.String("eng"), codec.Int(3))
	mustAdd(t, conn, onFloor, codec.String("sales"), codec.Int(1))

	results, err := Run(conn,
		Clause{Relation: worksIn, Pattern: nstore.Pattern{nstore.Bound(codec.String("alice")), nstore.Unbound("dept")}},
		Clause{Relation: onFloor, Pattern: nstore.Pattern{nstore.Unbound("dept"), nstore.Unbound("floor")}},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	floor, _ := results[0]["floor"].AsInt()
	assert.Equal(t, int64(3), floor)
}

func TestJoinWithNoMatchesReturnsEmpty(t *testing.T) {
	conn := openTestConn(t)
	friends, err := nstore.New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, err)
	mustAdd(t, conn, friends, codec.String("alice"), codec.String("bob"))

	results, err := Run(conn,
		Clause{Relation: friends, Pattern: nstore.Pattern{nstore.Bound(codec.String("zzz")), nstore.Unbound("x")}},
	)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSingleClauseQuery(t *testing.T) {
	conn := openTestConn(t)
	friends, err := nstore.New("friends", codec.Tuple{codec.String("friends")}, 2)
	require.NoError(t, err)
	mustAdd(t, conn, friends, codec.String("alice"), codec.String("bob"))
	mustAdd(t, conn, friends, codec.String("alice"), codec.String("carol"))

	results, err := Run(conn,
		Clause{Relation: friends, Pattern: nstore.Pattern{nstore.Bound(codec.String("alice")), nstore.Unbound("x")}},
	)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
