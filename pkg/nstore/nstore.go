// Package nstore implements n-ary relation storage over the ordered kv
// layer: every tuple added to a relation is written once per permutation
// index, so that any pattern of bound/free positions can be answered with a
// single ordered prefix scan.
package nstore

import (
	"fmt"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/errs"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/log"
	"github.com/cuemby/lattice/pkg/metrics"
	"github.com/cuemby/lattice/pkg/planner"
)

var present = []byte{0x01}

// NStore is a named n-ary relation: every member tuple has exactly Arity
// elements, stored under Prefix in the shared kv keyspace.
type NStore struct {
	Name    string
	Prefix  codec.Tuple
	Arity   int
	Indices [][]int
}

// New creates an NStore of the given arity, computing its permutation
// indices via pkg/planner.
func New(name string, prefix codec.Tuple, arity int) (*NStore, error) {
	indices, err := planner.Indices(arity)
	if err != nil {
		return nil, err
	}
	return &NStore{Name: name, Prefix: prefix, Arity: arity, Indices: indices}, nil
}

func permute(items codec.Tuple, index []int) codec.Tuple {
	out := make(codec.Tuple, len(items))
	for i, idx := range index {
		out[i] = items[idx]
	}
	return out
}

func unpermute(items codec.Tuple, index []int) codec.Tuple {
	out := make(codec.Tuple, len(items))
	for i, idx := range index {
		out[idx] = items[i]
	}
	return out
}

func (ns *NStore) checkArity(items codec.Tuple) error {
	if len(items) != ns.Arity {
		return fmt.Errorf("%w: relation %q expects %d elements, got %d", errs.ErrInvalidInput, ns.Name, ns.Arity, len(items))
	}
	return nil
}

func (ns *NStore) subspaceKey(subspace int, permuted codec.Tuple) ([]byte, error) {
	full := make(codec.Tuple, 0, len(ns.Prefix)+1+len(permuted))
	full = append(full, ns.Prefix...)
	full = append(full, codec.Int(int64(subspace)))
	full = append(full, permuted...)
	return codec.EncodeTuple(full)
}

// Add inserts items into the relation, writing one row per permutation
// index. Adding an already-present tuple is idempotent.
func (ns *NStore) Add(conn kv.Conn, items codec.Tuple) error {
	if err := ns.checkArity(items); err != nil {
		return err
	}
	for subspace, index := range ns.Indices {
		key, err := ns.subspaceKey(subspace, permute(items, index))
		if err != nil {
			return err
		}
		if err := kv.Set(conn, key, present); err != nil {
			return err
		}
	}
	metrics.NStoreOpsTotal.WithLabelValues(ns.Name, "add", "ok").Inc()
	log.WithNStoreName(ns.Name).Debug().Int("arity", ns.Arity).Msg("added tuple")
	return nil
}

// Delete removes items from the relation. Deleting an absent tuple is a
// no-op.
func (ns *NStore) Delete(conn kv.Conn, items codec.Tuple) error {
	if err := ns.checkArity(items); err != nil {
		return err
	}
	for subspace, index := range ns.Indices {
		key, err := ns.subspaceKey(subspace, permute(items, index))
		if err != nil {
			return err
		}
		if _, err := kv.Delete(conn, key); err != nil {
			return err
		}
	}
	metrics.NStoreOpsTotal.WithLabelValues(ns.Name, "delete", "ok").Inc()
	return nil
}

// Exists reports whether items is a member of the relation.
func (ns *NStore) Exists(conn kv.Conn, items codec.Tuple) (bool, error) {
	if err := ns.checkArity(items); err != nil {
		return false, err
	}
	key, err := ns.subspaceKey(0, permute(items, ns.Indices[0]))
	if err != nil {
		return false, err
	}
	_, ok, err := kv.Get(conn, key)
	return ok, err
}

// rangeForPattern selects the permutation index matching pattern's bound
// positions and returns the [start, end) key range for a single prefix
// scan, along with the chosen index for unpermuting results.
func (ns *NStore) rangeForPattern(pattern Pattern) (start, end []byte, index []int, subspace int, err error) {
	if len(pattern) != ns.Arity {
		return nil, nil, nil, 0, fmt.Errorf("%w: pattern length %d doesn't match relation %q arity %d", errs.ErrInvalidInput, len(pattern), ns.Name, ns.Arity)
	}
	index, subspace, err = SelectIndex(pattern, ns.Indices)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	prefixItems := boundPrefix(pattern, index)
	startKey, err := ns.subspaceKey(subspace, prefixItems)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return startKey, codec.UpperBound(startKey), index, subspace, nil
}

// Count returns the number of tuples matching pattern.
func (ns *NStore) Count(conn kv.Conn, pattern Pattern) (int, error) {
	start, end, _, _, err := ns.rangeForPattern(pattern)
	if err != nil {
		return 0, err
	}
	return kv.Count(conn, start, end, 0, -1)
}

// Bytes returns the sum of key+value byte lengths for rows matching
// pattern.
func (ns *NStore) Bytes(conn kv.Conn, pattern Pattern) (int, error) {
	start, end, _, _, err := ns.rangeForPattern(pattern)
	if err != nil {
		return 0, err
	}
	return kv.Bytes(conn, start, end, 0, -1)
}

// Scan returns the concrete tuples matching pattern, decoded and
// unpermuted back to the relation's natural element order.
func (ns *NStore) Scan(conn kv.Conn, pattern Pattern) ([]codec.Tuple, error) {
	start, end, index, _, err := ns.rangeForPattern(pattern)
	if err != nil {
		return nil, err
	}
	rows, err := kv.Query(conn, start, end, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]codec.Tuple, 0, len(rows))
	for _, row := range rows {
		full, err := codec.DecodeTuple(row.Key)
		if err != nil {
			return nil, err
		}
		permuted := full[len(ns.Prefix)+1:]
		out = append(out, unpermute(permuted, index))
	}
	return out, nil
}
