// Package query executes a multi-pattern join over one or more nstore
// relations: each pattern narrows the set of variable bindings produced by
// the one before it, a nested-loop join in which every clause may name a
// different relation.
package query

import (
	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/metrics"
	"github.com/cuemby/lattice/pkg/nstore"
)

// Clause binds one query pattern to the relation it's matched against.
type Clause struct {
	Relation *nstore.NStore
	Pattern  nstore.Pattern
}

// Binding maps variable names to the scalar values a join solution assigns
// them.
type Binding map[string]codec.Scalar

// Run executes clauses as a left-to-right nested-loop join: for each
// surviving binding from the previous clause, the next clause's free
// variables are substituted with any values already bound, the relation is
// scanned, and every matching tuple extends the binding with its own free
// variables.
func Run(conn kv.Conn, clauses ...Clause) ([]Binding, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, patternCountLabel(len(clauses)))

	bindings := []Binding{{}}

	for _, clause := range clauses {
		var next []Binding
		for _, b := range bindings {
			bound := nstore.BindPattern(clause.Pattern, b)
			tuples, err := clause.Relation.Scan(conn, bound)
			if err != nil {
				return nil, err
			}
			for _, tup := range tuples {
				next = append(next, Binding(nstore.BindTuple(clause.Pattern, tup, b)))
			}
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}

	metrics.QueryBindingsTotal.Add(float64(len(bindings)))
	return bindings, nil
}

func patternCountLabel(n int) string {
	switch {
	case n <= 0:
		return "0"
	case n == 1:
		return "1"
	case n <= 3:
		return "2-3"
	default:
		return "4+"
	}
}
