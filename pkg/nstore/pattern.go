package nstore

import (
	"fmt"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/errs"
)

// Variable names an unbound position in a query Pattern.
type Variable struct {
	Name string
}

// PatternElem is either a bound codec.Scalar or an unbound Variable.
type PatternElem struct {
	Scalar   codec.Scalar
	Variable *Variable
	bound    bool
}

// Bound builds a bound pattern element.
func Bound(s codec.Scalar) PatternElem { return PatternElem{Scalar: s, bound: true} }

// Unbound builds a free pattern element carrying variable name.
func Unbound(name string) PatternElem { return PatternElem{Variable: &Variable{Name: name}} }

// IsBound reports whether this element carries a concrete value.
func (e PatternElem) IsBound() bool { return e.bound }

// Pattern is a tuple-shaped query template: each position is either bound
// to a concrete Scalar or left as a named Variable.
type Pattern []PatternElem

func combinationOf(pattern Pattern) []int {
	var positions []int
	for i, e := range pattern {
		if e.IsBound() {
			positions = append(positions, i)
		}
	}
	return positions
}

// SelectIndex finds the permutation index (and its subspace number) whose
// prefix matches some ordering of pattern's bound positions, so the pattern
// can be answered with a single contiguous range scan.
func SelectIndex(pattern Pattern, indices [][]int) (index []int, subspace int, err error) {
	combo := combinationOf(pattern)
	for sub, idx := range indices {
		if ok, _ := permutationIsPrefix(combo, idx); ok {
			return idx, sub, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no permutation index covers bound positions %v", errs.ErrIllegalState, combo)
}

// permutationIsPrefix reports whether some ordering of combo is a prefix of
// index. It returns the first such ordering found.
func permutationIsPrefix(combo []int, index []int) (bool, []int) {
	if len(combo) > len(index) {
		return false, nil
	}
	var found []int
	var rec func(remaining []int, acc []int) bool
	rec = func(remaining []int, acc []int) bool {
		if len(remaining) == 0 {
			if isPrefixOf(acc, index) {
				found = append([]int(nil), acc...)
				return true
			}
			return false
		}
		for i, v := range remaining {
			rest := make([]int, 0, len(remaining)-1)
			rest = append(rest, remaining[:i]...)
			rest = append(rest, remaining[i+1:]...)
			if rec(rest, append(acc, v)) {
				return true
			}
		}
		return false
	}
	ok := rec(combo, nil)
	return ok, found
}

func isPrefixOf(perm, index []int) bool {
	if len(perm) > len(index) {
		return false
	}
	for i, v := range perm {
		if index[i] != v {
			return false
		}
	}
	return true
}

// boundPrefix extracts the concrete values from pattern in index order,
// stopping at the first unbound position — the range-scan prefix.
func boundPrefix(pattern Pattern, index []int) codec.Tuple {
	var out codec.Tuple
	for _, idx := range index {
		e := pattern[idx]
		if !e.IsBound() {
			break
		}
		out = append(out, e.Scalar)
	}
	return out
}

// BindPattern substitutes bound values from bindings into pattern's free
// positions, returning a new pattern with those positions now bound. Query
// executors call this before each clause scan to push down values bound by
// earlier clauses.
func BindPattern(pattern Pattern, bindings map[string]codec.Scalar) Pattern {
	out := make(Pattern, len(pattern))
	for i, e := range pattern {
		if !e.IsBound() {
			if v, ok := bindings[e.Variable.Name]; ok {
				out[i] = Bound(v)
				continue
			}
		}
		out[i] = e
	}
	return out
}

// BindTuple extends seed with pattern's variable bindings read off tup.
func BindTuple(pattern Pattern, tup codec.Tuple, seed map[string]codec.Scalar) map[string]codec.Scalar {
	out := make(map[string]codec.Scalar, len(seed)+len(pattern))
	for k, v := range seed {
		out[k] = v
	}
	for i, e := range pattern {
		if !e.IsBound() {
			out[e.Variable.Name] = tup[i]
		}
	}
	return out
}
