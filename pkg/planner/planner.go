// Package planner computes the minimal set of permutation indices an
// n-ary relation must maintain so that every query pattern — any mix of
// bound and free positions — can be answered with a single ordered
// prefix scan.
//
// The algorithm covers the boolean lattice of {0,...,n-1} subsets with
// the minimum number of maximal chains. By Dilworth's theorem that number
// equals the size of the largest antichain, the central binomial
// coefficient C(n, n/2).
package planner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cuemby/lattice/pkg/errs"
)

var cache sync.Map // map[int][][]int, one entry per arity already computed

// Indices returns the C(n, n/2) permutations of {0,...,n-1} covering every
// query pattern for an n-ary relation, in lexicographic order. Every arity is
// computed once and cached: a relation's indices depend only on its arity,
// so repeated New calls at the same arity never redo the coverage check. It
// panics if the generated set fails that check, since that would indicate a
// defect in this package rather than bad input.
func Indices(n int) ([][]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: arity must be >= 1, got %d", errs.ErrInvalidInput, n)
	}

	if cached, ok := cache.Load(n); ok {
		return cached.([][]int), nil
	}

	tab := make([]int, n)
	for i := range tab {
		tab[i] = i
	}
	combos := combinations(tab, n/2)

	out := make([][]int, 0, len(combos))
	for _, combo := range combos {
		out = append(out, decompose(tab, combo))
	}

	sort.Slice(out, func(i, j int) bool { return lexLess(out[i], out[j]) })

	if !verifyCoverage(out, n) {
		panic(fmt.Sprintf("%v: generated indices for n=%d do not cover all query patterns", errs.ErrIllegalState, n))
	}

	cached, _ := cache.LoadOrStore(n, out)
	return cached.([][]int), nil
}

type labeled struct {
	val    int
	marked bool
}

// decompose peels (false,true) adjacent pairs off L, recording each swap,
// until no such pair remains; the surviving run plus the recorded swaps
// (reversed) forms one maximal chain of the lattice.
func decompose(tab []int, combo map[int]bool) []int {
	L := make([]labeled, len(tab))
	for i, v := range tab {
		L[i] = labeled{val: v, marked: combo[v]}
	}

	var a, b []int
	for {
		idx := -1
		for i := 0; i < len(L)-1; i++ {
			if !L[i].marked && L[i+1].marked {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		i, j := L[idx].val, L[idx+1].val
		rest := make([]labeled, 0, len(L)-2)
		rest = append(rest, L[:idx]...)
		rest = append(rest, L[idx+2:]...)
		L = rest
		a = append(a, j)
		b = append(b, i)
	}

	out := make([]int, 0, len(tab))
	for k := len(a) - 1; k >= 0; k-- {
		out = append(out, a[k])
	}
	for _, l := range L {
		out = append(out, l.val)
	}
	for k := len(b) - 1; k >= 0; k-- {
		out = append(out, b[k])
	}
	return out
}

func combinations(tab []int, r int) []map[int]bool {
	n := len(tab)
	if r < 0 || r > n {
		return nil
	}
	var out []map[int]bool
	chosen := make([]int, r)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == r {
			m := make(map[int]bool, r)
			for _, v := range chosen {
				m[v] = true
			}
			out = append(out, m)
			return
		}
		for i := start; i < n; i++ {
			chosen[depth] = tab[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return out
}

func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// verifyCoverage checks that for every non-empty subset of positions, some
// ordering of that subset is a prefix of some index.
func verifyCoverage(indices [][]int, n int) bool {
	tab := make([]int, n)
	for i := range tab {
		tab[i] = i
	}
	for r := 1; r <= n; r++ {
		ok := true
		forEachCombination(tab, r, func(combo []int) bool {
			if !coveredByAnyPermutation(combo, indices) {
				ok = false
				return false
			}
			return true
		})
		if !ok {
			return false
		}
	}
	return true
}

func coveredByAnyPermutation(combo []int, indices [][]int) bool {
	covered := false
	forEachPermutation(combo, func(perm []int) bool {
		for _, index := range indices {
			if isPrefix(perm, index) {
				covered = true
				return false
			}
		}
		return true
	})
	return covered
}

func isPrefix(perm, index []int) bool {
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

func forEachCombination(tab []int, r int, yield func([]int) bool) {
	n := len(tab)
	chosen := make([]int, r)
	var rec func(start, depth int) bool
	rec = func(start, depth int) bool {
		if depth == r {
			return yield(append([]int(nil), chosen...))
		}
		for i := start; i < n; i++ {
			chosen[depth] = tab[i]
			if !rec(i+1, depth+1) {
				return false
			}
		}
		return true
	}
	rec(0, 0)
}

func forEachPermutation(items []int, yield func([]int) bool) {
	n := len(items)
	used := make([]bool, n)
	cur := make([]int, 0, n)
	var rec func() bool
	rec = func() bool {
		if len(cur) == n {
			return yield(append([]int(nil), cur...))
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, items[i])
			if !rec() {
				used[i] = false
				cur = cur[:len(cur)-1]
				return false
			}
			used[i] = false
			cur = cur[:len(cur)-1]
		}
		return true
	}
	rec()
}
