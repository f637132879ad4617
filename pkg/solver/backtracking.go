package solver

import (
	"context"
	"math"
)

// Backtracking is a depth-first branch-and-bound search.
//
// Items are visited in descending value/cost order and the include branch is
// tried first. The incumbent starts as the greedy selection, and a subtree is
// cut when its fractional-relaxation bound cannot beat the incumbent. When
// MaxNodes is reached or ctx is done the search stops and returns the
// incumbent as truncated.
type Backtracking struct {
	MaxNodes int64
}

// Algorithm implements Solver.
func (Backtracking) Algorithm() Algorithm { return BacktrackingAlgorithm }

// Solve implements Solver.
func (b Backtracking) Solve(ctx context.Context, p *Problem) (Outcome, error) {
	order := ratioOrder(p, nil)
	seed, _ := greedyFill(p, order, p.capacity)

	e := newBranchAndBound(ctx, p, order, p.capacity, b.MaxNodes)
	e.seed(seed)
	e.search(0, 0, 0)

	return Outcome{
		Indices:   e.best,
		Exact:     !e.stopped,
		Truncated: e.stopped,
		Nodes:     e.nodes,
		WorkBytes: e.workBytes(),
	}, nil
}

// branchAndBound holds the state of one search. It is used by both the
// backtracking and hybrid strategies and is never shared between goroutines.
type branchAndBound struct {
	ctx      context.Context
	order    []int
	costs    []int64
	values   []float64
	capacity int64
	integral bool
	maxNodes int64

	nodes     int64
	maxDepth  int
	stopped   bool
	path      []int
	best      []int
	bestValue float64
}

func newBranchAndBound(ctx context.Context, p *Problem, order []int, capacity int64, maxNodes int64) *branchAndBound {
	e := &branchAndBound{
		ctx:      ctx,
		order:    order,
		costs:    make([]int64, len(order)),
		values:   make([]float64, len(order)),
		capacity: capacity,
		integral: p.integral,
		maxNodes: maxNodes,
		path:     make([]int, 0, len(order)),
	}
	for k, i := range order {
		e.costs[k] = p.units[i]
		e.values[k] = p.values[i]
	}
	return e
}

// seed installs an initial incumbent. picked holds original indices that
// must all appear in the search order.
func (e *branchAndBound) seed(picked []int) {
	in := make(map[int]bool, len(picked))
	for _, i := range picked {
		in[i] = true
	}
	e.best = e.best[:0]
	e.bestValue = 0
	for k, i := range e.order {
		if in[i] {
			e.best = append(e.best, i)
			e.bestValue += e.values[k]
		}
	}
}

func (e *branchAndBound) search(k int, used int64, value float64) {
	if e.stopped {
		return
	}
	e.nodes++
	if e.nodes&(checkInterval-1) == 0 {
		if e.ctx.Err() != nil || (e.maxNodes > 0 && e.nodes >= e.maxNodes) {
			e.stopped = true
			return
		}
	}
	if k > e.maxDepth {
		e.maxDepth = k
	}

	if value > e.bestValue {
		e.bestValue = value
		e.best = e.best[:0]
		for _, pos := range e.path {
			e.best = append(e.best, e.order[pos])
		}
	}
	if k == len(e.order) || e.cannotImprove(value+e.bound(k, e.capacity-used)) {
		return
	}

	if used+e.costs[k] <= e.capacity {
		e.path = append(e.path, k)
		e.search(k+1, used+e.costs[k], value+e.values[k])
		e.path = e.path[:len(e.path)-1]
		if e.stopped {
			return
		}
	}
	e.search(k+1, used, value)
}

// bound is the fractional-relaxation value of items k.. with the given
// remaining capacity. Items are ratio-sorted, so this is an upper bound on
// any 0/1 completion.
func (e *branchAndBound) bound(k int, remaining int64) float64 {
	var b float64
	for ; k < len(e.order); k++ {
		if e.costs[k] <= remaining {
			remaining -= e.costs[k]
			b += e.values[k]
			continue
		}
		return b + e.values[k]*float64(remaining)/float64(e.costs[k])
	}
	return b
}

// cannotImprove reports whether a subtree with upper bound ub can be cut.
// With integral values the bound is floored; otherwise a relative epsilon
// keeps rounding noise from cutting a subtree that ties the incumbent.
func (e *branchAndBound) cannotImprove(ub float64) bool {
	eps := 1e-9 * math.Max(1, math.Abs(ub))
	if e.integral {
		return math.Floor(ub+eps) <= e.bestValue
	}
	return ub <= e.bestValue-eps
}

func (e *branchAndBound) workBytes() int64 {
	n := int64(len(e.order))
	// order, costs, values, path and best, plus one frame per level.
	return n*8*5 + int64(e.maxDepth+1)*96
}
