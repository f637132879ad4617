package solver

import "context"

// Hybrid refines a greedy selection with an exact search over the
// Candidates best-ratio items, then fills the leftover budget greedily from
// the remaining items. The better of the plain greedy and the refined
// selection is returned.
//
// The result is exact only when the candidate set covers every item and the
// search was not truncated.
type Hybrid struct {
	Candidates int
	MaxNodes   int64
}

// Algorithm implements Solver.
func (Hybrid) Algorithm() Algorithm { return HybridAlgorithm }

// Solve implements Solver.
func (h Hybrid) Solve(ctx context.Context, p *Problem) (Outcome, error) {
	n := p.Len()
	k := h.Candidates
	if k <= 0 {
		k = DefaultHybridCandidates
	}
	if k > n {
		k = n
	}

	order := ratioOrder(p, nil)
	greedy, _ := greedyFill(p, order, p.capacity)

	candidates := order[:k]
	e := newBranchAndBound(ctx, p, candidates, p.capacity, h.MaxNodes)
	seed, _ := greedyFill(p, candidates, p.capacity)
	e.seed(seed)
	e.search(0, 0, 0)

	var used int64
	for _, i := range e.best {
		used += p.units[i]
	}
	rest, _ := greedyFill(p, order[k:], p.capacity-used)
	refined := append(append([]int(nil), e.best...), rest...)

	picked := greedy
	if sumValues(p, refined) > sumValues(p, greedy) {
		picked = refined
	}
	return Outcome{
		Indices:   picked,
		Exact:     k == n && !e.stopped,
		Truncated: e.stopped,
		Nodes:     e.nodes + int64(n),
		WorkBytes: e.workBytes() + int64(n)*16,
	}, nil
}

func sumValues(p *Problem, indices []int) float64 {
	var v float64
	for _, i := range indices {
		v += p.values[i]
	}
	return v
}
