package solver

import (
	"context"
	"sort"
	"time"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

const bytesPerMB = 1 << 20

// Run invokes s on p and assembles its outcome into a Selection.
//
// Execution time is wall clock around the call. Memory is the working set
// the strategy reports for its own tables and stacks, not process RSS. An
// outcome that is out of range, repeats an index or exceeds the budget is
// reported as INTERNAL_ERROR instead of being returned.
func Run(ctx context.Context, p *Problem, s Solver) (*Selection, error) {
	start := time.Now()
	out, err := s.Solve(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	return assemble(p, s.Algorithm(), out, elapsed)
}

func assemble(p *Problem, algo Algorithm, out Outcome, elapsed time.Duration) (*Selection, error) {
	indices := append([]int{}, out.Indices...)
	sort.Ints(indices)

	var units int64
	for k, i := range indices {
		if i < 0 || i >= p.Len() {
			return nil, errs.New(errs.ErrCodeInternal, "%s: selected index %d out of range", algo, i)
		}
		if k > 0 && indices[k-1] == i {
			return nil, errs.New(errs.ErrCodeInternal, "%s: index %d selected twice", algo, i)
		}
		units += p.units[i]
	}
	if units > p.capacity {
		return nil, errs.New(errs.ErrCodeInternal,
			"%s: selection costs %d units, capacity is %d", algo, units, p.capacity)
	}

	status := StatusApproximate
	switch {
	case !p.Feasible():
		if len(indices) > 0 {
			return nil, errs.New(errs.ErrCodeInternal, "%s: selected items although none fit", algo)
		}
		status = StatusFailed
	case out.Exact && !out.Truncated:
		status = StatusExact
	}

	sel := &Selection{
		SelectedIndices: indices,
		TotalCost:       p.CostOf(units),
		Status:          status,
		AlgorithmName:   algo,
		ExecutionTimeMS: float64(elapsed.Nanoseconds()) / 1e6,
		MemoryUsedMB:    float64(out.WorkBytes) / bytesPerMB,
		Truncated:       out.Truncated,
		NodesExplored:   out.Nodes,
	}
	if p.unweighted {
		sel.TotalValue = sel.TotalCost
	} else {
		sel.TotalValue = p.valueOf(indices)
	}
	return sel, nil
}
