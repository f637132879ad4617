package solver

import (
	"context"
	"math"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// DP solves the problem exactly with a 0/1 knapsack table over scaled
// capacity.
//
// Before building the table the capacity is clipped to the sum of all costs
// and both costs and capacity are divided by the GCD of the non-zero costs.
// The table itself is a single value row plus one decision bit per cell,
// which is enough to rebuild the chosen subset. Problems whose reduced
// table exceeds MaxCells or MaxWidth fail with RESOURCE_EXCEEDED; ctx is
// checked once per item and reports TIMEOUT.
type DP struct {
	MaxCells int64
	MaxWidth int64
}

// Algorithm implements Solver.
func (DP) Algorithm() Algorithm { return DPAlgorithm }

// dpShape is the reduced table geometry for a problem.
type dpShape struct {
	divisor int64
	width   int64 // reduced capacity + 1
	cells   int64
}

func dpPlan(p *Problem) dpShape {
	capacity := p.capacity
	if capacity > p.totalUnits {
		capacity = p.totalUnits
	}
	var g int64
	for _, c := range p.units {
		if c > 0 {
			g = gcd(g, c)
		}
	}
	if g == 0 {
		g = 1
	}
	width := capacity/g + 1
	cells := int64(math.MaxInt64)
	if n := int64(p.Len()); n == 0 || width <= math.MaxInt64/n {
		cells = n * width
	}
	return dpShape{divisor: g, width: width, cells: cells}
}

// Fits reports whether the reduced table for p stays within the DP ceilings.
func (d DP) Fits(p *Problem) bool {
	s := dpPlan(p)
	return (d.MaxCells <= 0 || s.cells <= d.MaxCells) && (d.MaxWidth <= 0 || s.width <= d.MaxWidth)
}

// Solve implements Solver.
func (d DP) Solve(ctx context.Context, p *Problem) (Outcome, error) {
	n := p.Len()
	if n == 0 {
		return Outcome{Exact: true}, nil
	}
	shape := dpPlan(p)
	if d.MaxCells > 0 && shape.cells > d.MaxCells {
		return Outcome{}, errs.New(errs.ErrCodeResourceExceeded,
			"dp table needs %d cells, limit is %d", shape.cells, d.MaxCells)
	}
	if d.MaxWidth > 0 && shape.width > d.MaxWidth {
		return Outcome{}, errs.New(errs.ErrCodeResourceExceeded,
			"dp row needs %d columns, limit is %d", shape.width, d.MaxWidth)
	}

	var (
		w     = shape.width - 1
		words = (shape.width + 63) / 64
		costs = make([]int64, n)
		best  = make([]float64, shape.width)
		keep  = make([]uint64, int64(n)*words)
	)
	for i, c := range p.units {
		costs[i] = c / shape.divisor
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, errs.Wrap(errs.ErrCodeTimeout, err, "dp stopped after %d of %d items", i, n)
		}
		ci, vi := costs[i], p.values[i]
		if ci > w {
			continue
		}
		row := keep[int64(i)*words : int64(i+1)*words]
		for c := w; c >= ci; c-- {
			if cand := best[c-ci] + vi; cand > best[c] {
				best[c] = cand
				row[c>>6] |= 1 << uint(c&63)
			}
		}
	}

	picked := make([]int, 0, n)
	c := w
	for i := n - 1; i >= 0; i-- {
		row := keep[int64(i)*words : int64(i+1)*words]
		if row[c>>6]&(1<<uint(c&63)) != 0 {
			picked = append(picked, i)
			c -= costs[i]
			if c < 0 {
				return Outcome{}, errs.New(errs.ErrCodeInternal, "dp reconstruction overran capacity at item %d", i)
			}
		}
	}
	if got := sumValues(p, picked); !closeEnough(got, best[w], p.integral) {
		return Outcome{}, errs.New(errs.ErrCodeInternal,
			"dp reconstruction value %g does not match table value %g", got, best[w])
	}

	return Outcome{
		Indices:   picked,
		Exact:     true,
		Nodes:     shape.cells,
		WorkBytes: int64(len(keep))*8 + int64(len(best))*8 + int64(n)*8,
	}, nil
}

func closeEnough(a, b float64, integral bool) bool {
	if integral {
		return a == b
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
