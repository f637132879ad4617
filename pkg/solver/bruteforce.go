package solver

import (
	"context"
	"math/bits"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// BruteForce enumerates every subset in increasing bitmask order.
//
// Moving from mask-1 to mask flips a run of trailing bits, so the running
// cost is updated in amortized constant time. Ties keep the first subset
// found. The enumeration stops after MaxNodes masks or when ctx is done,
// returning the best subset seen so far as truncated.
type BruteForce struct {
	MaxNodes int64
}

// Algorithm implements Solver.
func (BruteForce) Algorithm() Algorithm { return BruteForceAlgorithm }

// Solve implements Solver.
func (b BruteForce) Solve(ctx context.Context, p *Problem) (Outcome, error) {
	n := p.Len()
	if n > MaxBruteForceItems {
		return Outcome{}, errs.New(errs.ErrCodeResourceExceeded,
			"brute force supports at most %d items, got %d", MaxBruteForceItems, n)
	}
	work := int64(n)*8 + 64
	if n == 0 {
		return Outcome{Exact: true, WorkBytes: work}, nil
	}

	var (
		end       = uint64(1) << uint(n)
		capacity  = p.capacity
		costs     = p.units
		values    = p.values
		integral  = p.integral
		units     int64
		value     float64
		bestMask  uint64
		bestValue float64
		visited   int64
		truncated bool
	)

	for mask := uint64(1); mask < end; mask++ {
		prev := mask - 1
		for cleared := prev &^ mask; cleared != 0; cleared &= cleared - 1 {
			i := bits.TrailingZeros64(cleared)
			units -= costs[i]
			value -= values[i]
		}
		i := bits.TrailingZeros64(mask &^ prev)
		units += costs[i]
		value += values[i]
		visited++

		if units <= capacity {
			v := value
			if !integral {
				v = maskValue(values, mask)
			}
			if v > bestValue {
				bestValue = v
				bestMask = mask
			}
		}

		if visited&(checkInterval-1) == 0 {
			if ctx.Err() != nil || (b.MaxNodes > 0 && visited >= b.MaxNodes) {
				truncated = true
				break
			}
		}
	}

	return Outcome{
		Indices:   maskIndices(bestMask),
		Exact:     !truncated,
		Truncated: truncated,
		Nodes:     visited,
		WorkBytes: work,
	}, nil
}

// maskValue sums values in ascending bit order so equal masks always give
// the same float.
func maskValue(values []float64, mask uint64) float64 {
	var v float64
	for m := mask; m != 0; m &= m - 1 {
		v += values[bits.TrailingZeros64(m)]
	}
	return v
}

func maskIndices(mask uint64) []int {
	out := make([]int, 0, bits.OnesCount64(mask))
	for m := mask; m != 0; m &= m - 1 {
		out = append(out, bits.TrailingZeros64(m))
	}
	return out
}
