package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustProblem(t testing.TB, items []Item, budget float64) *Problem {
	t.Helper()
	p, err := NewProblem(items, budget, DefaultPrecision)
	require.NoError(t, err)
	return p
}

func costsProblem(t testing.TB, budget float64, costs ...float64) *Problem {
	t.Helper()
	return mustProblem(t, ItemsFromCosts(costs), budget)
}

func mustRun(t testing.TB, p *Problem, s Solver) *Selection {
	t.Helper()
	sel, err := Run(context.Background(), p, s)
	require.NoError(t, err)
	return sel
}

// exactSolvers returns every strategy that must agree on the optimum.
func exactSolvers() []Solver {
	return []Solver{
		BruteForce{},
		DP{},
		Backtracking{},
		Hybrid{Candidates: MaxBruteForceItems},
	}
}

// allSolvers returns every built-in strategy with default limits.
func allSolvers() []Solver {
	return append(exactSolvers(), Greedy{})
}

// hardSubsetSum has only even costs and an odd capacity, so no bound ever
// proves the incumbent optimal and exact searches must enumerate.
func hardSubsetSum(t testing.TB, n int) *Problem {
	t.Helper()
	costs := make([]float64, n)
	var total float64
	for i := range costs {
		costs[i] = float64(1000 + 2*i)
		total += costs[i]
	}
	p, err := NewProblem(ItemsFromCosts(costs), total/2+1, 0)
	require.NoError(t, err)
	return p
}

func assertFeasible(t testing.TB, p *Problem, sel *Selection) {
	t.Helper()
	seen := make(map[int]bool)
	var units int64
	for k, i := range sel.SelectedIndices {
		require.True(t, i >= 0 && i < p.Len(), "index %d out of range", i)
		require.False(t, seen[i], "index %d repeated", i)
		if k > 0 {
			require.Less(t, sel.SelectedIndices[k-1], i, "indices not ascending")
		}
		seen[i] = true
		units += p.Units(i)
	}
	require.LessOrEqual(t, units, p.Capacity())
	require.Equal(t, p.CostOf(units), sel.TotalCost)
	if sel.Status != StatusFailed {
		require.LessOrEqual(t, sel.TotalCost, p.Budget())
	}
}
