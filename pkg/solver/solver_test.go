package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

func TestProjectPortfolio(t *testing.T) {
	// 120+150 and 80+150+40 both reach 270; nothing reaches 300.
	p := costsProblem(t, 300, 120, 80, 150, 40)
	for _, s := range exactSolvers() {
		t.Run(string(s.Algorithm()), func(t *testing.T) {
			sel := mustRun(t, p, s)
			assertFeasible(t, p, sel)
			assert.Equal(t, StatusExact, sel.Status)
			assert.Equal(t, 270.0, sel.TotalCost)
			assert.Equal(t, 270.0, sel.TotalValue)
			assert.Equal(t, s.Algorithm(), sel.AlgorithmName)
		})
	}

	// Brute force keeps the first optimum in mask order: {0,2} is mask 5,
	// {1,2,3} is mask 14.
	assert.Equal(t, []int{0, 2}, mustRun(t, p, BruteForce{}).SelectedIndices)
}

func TestEmptyInputFails(t *testing.T) {
	p := costsProblem(t, 100)
	for _, s := range allSolvers() {
		t.Run(string(s.Algorithm()), func(t *testing.T) {
			sel := mustRun(t, p, s)
			assert.Equal(t, StatusFailed, sel.Status)
			assert.Equal(t, []int{}, sel.SelectedIndices)
			assert.Zero(t, sel.TotalCost)
		})
	}
}

func TestNothingFitsFails(t *testing.T) {
	for _, budget := range []float64{0, 5} {
		p := costsProblem(t, budget, 10, 20)
		for _, s := range allSolvers() {
			sel := mustRun(t, p, s)
			assert.Equal(t, StatusFailed, sel.Status, "%s budget %g", s.Algorithm(), budget)
			assert.Empty(t, sel.SelectedIndices)
		}
	}
}

func TestSingleItemEqualToBudget(t *testing.T) {
	p := costsProblem(t, 99.95, 99.95)
	for _, s := range allSolvers() {
		sel := mustRun(t, p, s)
		assert.Equal(t, []int{0}, sel.SelectedIndices, s.Algorithm())
		assert.Equal(t, 99.95, sel.TotalCost, s.Algorithm())
		if s.Algorithm() != GreedyAlgorithm {
			assert.Equal(t, StatusExact, sel.Status, s.Algorithm())
		}
	}
}

func TestZeroCostItemsAreFree(t *testing.T) {
	items := []Item{
		{Cost: 0, Value: Float(5)},
		{Cost: 10, Value: Float(7)},
		{Cost: 0, Value: Float(1)},
	}
	p := mustProblem(t, items, 0)
	for _, s := range allSolvers() {
		sel := mustRun(t, p, s)
		assert.Equal(t, []int{0, 2}, sel.SelectedIndices, s.Algorithm())
		assert.Equal(t, 6.0, sel.TotalValue, s.Algorithm())
		assert.Zero(t, sel.TotalCost, s.Algorithm())
	}
}

func TestWeightedPrefersValue(t *testing.T) {
	items := []Item{
		{ID: "big", Cost: 100, Value: Float(10)},
		{ID: "a", Cost: 50, Value: Float(40)},
		{ID: "b", Cost: 50, Value: Float(40)},
	}
	p := mustProblem(t, items, 100)
	for _, s := range allSolvers() {
		sel := mustRun(t, p, s)
		assert.Equal(t, []int{1, 2}, sel.SelectedIndices, s.Algorithm())
		assert.Equal(t, 80.0, sel.TotalValue, s.Algorithm())
	}
}

func TestGreedyIsApproximate(t *testing.T) {
	// Ratio order takes 6 first and then nothing else fits; 5+5 is optimal.
	items := []Item{
		{Cost: 6, Value: Float(7)},
		{Cost: 5, Value: Float(5)},
		{Cost: 5, Value: Float(5)},
	}
	p := mustProblem(t, items, 10)

	g := mustRun(t, p, Greedy{})
	assert.Equal(t, StatusApproximate, g.Status)
	assert.Equal(t, []int{0}, g.SelectedIndices)

	opt := mustRun(t, p, DP{})
	assert.Equal(t, 10.0, opt.TotalValue)
	assert.Greater(t, opt.TotalValue, g.TotalValue)
}

func TestGreedyUnweightedTakesCheapestFirst(t *testing.T) {
	p := costsProblem(t, 100, 60, 30, 50, 10)
	sel := mustRun(t, p, Greedy{})
	assert.Equal(t, []int{1, 2, 3}, sel.SelectedIndices)
	assert.Equal(t, 90.0, sel.TotalCost)
}

func TestIdempotent(t *testing.T) {
	p := costsProblem(t, 173.5, 12.25, 40, 33.5, 71, 9.75, 58, 21, 64.5)
	for _, s := range allSolvers() {
		first := mustRun(t, p, s)
		for i := 0; i < 3; i++ {
			again := mustRun(t, p, s)
			assert.Equal(t, first.SelectedIndices, again.SelectedIndices, s.Algorithm())
			assert.Equal(t, first.TotalCost, again.TotalCost, s.Algorithm())
			assert.Equal(t, first.Status, again.Status, s.Algorithm())
		}
	}
}

func TestBruteForceTooManyItems(t *testing.T) {
	costs := make([]float64, MaxBruteForceItems+1)
	for i := range costs {
		costs[i] = 1
	}
	p := costsProblem(t, 10, costs...)
	_, err := Run(context.Background(), p, BruteForce{})
	assert.True(t, errs.Is(err, errs.ErrCodeResourceExceeded))
}

func TestBruteForceTruncation(t *testing.T) {
	p := hardSubsetSum(t, 30)
	sel := mustRun(t, p, BruteForce{MaxNodes: 1})
	assertFeasible(t, p, sel)
	assert.True(t, sel.Truncated)
	assert.Equal(t, StatusApproximate, sel.Status)
	assert.Equal(t, int64(checkInterval), sel.NodesExplored)
}

func TestBacktrackingTruncation(t *testing.T) {
	p := hardSubsetSum(t, 40)
	sel := mustRun(t, p, Backtracking{MaxNodes: 10_000})
	assertFeasible(t, p, sel)
	assert.True(t, sel.Truncated)
	assert.Equal(t, StatusApproximate, sel.Status)
	assert.NotEmpty(t, sel.SelectedIndices, "greedy seed survives truncation")
	assert.Equal(t, int64(3*checkInterval), sel.NodesExplored)
}

func TestBacktrackingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := hardSubsetSum(t, 40)
	sel, err := Run(ctx, p, Backtracking{})
	require.NoError(t, err)
	assert.True(t, sel.Truncated)
	assert.Equal(t, StatusApproximate, sel.Status)
}

func TestDPResourceExceeded(t *testing.T) {
	p := costsProblem(t, 1000, 997, 991, 983)
	_, err := Run(context.Background(), p, DP{MaxCells: 100})
	assert.True(t, errs.Is(err, errs.ErrCodeResourceExceeded))

	_, err = Run(context.Background(), p, DP{MaxWidth: 100})
	assert.True(t, errs.Is(err, errs.ErrCodeResourceExceeded))
}

func TestDPTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, costsProblem(t, 10, 1, 2, 3), DP{})
	assert.True(t, errs.Is(err, errs.ErrCodeTimeout))
}

func TestDPReductions(t *testing.T) {
	// GCD 250 units and clipping to the cost sum shrink the row to 7 columns.
	p := costsProblem(t, 1e6, 2.5, 5, 7.5)
	shape := dpPlan(p)
	assert.Equal(t, int64(250), shape.divisor)
	assert.Equal(t, int64(7), shape.width)

	sel := mustRun(t, p, DP{MaxCells: 21})
	assert.Equal(t, []int{0, 1, 2}, sel.SelectedIndices)
	assert.Equal(t, 15.0, sel.TotalCost)
}

func TestHybridPartialCandidates(t *testing.T) {
	p := costsProblem(t, 300, 120, 80, 150, 40, 500, 600)
	sel := mustRun(t, p, Hybrid{Candidates: 2})
	assertFeasible(t, p, sel)
	assert.Equal(t, StatusApproximate, sel.Status)

	full := mustRun(t, p, Hybrid{Candidates: 6})
	assert.Equal(t, StatusExact, full.Status)
	assert.Equal(t, 270.0, full.TotalCost)
}

func TestMemoryAndTimeReported(t *testing.T) {
	p := costsProblem(t, 300, 120, 80, 150, 40)
	for _, s := range allSolvers() {
		sel := mustRun(t, p, s)
		assert.GreaterOrEqual(t, sel.ExecutionTimeMS, 0.0, s.Algorithm())
		assert.Greater(t, sel.MemoryUsedMB, 0.0, s.Algorithm())
	}
}

type brokenSolver struct{ out Outcome }

func (brokenSolver) Algorithm() Algorithm { return "broken" }

func (b brokenSolver) Solve(context.Context, *Problem) (Outcome, error) { return b.out, nil }

func TestAssemblerRejectsCorruptOutcome(t *testing.T) {
	p := costsProblem(t, 100, 60, 50)
	tests := []struct {
		name string
		out  Outcome
	}{
		{"out of range", Outcome{Indices: []int{2}}},
		{"negative", Outcome{Indices: []int{-1}}},
		{"duplicate", Outcome{Indices: []int{0, 0}}},
		{"over budget", Outcome{Indices: []int{0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), p, brokenSolver{tt.out})
			assert.True(t, errs.Is(err, errs.ErrCodeInternal))
		})
	}
}
