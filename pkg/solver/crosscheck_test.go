package solver

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomProblem(t testing.TB, r *rand.Rand, maxItems int, weighted, fractionalValues bool) *Problem {
	t.Helper()
	n := r.IntN(maxItems + 1)
	items := make([]Item, n)
	for i := range items {
		items[i].Cost = float64(r.IntN(6000)) / 100
		if weighted {
			v := float64(r.IntN(100))
			if fractionalValues {
				v += float64(r.IntN(1000)) / 1000
			}
			items[i].Value = Float(v)
		}
	}
	return mustProblem(t, items, float64(r.IntN(20000))/100)
}

func TestExactStrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 400; trial++ {
		weighted := trial%2 == 1
		fractional := trial%4 == 3
		p := randomProblem(t, r, 14, weighted, fractional)

		reference := mustRun(t, p, BruteForce{})
		assertFeasible(t, p, reference)
		require.NotEqual(t, StatusApproximate, reference.Status)

		for _, s := range exactSolvers()[1:] {
			sel := mustRun(t, p, s)
			assertFeasible(t, p, sel)
			require.Equal(t, reference.Status, sel.Status, "trial %d %s", trial, s.Algorithm())
			if fractional {
				require.InDelta(t, reference.TotalValue, sel.TotalValue, 1e-9, "trial %d %s", trial, s.Algorithm())
			} else {
				require.Equal(t, reference.TotalValue, sel.TotalValue, "trial %d %s", trial, s.Algorithm())
			}
		}

		g := mustRun(t, p, Greedy{})
		assertFeasible(t, p, g)
		assert.LessOrEqual(t, g.TotalValue, reference.TotalValue+1e-9, "trial %d greedy", trial)
		if reference.Status == StatusFailed {
			assert.Equal(t, StatusFailed, g.Status)
		} else {
			assert.Equal(t, StatusApproximate, g.Status)
		}
	}
}

func TestLargeInstancesAgree(t *testing.T) {
	if testing.Short() {
		t.Skip("large cross-check")
	}
	r := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 20; trial++ {
		items := make([]Item, 40)
		var total float64
		for i := range items {
			items[i] = Item{Cost: float64(1 + r.IntN(500)), Value: Float(float64(1 + r.IntN(300)))}
			total += items[i].Cost
		}
		p, err := NewProblem(items, total/3, 0)
		require.NoError(t, err)

		dp := mustRun(t, p, DP{})
		bt := mustRun(t, p, Backtracking{})
		require.Equal(t, StatusExact, dp.Status)
		require.Equal(t, StatusExact, bt.Status, "trial %d", trial)
		require.Equal(t, dp.TotalValue, bt.TotalValue, "trial %d", trial)

		hy := mustRun(t, p, Hybrid{Candidates: 8})
		assert.LessOrEqual(t, hy.TotalValue, dp.TotalValue)
		assert.GreaterOrEqual(t, hy.TotalValue, mustRun(t, p, Greedy{}).TotalValue)
	}
}
