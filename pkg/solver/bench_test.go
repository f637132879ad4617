package solver

import (
	"context"
	"math/rand/v2"
	"testing"
)

func benchProblem(b *testing.B, n int) *Problem {
	r := rand.New(rand.NewPCG(42, uint64(n)))
	items := make([]Item, n)
	var total float64
	for i := range items {
		items[i] = Item{Cost: float64(1 + r.IntN(1000)), Value: Float(float64(1 + r.IntN(1000)))}
		total += items[i].Cost
	}
	p, err := NewProblem(items, total/2, 0)
	if err != nil {
		b.Fatal(err)
	}
	return p
}

func benchmarkSolver(b *testing.B, s Solver, n int) {
	p := benchProblem(b, n)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Solve(ctx, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBruteForce20(b *testing.B)    { benchmarkSolver(b, BruteForce{}, 20) }
func BenchmarkDP100(b *testing.B)           { benchmarkSolver(b, DP{}, 100) }
func BenchmarkBacktracking100(b *testing.B) { benchmarkSolver(b, Backtracking{}, 100) }
func BenchmarkGreedy10000(b *testing.B)     { benchmarkSolver(b, Greedy{}, 10000) }
func BenchmarkHybrid1000(b *testing.B)      { benchmarkSolver(b, Hybrid{}, 1000) }
