package solver

import (
	"context"
	"math"
	"sort"
)

// Greedy takes items in descending value/cost order, keeping each one that
// still fits. It never backtracks and always reports approximate.
//
// Ties are broken by lower cost, then by original index. Zero-cost items
// rank first. For unweighted problems every ratio is 1, so this is the
// classic cheapest-first fill.
type Greedy struct{}

// Algorithm implements Solver.
func (Greedy) Algorithm() Algorithm { return GreedyAlgorithm }

// Solve implements Solver.
func (Greedy) Solve(_ context.Context, p *Problem) (Outcome, error) {
	order := ratioOrder(p, nil)
	picked, _ := greedyFill(p, order, p.capacity)
	return Outcome{
		Indices:   picked,
		Nodes:     int64(len(order)),
		WorkBytes: int64(len(order)) * 16,
	}, nil
}

// ratio is value per cost unit. Zero-cost items are infinitely efficient.
func ratio(p *Problem, i int) float64 {
	if p.units[i] == 0 {
		return math.Inf(1)
	}
	return p.values[i] / float64(p.units[i])
}

// ratioOrder returns indices sorted by descending ratio, then ascending
// cost, then ascending index. A nil subset orders all items.
func ratioOrder(p *Problem, subset []int) []int {
	var order []int
	if subset == nil {
		order = make([]int, p.Len())
		for i := range order {
			order[i] = i
		}
	} else {
		order = append([]int(nil), subset...)
	}
	ratios := make([]float64, p.Len())
	for _, i := range order {
		ratios[i] = ratio(p, i)
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if ratios[i] != ratios[j] {
			return ratios[i] > ratios[j]
		}
		if p.units[i] != p.units[j] {
			return p.units[i] < p.units[j]
		}
		return i < j
	})
	return order
}

// greedyFill walks order and keeps every item that fits in capacity.
func greedyFill(p *Problem, order []int, capacity int64) (picked []int, used int64) {
	for _, i := range order {
		if used+p.units[i] <= capacity {
			picked = append(picked, i)
			used += p.units[i]
		}
	}
	return picked, used
}
