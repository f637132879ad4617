// Package solver selects a subset of budget items whose total cost stays
// within a budget while maximizing total value.
//
// # The Selection Problem
//
// Each [Item] carries a cost and an optional value (the value defaults to
// the cost, which turns the problem into plain subset sum). Given a budget,
// the solver picks the subset with the highest total value whose total cost
// does not exceed the budget. This is the 0/1 knapsack problem and is
// NP-hard; the package offers several strategies with different tradeoffs:
//
//   - [BruteForce]: enumerates all 2^N subsets, exact, practical to ~25 items
//   - [DP]: pseudo-polynomial table over the scaled budget, exact
//   - [Backtracking]: branch-and-bound with a fractional upper bound, exact
//     unless its node or time budget runs out
//   - [Greedy]: value/cost ratio ordering, O(N log N), approximate
//   - [Hybrid]: greedy seed refined by an exact search over the best items
//
// The [Dispatcher] runs a strategy by name or, for [Auto], picks one from
// the problem size and the memory the DP table would need, falling back to
// cheaper strategies when an exact one hits its ceiling.
//
// # Integer Costs
//
// Costs are scaled to integer units (10^precision per currency unit, two
// decimal places by default) before any strategy runs. Every strategy
// checks feasibility in those units, so they can never disagree on whether
// a subset fits. Costs that need more decimal places than the precision
// allows are rejected rather than rounded.
//
// # Usage
//
//	p, err := solver.NewProblem(items, 300, solver.DefaultPrecision)
//	if err != nil {
//	    return err // invalid cost, budget or precision
//	}
//	d := solver.NewDispatcher(solver.DefaultRegistry(solver.DefaultLimits()), solver.DefaultLimits(), nil)
//	sel, err := d.Solve(ctx, p, solver.Auto)
//	fmt.Println(sel.SelectedIndices, sel.TotalCost, sel.Status)
//
// Problems are immutable once built and may be shared by concurrent solves.
package solver
