// Package pkg provides the core libraries for budgetsolve.
//
// # Overview
//
// budgetsolve picks the subset of items with the highest total value whose
// total cost fits a budget. Several strategies solve the same problem with
// different trade-offs between exactness and cost, and every entry point
// (CLI and HTTP API) goes through one pipeline that adds caching and run
// history on top of them.
//
// # Architecture
//
// The typical data flow:
//
//	dataset file / CLI flags / JSON request
//	         ↓
//	    [dataset] or [api] (decode and validate)
//	         ↓
//	    [pipeline] (cache lookup, dedupe, run recording)
//	         ↓
//	    [solver] (dispatcher → strategy → assembled Selection)
//	         ↓
//	    [store] (run history) + [cache] (results)
//
// # Quick Start
//
// Solve a problem directly:
//
//	p, _ := solver.NewProblem(solver.ItemsFromCosts([]float64{120, 80, 150, 40}), 300, solver.DefaultPrecision)
//	sel, _ := solver.Default().Solve(ctx, p, solver.Auto)
//	fmt.Println(sel.SelectedIndices, sel.TotalCost, sel.Status)
//
// Solve with caching and history:
//
//	runner := pipeline.NewRunner(nil, cache.NewNullCache(), nil, store.NewMemoryStore(), logger)
//	res, _ := runner.Solve(ctx, pipeline.Options{Items: items, Budget: 300})
//
// # Main Packages
//
// [solver] - Problem validation and scaling, the strategies (brute force,
// dynamic programming, backtracking, greedy, hybrid), the auto dispatcher
// and strategy comparison.
//
// [pipeline] - Runs solves and comparisons with caching, request collapsing
// and run recording. Shared by CLI and API.
//
// [cache] - Result caches: file (CLI), Redis (API) and null.
//
// [store] - Run history: memory, badger (CLI) and MongoDB (API).
//
// [dataset] - Problem files in JSON, YAML, TOML and CSV.
//
// [api] - HTTP handlers for solve, compare and run lookup.
//
// [config] - TOML configuration with defaults for every field.
//
// [observability] - Hooks, Prometheus metrics and OpenTelemetry spans.
//
// [errors] - Error codes shared by every package.
//
// [buildinfo] - Version information stamped at build time.
//
// # Testing
//
//	go test ./...                  # All tests
//	go test ./pkg/solver/...       # Specific package
//	go test -bench . ./pkg/solver  # Strategy benchmarks
//
// [solver]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/solver
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/store
// [dataset]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/dataset
// [api]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/api
// [config]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/budgetsolve/pkg/buildinfo
package pkg
