// Package pipeline runs solves and comparisons for the CLI and the API.
//
// A [Runner] wraps the solver [solver.Dispatcher] with the concerns every
// entry point needs: option defaults, a result cache, deduplication of
// identical in-flight requests, run history and observability hooks.
// Keeping them here means `budgetsolve solve` and `POST /solve` behave the
// same way.
//
// # Usage
//
//	runner := pipeline.NewRunner(solver.Default(), c, nil, st, logger)
//	res, err := runner.Solve(ctx, pipeline.Options{
//	    Items:  solver.ItemsFromCosts([]float64{120, 80, 150, 40}),
//	    Budget: 300,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.RunID, res.Selection.SelectedIndices)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/budgetsolve/pkg/cache"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlgorithm is used when a request names none.
	DefaultAlgorithm = solver.Auto

	// DefaultTimeout bounds a whole request, including every auto fallback.
	DefaultTimeout = 30 * time.Second

	// MaxItems is the largest problem the pipeline accepts.
	MaxItems = 1_000_000
)

// =============================================================================
// Options - Request Configuration
// =============================================================================

// Options describes one solve request.
type Options struct {
	Items     []solver.Item    `json:"items"`
	Budget    float64          `json:"budget"`
	Algorithm solver.Algorithm `json:"algorithm,omitempty"`
	// Precision is the number of decimal places kept from costs. Nil means
	// solver.DefaultPrecision; zero is a valid setting.
	Precision *int          `json:"precision,omitempty"`
	Timeout   time.Duration `json:"-"`

	// Refresh skips the cache lookup. The fresh result is still cached
	// unless a deadline cut it short.
	Refresh bool `json:"-"`
	// NoRecord skips run history.
	NoRecord bool `json:"-"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the request and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	algo, err := solver.ParseAlgorithm(string(o.Algorithm))
	if err != nil {
		return err
	}
	o.Algorithm = algo
	if err := validateCommon(len(o.Items), &o.Precision, &o.Timeout); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// SolveKeyOpts returns the cache key options for o under limits.
func (o *Options) SolveKeyOpts(limits solver.Limits) cache.SolveKeyOpts {
	return cache.SolveKeyOpts{
		Algorithm: string(o.Algorithm),
		MaxNodes:  limits.MaxNodes,
		DPCells:   limits.DPMaxCells,
		DPWidth:   limits.DPMaxWidth,
	}
}

// CompareOptions describes one comparison request.
type CompareOptions struct {
	Items     []solver.Item `json:"items"`
	Budget    float64       `json:"budget"`
	Precision *int          `json:"precision,omitempty"`
	// Algorithms to compare. Empty means every registered strategy.
	Algorithms []solver.Algorithm `json:"algorithms,omitempty"`
	Timeout    time.Duration      `json:"-"`
	Refresh    bool               `json:"-"`
	NoRecord   bool               `json:"-"`
	Logger     *log.Logger        `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the request and applies defaults.
// This method is idempotent.
func (o *CompareOptions) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	algorithms := make([]solver.Algorithm, len(o.Algorithms))
	for i, a := range o.Algorithms {
		algo, err := solver.ParseAlgorithm(string(a))
		if err != nil {
			return err
		}
		algorithms[i] = algo
	}
	o.Algorithms = algorithms
	if err := validateCommon(len(o.Items), &o.Precision, &o.Timeout); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// CompareKeyOpts returns the cache key options for o under limits.
func (o *CompareOptions) CompareKeyOpts(algorithms []solver.Algorithm, limits solver.Limits) cache.CompareKeyOpts {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = string(a)
	}
	return cache.CompareKeyOpts{Algorithms: names, MaxNodes: limits.MaxNodes}
}

func validateCommon(n int, precision **int, timeout *time.Duration) error {
	if n > MaxItems {
		return errs.New(errs.ErrCodeInvalidInput, "%d items exceeds the limit of %d", n, MaxItems)
	}
	if *precision == nil {
		p := solver.DefaultPrecision
		*precision = &p
	}
	if p := **precision; p < 0 || p > solver.MaxPrecision {
		return errs.New(errs.ErrCodeInvalidPrecision, "precision %d is outside 0..%d", p, solver.MaxPrecision)
	}
	if *timeout < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "timeout must not be negative")
	}
	if *timeout == 0 {
		*timeout = DefaultTimeout
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of Runner.Solve.
type Result struct {
	// RunID identifies the recorded run. Empty when history is disabled.
	RunID     string
	Selection *solver.Selection
	// CacheHit is true when Selection came from the cache.
	CacheHit bool
}

// CompareResult is the outcome of Runner.Compare.
type CompareResult struct {
	// ComparisonID groups the recorded runs.
	ComparisonID string
	Comparison   *solver.Comparison
	// RunIDs is parallel to Comparison.Results. Entries for strategies that
	// failed are empty.
	RunIDs   []string
	CacheHit bool
}
