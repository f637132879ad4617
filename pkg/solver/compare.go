package solver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// Comparison is the outcome of running several strategies on one problem.
type Comparison struct {
	Results []ComparisonResult `json:"results"`
	// ReferenceValue is the best total value among exact results.
	ReferenceValue float64 `json:"reference_value"`
	// ReferenceExact is false when no strategy produced an exact result, in
	// which case every accuracy is zero.
	ReferenceExact bool `json:"reference_exact"`
}

// ComparisonResult is one strategy's entry in a Comparison. Exactly one of
// Selection and Error is set.
type ComparisonResult struct {
	Algorithm Algorithm  `json:"algorithm"`
	Selection *Selection `json:"selection,omitempty"`
	Accuracy  float64    `json:"accuracy"`
	Code      string     `json:"code,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Compare runs each algorithm on p concurrently and scores every result
// against the best exact one. An empty list compares every registered
// strategy. A strategy that fails (for example brute force on too many
// items) is reported in its entry and does not fail the comparison.
func (d *Dispatcher) Compare(ctx context.Context, p *Problem, algorithms []Algorithm) (*Comparison, error) {
	if len(algorithms) == 0 {
		algorithms = d.registry.Algorithms()
	}
	for _, a := range algorithms {
		if a != Auto && !d.registry.Has(a) {
			return nil, errs.New(errs.ErrCodeInvalidAlgorithm, "algorithm %q is not registered", a)
		}
	}

	results := make([]ComparisonResult, len(algorithms))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, a := range algorithms {
		g.Go(func() error {
			results[i].Algorithm = a
			sel, err := d.Solve(ctx, p, a)
			if err != nil {
				results[i].Code = string(errs.GetCode(err))
				results[i].Error = errs.UserMessage(err)
				return nil
			}
			results[i].Selection = sel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &Comparison{Results: results}
	for _, r := range results {
		if r.Selection != nil && r.Selection.Status == StatusExact {
			if !cmp.ReferenceExact || r.Selection.TotalValue > cmp.ReferenceValue {
				cmp.ReferenceValue = r.Selection.TotalValue
			}
			cmp.ReferenceExact = true
		}
	}
	if cmp.ReferenceExact && cmp.ReferenceValue > 0 {
		for i := range cmp.Results {
			if sel := cmp.Results[i].Selection; sel != nil {
				cmp.Results[i].Accuracy = sel.TotalValue / cmp.ReferenceValue
			}
		}
	}
	return cmp, nil
}
