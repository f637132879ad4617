package solver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// Dispatcher runs strategies from a Registry, either by name or by choosing
// one automatically for Auto.
type Dispatcher struct {
	registry *Registry
	limits   Limits
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher over registry. Zero limits are replaced
// by defaults; a nil logger discards output.
func NewDispatcher(registry *Registry, limits Limits, logger *log.Logger) *Dispatcher {
	limits.SetDefaults()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{registry: registry, limits: limits, logger: logger}
}

// Registry returns the registry the dispatcher draws strategies from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Limits returns the effective limits.
func (d *Dispatcher) Limits() Limits { return d.limits }

// Solve runs algo on p. The empty algorithm means Auto.
// The returned Selection records algo as Requested and names the strategy
// that actually produced it in AlgorithmName.
func (d *Dispatcher) Solve(ctx context.Context, p *Problem, algo Algorithm) (*Selection, error) {
	if algo == "" {
		algo = Auto
	}

	var (
		sel *Selection
		err error
	)
	if algo == Auto {
		sel, err = d.solveAuto(ctx, p)
	} else {
		var s Solver
		if s, err = d.registry.Lookup(algo); err != nil {
			return nil, err
		}
		sel, err = Run(ctx, p, s)
	}
	if err != nil {
		return nil, err
	}
	sel.Requested = algo
	return sel, nil
}

// Plan returns the strategy Auto tries first for p: brute force for small
// inputs, DP when its table fits the ceilings, backtracking otherwise.
func (d *Dispatcher) Plan(p *Problem) Algorithm {
	switch {
	case p.Len() <= d.limits.BruteForceMaxItems && d.registry.Has(BruteForceAlgorithm):
		return BruteForceAlgorithm
	case d.dpFits(p) && d.registry.Has(DPAlgorithm):
		return DPAlgorithm
	case d.registry.Has(BacktrackingAlgorithm):
		return BacktrackingAlgorithm
	default:
		return GreedyAlgorithm
	}
}

func (d *Dispatcher) dpFits(p *Problem) bool {
	return DP{MaxCells: d.limits.DPMaxCells, MaxWidth: d.limits.DPMaxWidth}.Fits(p)
}

// autoRun accumulates the attempts of one auto solve.
type autoRun struct {
	fallbacks []string
	elapsed   float64
	memory    float64
	best      *Selection
}

func (a *autoRun) observe(sel *Selection) {
	a.elapsed += sel.ExecutionTimeMS
	if sel.MemoryUsedMB > a.memory {
		a.memory = sel.MemoryUsedMB
	}
	if a.best == nil || sel.Better(a.best) {
		a.best = sel
	}
}

func (a *autoRun) finish(sel *Selection) *Selection {
	sel.ExecutionTimeMS = a.elapsed
	sel.MemoryUsedMB = a.memory
	sel.Fallbacks = a.fallbacks
	return sel
}

func (d *Dispatcher) solveAuto(ctx context.Context, p *Problem) (*Selection, error) {
	exactCtx, cancel := context.WithTimeout(ctx, d.limits.AutoTimeout)
	defer cancel()

	plan := d.Plan(p)
	d.logger.Debug("auto dispatch", "items", p.Len(), "capacity", p.Capacity(), "plan", plan)

	run := &autoRun{}
	steps := []Algorithm{BruteForceAlgorithm, DPAlgorithm, BacktrackingAlgorithm}
	for _, step := range steps {
		if !d.eligible(p, step, plan) {
			continue
		}
		s, err := d.registry.Lookup(step)
		if err != nil {
			continue
		}
		sel, err := Run(exactCtx, p, s)
		if err != nil {
			if !errs.IsResourceLimit(err) {
				return nil, err
			}
			run.fallbacks = append(run.fallbacks, fmt.Sprintf("%s: %s", step, errs.UserMessage(err)))
			d.logger.Debug("auto fallback", "algorithm", step, "reason", errs.UserMessage(err))
			continue
		}
		run.observe(sel)
		if !sel.Truncated {
			return run.finish(sel), nil
		}
		run.fallbacks = append(run.fallbacks, fmt.Sprintf("%s: truncated after %d nodes", step, sel.NodesExplored))
		d.logger.Debug("auto fallback", "algorithm", step, "reason", "truncated", "nodes", sel.NodesExplored)
	}

	greedy, err := d.registry.Lookup(GreedyAlgorithm)
	if err != nil {
		if run.best != nil {
			return run.finish(run.best), nil
		}
		return nil, errs.New(errs.ErrCodeResourceExceeded, "no strategy could solve the problem: %v", run.fallbacks)
	}
	sel, err := Run(ctx, p, greedy)
	if err != nil {
		return nil, err
	}
	run.observe(sel)
	return run.finish(run.best), nil
}

// eligible reports whether step belongs in the auto chain for p. Brute force
// runs only when it is the plan; DP runs when planned or reached by falling
// through brute force; backtracking is always the last exact resort.
func (d *Dispatcher) eligible(p *Problem, step, plan Algorithm) bool {
	switch step {
	case BruteForceAlgorithm:
		return plan == BruteForceAlgorithm
	case DPAlgorithm:
		return plan == DPAlgorithm || (plan == BruteForceAlgorithm && d.dpFits(p))
	default:
		return true
	}
}

// Default returns a dispatcher with every built-in strategy and default limits.
func Default() *Dispatcher {
	limits := DefaultLimits()
	return NewDispatcher(DefaultRegistry(limits), limits, nil)
}

// SolveTimeout wraps ctx with timeout when it is positive.
func SolveTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
