package solver

import (
	"sort"
	"sync"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// Registry maps algorithm names to strategies. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	solvers map[Algorithm]Solver
}

// NewRegistry returns a registry holding the given solvers.
func NewRegistry(solvers ...Solver) *Registry {
	r := &Registry{solvers: make(map[Algorithm]Solver, len(solvers))}
	for _, s := range solvers {
		r.Register(s)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in strategy configured
// from limits.
func DefaultRegistry(limits Limits) *Registry {
	limits.SetDefaults()
	return NewRegistry(
		BruteForce{MaxNodes: limits.MaxNodes},
		DP{MaxCells: limits.DPMaxCells, MaxWidth: limits.DPMaxWidth},
		Backtracking{MaxNodes: limits.MaxNodes},
		Greedy{},
		Hybrid{Candidates: limits.HybridCandidates, MaxNodes: limits.MaxNodes},
	)
}

// Register adds or replaces the solver for s.Algorithm().
func (r *Registry) Register(s Solver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solvers[s.Algorithm()] = s
}

// Lookup returns the solver registered under name.
func (r *Registry) Lookup(name Algorithm) (Solver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.solvers[name]
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidAlgorithm, "algorithm %q is not registered", name)
	}
	return s, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name Algorithm) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.solvers[name]
	return ok
}

// Algorithms returns the registered names in a stable order: the built-in
// strategies first, from exact to heuristic, then any others sorted by name.
func (r *Registry) Algorithms() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Algorithm, 0, len(r.solvers))
	for a := range r.solvers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := builtinRank(out[i]), builtinRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

func builtinRank(a Algorithm) int {
	switch a {
	case BruteForceAlgorithm:
		return 0
	case DPAlgorithm:
		return 1
	case BacktrackingAlgorithm:
		return 2
	case HybridAlgorithm:
		return 3
	case GreedyAlgorithm:
		return 4
	default:
		return 5
	}
}
