package solver

import (
	"sort"
	"strings"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// Algorithm names a selection strategy. The string values are the wire names
// accepted by the CLI and API.
type Algorithm string

const (
	BruteForceAlgorithm   Algorithm = "brute_force"
	DPAlgorithm           Algorithm = "dp"
	BacktrackingAlgorithm Algorithm = "backtracking"
	GreedyAlgorithm       Algorithm = "greedy"
	HybridAlgorithm       Algorithm = "hybrid"

	// Auto lets the Dispatcher choose a strategy from the problem shape.
	Auto Algorithm = "auto"
)

// ValidAlgorithms is the set of names accepted by ParseAlgorithm.
var ValidAlgorithms = map[Algorithm]bool{
	BruteForceAlgorithm:   true,
	DPAlgorithm:           true,
	BacktrackingAlgorithm: true,
	GreedyAlgorithm:       true,
	HybridAlgorithm:       true,
	Auto:                  true,
}

// ParseAlgorithm normalizes and validates an algorithm name.
// The empty string selects Auto.
func ParseAlgorithm(s string) (Algorithm, error) {
	name := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return Auto, nil
	}
	if !ValidAlgorithms[name] {
		return "", errs.New(errs.ErrCodeInvalidAlgorithm,
			"unknown algorithm %q (must be one of: %s)", s, strings.Join(AlgorithmNames(), ", "))
	}
	return name, nil
}

// AlgorithmNames returns the sorted wire names of all algorithms, including auto.
func AlgorithmNames() []string {
	names := make([]string, 0, len(ValidAlgorithms))
	for a := range ValidAlgorithms {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// String returns the wire name.
func (a Algorithm) String() string { return string(a) }
