package solver

import "context"

// Status classifies how trustworthy a Selection is.
type Status string

const (
	// StatusExact means the selection is provably optimal.
	StatusExact Status = "exact"
	// StatusApproximate means the selection is feasible but may not be optimal.
	StatusApproximate Status = "approximate"
	// StatusFailed means no item fits the budget (or there were no items).
	StatusFailed Status = "failed"
)

// Selection is the uniform result of every strategy.
type Selection struct {
	SelectedIndices []int     `json:"selected_indices"`
	TotalCost       float64   `json:"total_cost"`
	TotalValue      float64   `json:"total_value"`
	Status          Status    `json:"status"`
	AlgorithmName   Algorithm `json:"algorithm_name"`
	Requested       Algorithm `json:"requested,omitempty"`
	ExecutionTimeMS float64   `json:"execution_time_ms"`
	MemoryUsedMB    float64   `json:"memory_used_mb"`
	Truncated       bool      `json:"truncated"`
	NodesExplored   int64     `json:"nodes_explored"`
	Fallbacks       []string  `json:"fallbacks,omitempty"`
}

// Better reports whether s has a strictly higher total value than other.
// A nil selection loses to any non-nil one.
func (s *Selection) Better(other *Selection) bool {
	if other == nil {
		return s != nil
	}
	if s == nil {
		return false
	}
	return s.TotalValue > other.TotalValue
}

// Outcome is what a strategy hands back to the assembler: which items it
// picked plus bookkeeping. Indices may be in any order.
type Outcome struct {
	Indices   []int
	Exact     bool
	Truncated bool
	Nodes     int64
	WorkBytes int64
}

// Solver is a single selection strategy.
//
// Implementations must not modify the Problem and must honor ctx: exact
// searches stop early and return their best selection with Truncated set,
// table-based strategies return a TIMEOUT error.
type Solver interface {
	Algorithm() Algorithm
	Solve(ctx context.Context, p *Problem) (Outcome, error)
}
