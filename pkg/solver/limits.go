package solver

import "time"

// Default resource ceilings.
const (
	DefaultBruteForceMaxItems = 20
	DefaultDPMaxCells         = 1 << 28
	DefaultDPMaxWidth         = 1 << 23
	DefaultMaxNodes           = 50_000_000
	DefaultHybridCandidates   = 16
	DefaultAutoTimeout        = 2 * time.Second

	// MaxBruteForceItems is the hard ceiling of the subset enumerator, set
	// by the width of its bitmask.
	MaxBruteForceItems = 62

	// checkInterval is how many search steps pass between cancellation checks.
	checkInterval = 4096
)

// Limits bounds the work strategies and the dispatcher may do.
// Zero fields are replaced by defaults in SetDefaults.
type Limits struct {
	// BruteForceMaxItems is the largest N the dispatcher hands to brute force.
	BruteForceMaxItems int
	// DPMaxCells bounds N*(W+1) of the DP decision table.
	DPMaxCells int64
	// DPMaxWidth bounds W+1, the length of the DP value row.
	DPMaxWidth int64
	// MaxNodes caps subsets or search nodes visited by exact searches.
	MaxNodes int64
	// HybridCandidates is how many top-ratio items the hybrid searches exactly.
	HybridCandidates int
	// AutoTimeout bounds the exact phase of an auto solve.
	AutoTimeout time.Duration
}

// DefaultLimits returns Limits populated with the package defaults.
func DefaultLimits() Limits {
	var l Limits
	l.SetDefaults()
	return l
}

// SetDefaults fills zero fields with defaults.
func (l *Limits) SetDefaults() {
	if l.BruteForceMaxItems <= 0 {
		l.BruteForceMaxItems = DefaultBruteForceMaxItems
	}
	if l.BruteForceMaxItems > MaxBruteForceItems {
		l.BruteForceMaxItems = MaxBruteForceItems
	}
	if l.DPMaxCells <= 0 {
		l.DPMaxCells = DefaultDPMaxCells
	}
	if l.DPMaxWidth <= 0 {
		l.DPMaxWidth = DefaultDPMaxWidth
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	if l.HybridCandidates <= 0 {
		l.HybridCandidates = DefaultHybridCandidates
	}
	if l.AutoTimeout <= 0 {
		l.AutoTimeout = DefaultAutoTimeout
	}
}
