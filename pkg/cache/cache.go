// Package cache stores solve and comparison results keyed by request content.
//
// Solvers are deterministic, so a Selection computed once for a given set of
// items, budget, precision and algorithm can be served again without
// re-running the search. The package defines a small Cache interface with
// three backends:
//
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer], so callers never format cache keys by hand:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.SolveKey(problemHash, cache.SolveKeyOpts{Algorithm: "dp"})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // decode data
//	}
package cache

import (
	"context"
	"time"
)

// TTLs for the different entry kinds.
const (
	// TTLSolve is how long a single solve result is kept.
	TTLSolve = 7 * 24 * time.Hour

	// TTLCompare is how long a comparison result is kept.
	TTLCompare = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// SolveKeyOpts are the request fields besides the problem that change a
// solve result.
type SolveKeyOpts struct {
	Algorithm string `json:"algorithm"`
	MaxNodes  int64  `json:"max_nodes,omitempty"`
	DPCells   int64  `json:"dp_cells,omitempty"`
	DPWidth   int64  `json:"dp_width,omitempty"`
}

// CompareKeyOpts are the request fields besides the problem that change a
// comparison result.
type CompareKeyOpts struct {
	Algorithms []string `json:"algorithms"`
	MaxNodes   int64    `json:"max_nodes,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SolveKey returns the key of a single solve.
	SolveKey(problemHash string, opts SolveKeyOpts) string

	// CompareKey returns the key of a comparison run.
	CompareKey(problemHash string, opts CompareKeyOpts) string
}

// DefaultKeyer namespaces keys by kind and hashes the options into them.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SolveKey implements Keyer.
func (DefaultKeyer) SolveKey(problemHash string, opts SolveKeyOpts) string {
	return hashKey("solve", problemHash, opts)
}

// CompareKey implements Keyer.
func (DefaultKeyer) CompareKey(problemHash string, opts CompareKeyOpts) string {
	return hashKey("compare", problemHash, opts)
}
