// Package store records solve runs so they can be fetched later by ID.
//
// Every solve or comparison handled by the pipeline becomes a [Run]: the
// submitted items and budget, the algorithm asked for, and the Selection
// that came back. Backends:
//
//   - [MemoryStore]: process-local, for tests and ephemeral servers
//   - [BadgerStore]: embedded on-disk store, the CLI default
//   - [MongoStore]: the shared algorithm_runs collection for API deployments
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// Run kinds.
const (
	KindSolve   = "solve"
	KindCompare = "compare"
)

// MaxListLimit caps how many runs List returns at once.
const MaxListLimit = 500

// Run is one recorded solve.
type Run struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Kind      string            `json:"kind"`
	Items     []solver.Item     `json:"items"`
	Budget    float64           `json:"budget"`
	Precision int               `json:"precision"`
	Requested solver.Algorithm  `json:"requested"`
	Selection *solver.Selection `json:"selection"`

	// Accuracy is set for runs that were part of a comparison.
	Accuracy *float64 `json:"accuracy,omitempty"`
	// ComparisonID groups the runs of one comparison.
	ComparisonID string `json:"comparison_id,omitempty"`
}

// Store persists runs.
type Store interface {
	// Save records run, assigning ID and CreatedAt when they are empty.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or a RUN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// NewID returns a fresh run ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// prepare fills ID and CreatedAt.
func prepare(run *Run) {
	if run.ID == "" {
		run.ID = NewID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
