package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

// MemoryStore keeps runs in process memory. Runs are stored as JSON so
// callers can never alias stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]memoryEntry
	seq  int64
}

type memoryEntry struct {
	seq  int64
	data []byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]memoryEntry)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, run *Run) error {
	prepare(run)
	data, err := encodeRun(run)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.runs[run.ID] = memoryEntry{seq: s.seq, data: data}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	e, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.ErrCodeRunNotFound, "run %s not found", id)
	}
	return decodeRun(e.data)
}

// List implements Store. Runs are ordered by creation time, then by
// insertion order for runs created in the same instant.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	entries := make([]memoryEntry, 0, len(s.runs))
	for _, e := range s.runs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	runs := make([]*Run, 0, len(entries))
	seqs := make(map[*Run]int64, len(entries))
	for _, e := range entries {
		r, err := decodeRun(e.data)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
		seqs[r] = e.seq
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return seqs[runs[i]] > seqs[runs[j]]
	})
	if limit = clampLimit(limit); len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored runs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func encodeRun(run *Run) ([]byte, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "encode run: %v", err)
	}
	return data, nil
}

func decodeRun(data []byte) (*Run, error) {
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "decode run: %v", err)
	}
	return &r, nil
}

var _ Store = (*MemoryStore)(nil)
