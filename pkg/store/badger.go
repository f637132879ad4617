package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

const (
	runPrefix   = "run:"
	indexPrefix = "idx:"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps everything in memory, for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives badger's internal messages. Nil silences them.
	Logger *log.Logger
}

// DefaultBadgerConfig returns a durable configuration rooted at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// BadgerStore keeps runs in an embedded badger database.
//
// Each run is stored under run:<id>. A second key idx:<created>:<id> sorts
// by creation time so List can walk newest first without loading every run.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates the database described by cfg.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errs.New(errs.ErrCodeStorage, "badger store needs a path")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, errs.Wrap(errs.ErrCodeStorage, err, "create %s: %v", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "open badger: %v", err)
	}
	return &BadgerStore{db: db}, nil
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, run *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepare(run)
	data, err := encodeRun(run)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(runPrefix+run.ID), data); err != nil {
			return err
		}
		return txn.Set(indexKey(run), []byte(run.ID))
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "save run %s: %v", run.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var run *Run
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		run, err = getRun(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.New(errs.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "get run %s: %v", id, err)
	}
	return run, nil
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context, limit int) ([]*Run, error) {
	limit = clampLimit(limit)
	var runs []*Run
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(indexPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(indexPrefix + "\xff")); it.Valid() && len(runs) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			run, err := getRun(txn, string(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "list runs: %v", err)
	}
	return runs, nil
}

// Ping implements Store.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errs.New(errs.ErrCodeStorage, "badger store is closed")
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error { return s.db.Close() }

func getRun(txn *badger.Txn, id string) (*Run, error) {
	item, err := txn.Get([]byte(runPrefix + id))
	if err != nil {
		return nil, err
	}
	var run *Run
	err = item.Value(func(val []byte) error {
		var derr error
		run, derr = decodeRun(val)
		return derr
	})
	return run, err
}

// indexKey sorts lexicographically by creation time. Nanoseconds are
// zero-padded to 20 digits so string order matches numeric order.
func indexKey(run *Run) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", indexPrefix, run.CreatedAt.UnixNano(), run.ID))
}

// badgerLogger adapts a charmbracelet logger to badger.Logger.
type badgerLogger struct{ l *log.Logger }

func (b *badgerLogger) Errorf(f string, a ...any)   { b.l.Error(fmt.Sprintf(f, a...)) }
func (b *badgerLogger) Warningf(f string, a ...any) { b.l.Warn(fmt.Sprintf(f, a...)) }
func (b *badgerLogger) Infof(f string, a ...any)    { b.l.Debug(fmt.Sprintf(f, a...)) }
func (b *badgerLogger) Debugf(f string, a ...any)   { b.l.Debug(fmt.Sprintf(f, a...)) }

var _ Store = (*BadgerStore)(nil)
