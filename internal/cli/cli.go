// Package cli implements the budgetsolve command-line interface.
//
// # Commands
//
//   - solve: pick the best subset of items within a budget
//   - compare: run every strategy on one problem side by side
//   - serve: start the HTTP API
//   - runs: list, show, browse and export recorded runs
//   - cache: clear or locate the result cache
//   - config: print the effective configuration
//
// All commands support --verbose (-v) for debug-level logging and --config
// to read a TOML file other than ~/.config/budgetsolve/config.toml.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/buildinfo"
	"github.com/matzehuels/budgetsolve/pkg/cache"
	"github.com/matzehuels/budgetsolve/pkg/config"
	"github.com/matzehuels/budgetsolve/pkg/pipeline"
	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "budgetsolve"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	buildinfo.Resolve()
	root := &cobra.Command{
		Use:          appName,
		Short:        "budgetsolve picks the best subset of items that fits a budget",
		Long:         `budgetsolve solves bounded-budget selection (subset sum) problems with exact and heuristic strategies, records every run, and serves the same solver over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/budgetsolve/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects what a command needs from the runner.
type runnerOpts struct {
	noCache  bool
	noRecord bool
}

// newRunner creates a pipeline runner for CLI use from the loaded config.
func (c *CLI) newRunner(ctx context.Context, o runnerOpts) (*pipeline.Runner, error) {
	limits := c.cfg.Limits()
	d := solver.NewDispatcher(solver.DefaultRegistry(limits), limits, c.Logger)

	ch, err := c.newCache(ctx, o.noCache)
	if err != nil {
		return nil, err
	}
	var st store.Store
	if !o.noRecord {
		if st, err = c.newStore(ctx); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}
	runner := pipeline.NewRunner(d, ch, nil, st, c.Logger)
	runner.TTL = c.cfg.Cache.TTL.Std()
	return runner, nil
}

// newCache opens the configured cache. A file cache that cannot be created
// degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, c.cfg.Cache.Redis)
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// newStore opens the configured run store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	s := c.cfg.Store
	switch s.Backend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreMongo:
		return store.OpenMongo(ctx, store.MongoConfig{
			URI:        s.MongoURI,
			Database:   s.MongoDatabase,
			Collection: s.MongoCollection,
		})
	default:
		path, err := c.storePath()
		if err != nil {
			return nil, err
		}
		cfg := store.DefaultBadgerConfig(path)
		cfg.Logger = c.Logger.WithPrefix("badger")
		return store.OpenBadger(cfg)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: cache.dir from the config or
// the XDG cache home (~/.cache/budgetsolve/).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}

// storePath returns the badger directory: store.path from the config or
// runs/ under the XDG data home.
func (c *CLI) storePath() (string, error) {
	if c.cfg.Store.Path != "" {
		return c.cfg.Store.Path, nil
	}
	dir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(dir, "runs"), nil
}
