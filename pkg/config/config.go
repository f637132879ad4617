// Package config loads budgetsolve settings from a TOML file.
//
// Every field has a default, so a missing config file is not an error:
//
//	cfg, err := config.Load("")          // default path, defaults if absent
//	cfg, err := config.Load("ci.toml")   // explicit path must exist
//
// A file only needs the keys it changes:
//
//	[solver]
//	dp_max_cells = 100_000_000
//	auto_timeout = "5s"
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/budgetsolve/pkg/cache"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

const appName = "budgetsolve"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreMongo  = "mongo"
)

// Defaults not owned by the solver package.
const (
	DefaultAddr            = ":8000"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultMaxBodyBytes    = 8 << 20
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMongoDatabase   = "budgetsolve"
	DefaultMongoCollection = "algorithm_runs"
	DefaultRunsLimit       = 20
)

// ValidCacheBackends is the set of accepted cache.backend values.
var ValidCacheBackends = map[string]bool{CacheFile: true, CacheRedis: true, CacheNone: true}

// ValidStoreBackends is the set of accepted store.backend values.
var ValidStoreBackends = map[string]bool{StoreMemory: true, StoreBadger: true, StoreMongo: true}

// Duration is a time.Duration written as a Go duration string ("1.5s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete configuration.
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// SolverConfig holds solve defaults and resource ceilings.
type SolverConfig struct {
	Algorithm          string   `toml:"algorithm"`
	Precision          int      `toml:"precision"`
	Timeout            Duration `toml:"timeout"`
	BruteForceMaxItems int      `toml:"brute_force_max_items"`
	DPMaxCells         int64    `toml:"dp_max_cells"`
	DPMaxWidth         int64    `toml:"dp_max_width"`
	MaxNodes           int64    `toml:"backtracking_max_nodes"`
	HybridCandidates   int      `toml:"hybrid_candidates"`
	AutoTimeout        Duration `toml:"auto_timeout"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	// TTL applies to every cached result. Zero keeps one week for solves
	// and one day for comparisons.
	TTL     Duration          `toml:"ttl"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// StoreConfig selects and configures the run history store.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Solver.Algorithm = string(solver.Auto)
	cfg.Solver.Precision = solver.DefaultPrecision
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every zero field with its default. Precision is left
// alone because zero decimal places is a valid setting.
func (c *Config) SetDefaults() {
	s := &c.Solver
	if s.Algorithm == "" {
		s.Algorithm = string(solver.Auto)
	}
	if s.Timeout == 0 {
		s.Timeout = Duration(DefaultRequestTimeout)
	}
	limits := c.Limits()
	limits.SetDefaults()
	s.BruteForceMaxItems = limits.BruteForceMaxItems
	s.DPMaxCells = limits.DPMaxCells
	s.DPMaxWidth = limits.DPMaxWidth
	s.MaxNodes = limits.MaxNodes
	s.HybridCandidates = limits.HybridCandidates
	s.AutoTimeout = Duration(limits.AutoTimeout)

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = cache.DefaultRedisPrefix
	}

	if c.Store.Backend == "" {
		c.Store.Backend = StoreBadger
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = DefaultMongoDatabase
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = DefaultMongoCollection
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate checks enumerations and ranges. Errors carry INVALID_CONFIG.
func (c *Config) Validate() error {
	if _, err := solver.ParseAlgorithm(c.Solver.Algorithm); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "solver.algorithm: %s", errs.UserMessage(err))
	}
	if c.Solver.Precision < 0 || c.Solver.Precision > solver.MaxPrecision {
		return errs.New(errs.ErrCodeInvalidConfig, "solver.precision must be between 0 and %d, got %d",
			solver.MaxPrecision, c.Solver.Precision)
	}
	if c.Solver.BruteForceMaxItems > solver.MaxBruteForceItems {
		return errs.New(errs.ErrCodeInvalidConfig, "solver.brute_force_max_items must be at most %d",
			solver.MaxBruteForceItems)
	}
	if !ValidCacheBackends[c.Cache.Backend] {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend %q (must be one of: %s)",
			c.Cache.Backend, keys(ValidCacheBackends))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
	}
	if !ValidStoreBackends[c.Store.Backend] {
		return errs.New(errs.ErrCodeInvalidConfig, "store.backend %q (must be one of: %s)",
			c.Store.Backend, keys(ValidStoreBackends))
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// Limits converts the solver section to solver.Limits.
func (c *Config) Limits() solver.Limits {
	return solver.Limits{
		BruteForceMaxItems: c.Solver.BruteForceMaxItems,
		DPMaxCells:         c.Solver.DPMaxCells,
		DPMaxWidth:         c.Solver.DPMaxWidth,
		MaxNodes:           c.Solver.MaxNodes,
		HybridCandidates:   c.Solver.HybridCandidates,
		AutoTimeout:        c.Solver.AutoTimeout.Std(),
	}
}

// Load reads the TOML file at path on top of the defaults.
//
// An empty path reads DefaultPath and silently falls back to defaults when
// that file does not exist. An explicit path that does not exist is a
// FILE_NOT_FOUND error. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return cfg, errs.New(errs.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		names := make([]string, len(undecoded))
		for i, k := range undecoded {
			names[i] = k.String()
		}
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(names, ", "))
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// DefaultPath returns $XDG_CONFIG_HOME/budgetsolve/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// DataDir returns $XDG_DATA_HOME/budgetsolve, falling back to ~/.local/share.
// The badger run store lives here by default.
func DataDir() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// CacheDir returns $XDG_CACHE_HOME/budgetsolve, falling back to ~/.cache.
func CacheDir() (string, error) {
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return filepath.Join(d, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func configHome() (string, error) {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

func keys(m map[string]bool) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
