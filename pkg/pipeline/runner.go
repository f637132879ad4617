package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/budgetsolve/pkg/cache"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/observability"
	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

// Runner executes requests with caching and run recording.
// Both CLI and API use it to avoid duplicating that logic.
//
// A Runner holds no per-request state. Multiple goroutines can safely
// share one. Concurrent requests with the same cache key are collapsed into
// a single solve.
type Runner struct {
	Dispatcher *solver.Dispatcher
	Cache      cache.Cache
	Keyer      cache.Keyer
	// Store records runs. Nil disables history.
	Store  store.Store
	Logger *log.Logger
	// TTL overrides how long results are cached. Zero keeps the per-kind
	// defaults.
	TTL time.Duration

	group singleflight.Group
}

// NewRunner creates a runner.
// If d is nil, solver.Default() is used.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If logger is nil, output is discarded.
func NewRunner(d *solver.Dispatcher, c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if d == nil {
		d = solver.Default()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Dispatcher: d,
		Cache:      c,
		Keyer:      keyer,
		Store:      st,
		Logger:     logger,
	}
}

// problemKey is the part of a request that determines its answer.
type problemKey struct {
	Items     []solver.Item `json:"items"`
	Budget    float64       `json:"budget"`
	Precision int           `json:"precision"`
}

// flight is what a deduplicated call hands every waiter. Each caller
// decodes its own copy so no Selection is shared.
//
// Requests only share a flight when they also share a timeout, since a
// shorter deadline can cut the search short.
type flight struct {
	data []byte
	hit  bool
}

// Solve validates opts, answers from the cache when possible and records
// the run.
func (r *Runner) Solve(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts.Logger)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	p, err := solver.NewProblem(opts.Items, opts.Budget, *opts.Precision)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "pipeline.Solve",
		attribute.String("algorithm", string(opts.Algorithm)),
		attribute.Int("items", p.Len()),
	)
	hooks := observability.Solve()
	hooks.OnSolveStart(ctx, string(opts.Algorithm), p.Len())
	start := time.Now()

	res, err := r.solve(ctx, p, opts)

	if err != nil {
		hooks.OnSolveComplete(ctx, string(opts.Algorithm), "", "", time.Since(start), err)
		observability.EndSpan(span, err)
		return nil, err
	}
	sel := res.Selection
	for _, fb := range sel.Fallbacks {
		step, reason, _ := strings.Cut(fb, ": ")
		hooks.OnFallback(ctx, step, reason)
	}
	hooks.OnSolveComplete(ctx, string(opts.Algorithm), string(sel.AlgorithmName), string(sel.Status), time.Since(start), nil)
	span.SetAttributes(
		attribute.String("solved_by", string(sel.AlgorithmName)),
		attribute.String("status", string(sel.Status)),
		attribute.Bool("cache_hit", res.CacheHit),
	)
	observability.EndSpan(span, nil)
	return res, nil
}

func (r *Runner) solve(ctx context.Context, p *solver.Problem, opts Options) (*Result, error) {
	hash, err := cache.HashJSON(problemKey{Items: p.Items(), Budget: p.Budget(), Precision: p.Precision()})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "hash problem: %v", err)
	}
	key := r.Keyer.SolveKey(hash, opts.SolveKeyOpts(r.Dispatcher.Limits()))

	v, err, shared := r.group.Do(flightKey(key, opts.Timeout), func() (any, error) {
		if !opts.Refresh {
			if data, ok := r.lookup(ctx, key, "solve"); ok {
				return flight{data: data, hit: true}, nil
			}
		}

		sctx, cancel := solver.SolveTimeout(ctx, opts.Timeout)
		defer cancel()
		sel, err := r.Dispatcher.Solve(sctx, p, opts.Algorithm)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(sel)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode selection: %v", err)
		}
		if reusable(sel) {
			r.store(ctx, key, "solve", data, r.ttl(cache.TTLSolve))
		} else {
			r.Logger.Debug("not caching cut-short selection", "key", key, "algorithm", sel.AlgorithmName)
		}
		return flight{data: data}, nil
	})
	if err != nil {
		return nil, err
	}
	f := v.(flight)

	var sel solver.Selection
	if err := json.Unmarshal(f.data, &sel); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode selection: %v", err)
	}
	opts.Logger.Info("solved",
		"requested", opts.Algorithm,
		"algorithm", sel.AlgorithmName,
		"status", sel.Status,
		"total_cost", sel.TotalCost,
		"selected", len(sel.SelectedIndices),
		"duration_ms", sel.ExecutionTimeMS,
		"cache_hit", f.hit,
		"shared", shared)

	res := &Result{Selection: &sel, CacheHit: f.hit}
	if !opts.NoRecord && r.Store != nil {
		run := &store.Run{
			Kind:      store.KindSolve,
			Items:     p.Items(),
			Budget:    p.Budget(),
			Precision: p.Precision(),
			Requested: opts.Algorithm,
			Selection: &sel,
		}
		if err := r.Store.Save(ctx, run); err != nil {
			return nil, err
		}
		res.RunID = run.ID
	}
	return res, nil
}

// Compare runs several strategies on one problem and records each
// successful result as a run.
func (r *Runner) Compare(ctx context.Context, opts CompareOptions) (*CompareResult, error) {
	r.applyLogger(&opts.Logger)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	p, err := solver.NewProblem(opts.Items, opts.Budget, *opts.Precision)
	if err != nil {
		return nil, err
	}
	algorithms := opts.Algorithms
	if len(algorithms) == 0 {
		algorithms = r.Dispatcher.Registry().Algorithms()
	}

	ctx, span := observability.StartSpan(ctx, "pipeline.Compare",
		attribute.Int("items", p.Len()),
		attribute.Int("algorithms", len(algorithms)),
	)
	res, err := r.compare(ctx, p, algorithms, opts)
	observability.EndSpan(span, err)
	return res, err
}

func (r *Runner) compare(ctx context.Context, p *solver.Problem, algorithms []solver.Algorithm, opts CompareOptions) (*CompareResult, error) {
	hash, err := cache.HashJSON(problemKey{Items: p.Items(), Budget: p.Budget(), Precision: p.Precision()})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "hash problem: %v", err)
	}
	key := r.Keyer.CompareKey(hash, opts.CompareKeyOpts(algorithms, r.Dispatcher.Limits()))

	v, err, _ := r.group.Do(flightKey(key, opts.Timeout), func() (any, error) {
		if !opts.Refresh {
			if data, ok := r.lookup(ctx, key, "compare"); ok {
				return flight{data: data, hit: true}, nil
			}
		}

		sctx, cancel := solver.SolveTimeout(ctx, opts.Timeout)
		defer cancel()
		cmp, err := r.Dispatcher.Compare(sctx, p, algorithms)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(cmp)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode comparison: %v", err)
		}
		if comparisonReusable(cmp) {
			r.store(ctx, key, "compare", data, r.ttl(cache.TTLCompare))
		} else {
			r.Logger.Debug("not caching cut-short comparison", "key", key)
		}
		return flight{data: data}, nil
	})
	if err != nil {
		return nil, err
	}
	f := v.(flight)

	var cmp solver.Comparison
	if err := json.Unmarshal(f.data, &cmp); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode comparison: %v", err)
	}
	opts.Logger.Info("compared",
		"algorithms", len(cmp.Results),
		"reference", cmp.ReferenceValue,
		"reference_exact", cmp.ReferenceExact,
		"cache_hit", f.hit)

	res := &CompareResult{
		Comparison: &cmp,
		RunIDs:     make([]string, len(cmp.Results)),
		CacheHit:   f.hit,
	}
	if opts.NoRecord || r.Store == nil {
		return res, nil
	}
	res.ComparisonID = store.NewID()
	for i, cr := range cmp.Results {
		if cr.Selection == nil {
			continue
		}
		accuracy := cr.Accuracy
		run := &store.Run{
			Kind:         store.KindCompare,
			Items:        p.Items(),
			Budget:       p.Budget(),
			Precision:    p.Precision(),
			Requested:    cr.Algorithm,
			Selection:    cr.Selection,
			Accuracy:     &accuracy,
			ComparisonID: res.ComparisonID,
		}
		if err := r.Store.Save(ctx, run); err != nil {
			return nil, err
		}
		res.RunIDs[i] = run.ID
	}
	return res, nil
}

// GetRun returns a recorded run.
func (r *Runner) GetRun(ctx context.Context, id string) (*store.Run, error) {
	if r.Store == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "run history is disabled")
	}
	return r.Store.Get(ctx, id)
}

// ListRuns returns the most recent runs, newest first.
func (r *Runner) ListRuns(ctx context.Context, limit int) ([]*store.Run, error) {
	if r.Store == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "run history is disabled")
	}
	return r.Store.List(ctx, limit)
}

// Ping checks the run store, if any.
func (r *Runner) Ping(ctx context.Context) error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Ping(ctx)
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// lookup reads key from the cache. Cache failures count as misses.
func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	r.Logger.Debug("cache hit", "key", key)
	return data, true
}

// store writes key to the cache. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// ttl returns the configured cache TTL, or def when none is set.
func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on a request that carries none.
func (r *Runner) applyLogger(l **log.Logger) {
	if *l == nil {
		*l = r.Logger
	}
}

// flightKey scopes a cache key to the request timeout for deduplication.
func flightKey(key string, timeout time.Duration) string {
	return key + "@" + timeout.String()
}

// reusable reports whether sel would come out the same under any deadline.
// Truncated searches depend on when they were stopped, and a non-exact
// result reached through fallbacks may owe them to a timeout.
func reusable(sel *solver.Selection) bool {
	if sel.Truncated {
		return false
	}
	switch sel.Status {
	case solver.StatusExact, solver.StatusFailed:
		return true
	}
	return len(sel.Fallbacks) == 0
}

// comparisonReusable reports whether every entry of cmp is reusable.
func comparisonReusable(cmp *solver.Comparison) bool {
	for _, res := range cmp.Results {
		if res.Code == string(errs.ErrCodeTimeout) {
			return false
		}
		if res.Selection != nil && !reusable(res.Selection) {
			return false
		}
	}
	return true
}
