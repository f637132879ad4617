package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/budgetsolve/pkg/cache"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/observability"
	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

var portfolio = []float64{120, 80, 150, 40}

func newTestRunner(t *testing.T) (*Runner, *store.MemoryStore) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	st := store.NewMemoryStore()
	r := NewRunner(solver.Default(), c, nil, st, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r, st
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("valid options should pass: %v", err)
	}
	if opts.Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm = %q, want %q", opts.Algorithm, DefaultAlgorithm)
	}
	if opts.Precision == nil || *opts.Precision != solver.DefaultPrecision {
		t.Errorf("Precision = %v, want %d", opts.Precision, solver.DefaultPrecision)
	}
	if opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, DefaultTimeout)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should pass: %v", err)
	}
}

func TestOptionsKeepsZeroPrecision(t *testing.T) {
	zero := 0
	opts := Options{Precision: &zero}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if *opts.Precision != 0 {
		t.Errorf("Precision = %d, want 0", *opts.Precision)
	}
}

func TestOptionsValidate(t *testing.T) {
	seven := 7
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"unknown algorithm", Options{Algorithm: "simplex"}, errs.ErrCodeInvalidAlgorithm},
		{"precision too high", Options{Precision: &seven}, errs.ErrCodeInvalidPrecision},
		{"negative timeout", Options{Timeout: -time.Second}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestCompareOptionsNormalizesNames(t *testing.T) {
	names := []solver.Algorithm{"DP", " greedy "}
	opts := CompareOptions{Algorithms: names}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Algorithms[0] != solver.DPAlgorithm || opts.Algorithms[1] != solver.GreedyAlgorithm {
		t.Errorf("Algorithms = %v", opts.Algorithms)
	}
	if names[0] != "DP" {
		t.Error("caller's slice was modified")
	}

	bad := CompareOptions{Algorithms: []solver.Algorithm{"nope"}}
	if err := bad.ValidateAndSetDefaults(); !errs.Is(err, errs.ErrCodeInvalidAlgorithm) {
		t.Errorf("error = %v, want INVALID_ALGORITHM", err)
	}
}

func TestRunnerSolve(t *testing.T) {
	r, st := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300}

	first, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if first.CacheHit {
		t.Error("first solve should miss the cache")
	}
	if first.Selection.TotalCost != 270 {
		t.Errorf("TotalCost = %v, want 270", first.Selection.TotalCost)
	}
	if first.Selection.Status != solver.StatusExact {
		t.Errorf("Status = %q, want exact", first.Selection.Status)
	}
	if first.Selection.Requested != solver.Auto {
		t.Errorf("Requested = %q, want auto", first.Selection.Requested)
	}
	if !store.ValidID(first.RunID) {
		t.Errorf("RunID %q is not a valid id", first.RunID)
	}

	second, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !second.CacheHit {
		t.Error("second solve should hit the cache")
	}
	if second.RunID == first.RunID {
		t.Error("each solve should record its own run")
	}
	if second.Selection.TotalCost != first.Selection.TotalCost {
		t.Errorf("cached TotalCost = %v, want %v", second.Selection.TotalCost, first.Selection.TotalCost)
	}
	if st.Len() != 2 {
		t.Errorf("recorded runs = %d, want 2", st.Len())
	}

	run, err := r.GetRun(ctx, first.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Kind != store.KindSolve || run.Budget != 300 || len(run.Items) != 4 {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestRunnerSolveRefreshAndNoRecord(t *testing.T) {
	r, st := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300, Algorithm: solver.DPAlgorithm}

	if _, err := r.Solve(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	opts.NoRecord = true
	res, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("refresh should bypass the cache")
	}
	if res.RunID != "" {
		t.Errorf("RunID = %q, want empty with NoRecord", res.RunID)
	}
	if st.Len() != 1 {
		t.Errorf("recorded runs = %d, want 1", st.Len())
	}
}

func TestRunnerSolveDifferentAlgorithmsDoNotShareCache(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	items := solver.ItemsFromCosts(portfolio)

	if _, err := r.Solve(ctx, Options{Items: items, Budget: 300, Algorithm: solver.DPAlgorithm}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Solve(ctx, Options{Items: items, Budget: 300, Algorithm: solver.GreedyAlgorithm})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("greedy should not reuse the dp entry")
	}
	if res.Selection.AlgorithmName != solver.GreedyAlgorithm {
		t.Errorf("AlgorithmName = %q, want greedy", res.Selection.AlgorithmName)
	}
}

func TestRunnerSolveInvalidInput(t *testing.T) {
	r, st := newTestRunner(t)
	_, err := r.Solve(context.Background(), Options{
		Items:  solver.ItemsFromCosts([]float64{10, -1}),
		Budget: 5,
	})
	if !errs.Is(err, errs.ErrCodeInvalidCost) {
		t.Errorf("error = %v, want INVALID_COST", err)
	}
	if st.Len() != 0 {
		t.Error("invalid requests must not be recorded")
	}
}

func TestRunnerSolveEmpty(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Solve(context.Background(), Options{Budget: 100})
	if err != nil {
		t.Fatal(err)
	}
	if res.Selection.Status != solver.StatusFailed {
		t.Errorf("Status = %q, want failed", res.Selection.Status)
	}
	if len(res.Selection.SelectedIndices) != 0 {
		t.Errorf("SelectedIndices = %v, want empty", res.Selection.SelectedIndices)
	}
}

func TestRunnerSolveConcurrent(t *testing.T) {
	r, st := newTestRunner(t)
	opts := Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300}

	const n = 8
	var wg sync.WaitGroup
	costs := make([]float64, n)
	failures := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Solve(context.Background(), opts)
			failures[i] = err
			if err == nil {
				costs[i] = res.Selection.TotalCost
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		if failures[i] != nil {
			t.Fatalf("solve %d: %v", i, failures[i])
		}
		if costs[i] != 270 {
			t.Errorf("solve %d: TotalCost = %v, want 270", i, costs[i])
		}
	}
	if st.Len() != n {
		t.Errorf("recorded runs = %d, want %d", st.Len(), n)
	}
}

func TestRunnerCompare(t *testing.T) {
	r, st := newTestRunner(t)
	ctx := context.Background()
	opts := CompareOptions{
		Items:      solver.ItemsFromCosts(portfolio),
		Budget:     300,
		Algorithms: []solver.Algorithm{solver.DPAlgorithm, solver.GreedyAlgorithm},
	}

	res, err := r.Compare(ctx, opts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Comparison.Results) != 2 || len(res.RunIDs) != 2 {
		t.Fatalf("results = %d, run ids = %d", len(res.Comparison.Results), len(res.RunIDs))
	}
	if !res.Comparison.ReferenceExact || res.Comparison.ReferenceValue != 270 {
		t.Errorf("reference = %v (exact %v), want 270 exact",
			res.Comparison.ReferenceValue, res.Comparison.ReferenceExact)
	}
	if res.ComparisonID == "" {
		t.Error("ComparisonID should be set")
	}
	if st.Len() != 2 {
		t.Errorf("recorded runs = %d, want 2", st.Len())
	}

	run, err := r.GetRun(ctx, res.RunIDs[1])
	if err != nil {
		t.Fatal(err)
	}
	if run.Kind != store.KindCompare || run.ComparisonID != res.ComparisonID {
		t.Errorf("unexpected run %+v", run)
	}
	if run.Accuracy == nil || *run.Accuracy >= 1 {
		t.Errorf("greedy accuracy = %v, want below 1", run.Accuracy)
	}

	again, err := r.Compare(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit {
		t.Error("second comparison should hit the cache")
	}
}

func TestRunnerCompareRecordsOnlySuccesses(t *testing.T) {
	r, st := newTestRunner(t)
	costs := make([]float64, 70)
	for i := range costs {
		costs[i] = float64(i + 1)
	}
	res, err := r.Compare(context.Background(), CompareOptions{
		Items:      solver.ItemsFromCosts(costs),
		Budget:     100,
		Algorithms: []solver.Algorithm{solver.BruteForceAlgorithm, solver.GreedyAlgorithm},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Comparison.Results[0].Code != string(errs.ErrCodeResourceExceeded) {
		t.Errorf("brute force code = %q, want RESOURCE_EXCEEDED", res.Comparison.Results[0].Code)
	}
	if res.RunIDs[0] != "" || res.RunIDs[1] == "" {
		t.Errorf("RunIDs = %v", res.RunIDs)
	}
	if st.Len() != 1 {
		t.Errorf("recorded runs = %d, want 1", st.Len())
	}
}

func TestRunnerListRuns(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	for _, budget := range []float64{100, 200, 300} {
		if _, err := r.Solve(ctx, Options{Items: solver.ItemsFromCosts(portfolio), Budget: budget}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := r.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Budget != 300 {
		t.Errorf("newest run budget = %v, want 300", runs[0].Budget)
	}
}

func TestRunnerWithoutStore(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := r.Solve(ctx, Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300})
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID != "" {
		t.Errorf("RunID = %q, want empty without a store", res.RunID)
	}
	if _, err := r.GetRun(ctx, "x"); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("GetRun error = %v, want UNSUPPORTED", err)
	}
	if _, err := r.ListRuns(ctx, 10); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("ListRuns error = %v, want UNSUPPORTED", err)
	}
	if err := r.Ping(ctx); err != nil {
		t.Errorf("Ping = %v, want nil", err)
	}
}

type recordingHooks struct {
	observability.NoopSolveHooks
	mu        sync.Mutex
	started   int
	completed []string
	fallbacks []string
}

func (h *recordingHooks) OnSolveStart(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHooks) OnSolveComplete(_ context.Context, _, algorithm, _ string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		algorithm = "error"
	}
	h.completed = append(h.completed, algorithm)
}

func (h *recordingHooks) OnFallback(_ context.Context, step, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallbacks = append(h.fallbacks, step)
}

func TestRunnerEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetSolveHooks(hooks)
	defer observability.Reset()

	limits := solver.DefaultLimits()
	limits.BruteForceMaxItems = 2
	d := solver.NewDispatcher(solver.DefaultRegistry(limits), limits, nil)
	r := NewRunner(d, nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Solve(ctx, Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Solve(ctx, Options{Items: solver.ItemsFromCosts(portfolio), Budget: 300, Algorithm: solver.BruteForceAlgorithm}); err != nil {
		t.Fatal(err)
	}

	if hooks.started != 2 {
		t.Errorf("started = %d, want 2", hooks.started)
	}
	if len(hooks.completed) != 2 || hooks.completed[0] != string(solver.DPAlgorithm) {
		t.Errorf("completed = %v, want [dp brute_force]", hooks.completed)
	}
}

// ttlCache records the TTL of every Set.
type ttlCache struct {
	cache.NullCache
	mu   sync.Mutex
	ttls []time.Duration
}

func (c *ttlCache) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls = append(c.ttls, ttl)
	return nil
}

func TestRunnerCacheTTL(t *testing.T) {
	ctx := context.Background()
	items := solver.ItemsFromCosts(portfolio)

	c := &ttlCache{}
	r := NewRunner(solver.Default(), c, nil, nil, nil)
	if _, err := r.Solve(ctx, Options{Items: items, Budget: 300}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Compare(ctx, CompareOptions{Items: items, Budget: 300}); err != nil {
		t.Fatal(err)
	}
	if len(c.ttls) != 2 || c.ttls[0] != cache.TTLSolve || c.ttls[1] != cache.TTLCompare {
		t.Errorf("default TTLs = %v, want [%v %v]", c.ttls, cache.TTLSolve, cache.TTLCompare)
	}

	c = &ttlCache{}
	r = NewRunner(solver.Default(), c, nil, nil, nil)
	r.TTL = time.Hour
	if _, err := r.Solve(ctx, Options{Items: items, Budget: 300}); err != nil {
		t.Fatal(err)
	}
	if len(c.ttls) != 1 || c.ttls[0] != time.Hour {
		t.Errorf("override TTLs = %v, want [1h]", c.ttls)
	}
}

// evenCosts has only even costs and, for n = 16, an odd budget, so no
// bound proves the incumbent optimal and exact searches run well past the
// first cancellation check.
func evenCosts(n int) ([]solver.Item, float64) {
	costs := make([]float64, n)
	var total float64
	for i := range costs {
		costs[i] = float64(1000 + 2*i)
		total += costs[i]
	}
	return solver.ItemsFromCosts(costs), total/2 + 1
}

func TestRunnerSolveDoesNotCacheTruncated(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	items, budget := evenCosts(16)
	zero := 0
	opts := Options{Items: items, Budget: budget, Precision: &zero, Algorithm: solver.BacktrackingAlgorithm}

	opts.Timeout = time.Nanosecond
	short, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !short.Selection.Truncated || short.Selection.Status != solver.StatusApproximate {
		t.Fatalf("1ns solve: truncated=%v status=%s, want truncated approximate",
			short.Selection.Truncated, short.Selection.Status)
	}

	opts.Timeout = time.Hour
	full, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if full.CacheHit {
		t.Error("a generous deadline must not be served the truncated result")
	}
	if full.Selection.Truncated || full.Selection.Status != solver.StatusExact {
		t.Errorf("1h solve: truncated=%v status=%s, want exact",
			full.Selection.Truncated, full.Selection.Status)
	}
	if full.Selection.TotalCost != budget-1 {
		t.Errorf("TotalCost = %v, want %v", full.Selection.TotalCost, budget-1)
	}

	again, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit {
		t.Error("a complete exact result should be cached")
	}
}

func TestRunnerCompareDoesNotCacheTruncated(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	items, budget := evenCosts(16)
	zero := 0
	opts := CompareOptions{
		Items:      items,
		Budget:     budget,
		Precision:  &zero,
		Algorithms: []solver.Algorithm{solver.BacktrackingAlgorithm, solver.GreedyAlgorithm},
		Timeout:    time.Nanosecond,
	}
	if _, err := r.Compare(ctx, opts); err != nil {
		t.Fatal(err)
	}

	opts.Timeout = time.Hour
	res, err := r.Compare(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("a generous deadline must not be served the truncated comparison")
	}
	if !res.Comparison.ReferenceExact {
		t.Error("the 1h comparison should have an exact reference")
	}
}

func TestReusable(t *testing.T) {
	tests := []struct {
		name string
		sel  solver.Selection
		want bool
	}{
		{"exact", solver.Selection{Status: solver.StatusExact}, true},
		{"failed", solver.Selection{Status: solver.StatusFailed}, true},
		{"greedy", solver.Selection{Status: solver.StatusApproximate}, true},
		{"exact after fallback", solver.Selection{Status: solver.StatusExact, Fallbacks: []string{"dp: too large"}}, true},
		{"truncated", solver.Selection{Status: solver.StatusApproximate, Truncated: true}, false},
		{"approximate after fallback", solver.Selection{Status: solver.StatusApproximate, Fallbacks: []string{"backtracking: truncated after 4096 nodes"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reusable(&tt.sel); got != tt.want {
				t.Errorf("reusable = %v, want %v", got, tt.want)
			}
		})
	}

	timedOut := &solver.Comparison{Results: []solver.ComparisonResult{
		{Algorithm: solver.DPAlgorithm, Code: string(errs.ErrCodeTimeout)},
	}}
	if comparisonReusable(timedOut) {
		t.Error("a comparison with a timed-out entry should not be reusable")
	}
}

func TestNewRunnerDiscardsLogsByDefault(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil, nil)
	if r.Logger == log.Default() {
		t.Error("NewRunner should not fall back to the process-wide logger")
	}
}
