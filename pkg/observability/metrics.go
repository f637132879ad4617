package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

const namespace = "budgetsolve"

// Metrics records hook events as Prometheus metrics. It implements
// SolveHooks, CacheHooks and HTTPHooks.
//
// Each Metrics owns its registry, so tests and embedded servers never
// collide on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	solveErrors   *prometheus.CounterVec
	inFlight      prometheus.Gauge
	fallbacks     *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry that also carries
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: requested, algorithm (the solver that answered), status
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "solves_total",
			Help:      "Completed solves by requested algorithm, answering algorithm and status",
		}, []string{"requested", "algorithm", "status"}),

		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Wall time of completed solves",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"algorithm"}),

		// Labels: requested, code (error code)
		solveErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "errors_total",
			Help:      "Solves that returned an error",
		}, []string{"requested", "code"}),

		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "in_flight",
			Help:      "Solves currently running",
		}),

		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "fallbacks_total",
			Help:      "Auto strategy steps that were abandoned",
		}, []string{"step"}),

		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by key type",
		}, []string{"type"}),

		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by key type",
		}, []string{"type"}),

		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"type"}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP responses by method, route and status code",
		}, []string{"method", "route", "code"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnSolveStart implements SolveHooks.
func (m *Metrics) OnSolveStart(context.Context, string, int) {
	m.inFlight.Inc()
}

// OnSolveComplete implements SolveHooks.
func (m *Metrics) OnSolveComplete(_ context.Context, requested, algorithm, status string, d time.Duration, err error) {
	m.inFlight.Dec()
	if err != nil {
		m.solveErrors.WithLabelValues(requested, errorCode(err)).Inc()
		return
	}
	m.solves.WithLabelValues(requested, algorithm, status).Inc()
	m.solveDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

// OnFallback implements SolveHooks.
func (m *Metrics) OnFallback(_ context.Context, step, _ string) {
	m.fallbacks.WithLabelValues(step).Inc()
}

// OnCacheHit implements CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

// OnCacheMiss implements CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

// OnCacheSet implements CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {}

// OnResponse implements HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func errorCode(err error) string {
	if code := errs.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}

var (
	_ SolveHooks = (*Metrics)(nil)
	_ CacheHooks = (*Metrics)(nil)
	_ HTTPHooks  = (*Metrics)(nil)
)
