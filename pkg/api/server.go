// Package api serves the solver over HTTP.
//
// Routes:
//
//	GET  /health         store reachability
//	POST /solve          run one strategy and record the run
//	POST /compare        run several strategies side by side
//	GET  /results/{id}   fetch a recorded run
//	GET  /runs?limit=N   most recent runs
//	GET  /metrics        Prometheus exposition, when metrics are enabled
//
// Errors are returned as {"code": "...", "error": "..."} with the status
// derived from the code: INVALID_* is 400, NOT_FOUND and RUN_NOT_FOUND are
// 404, RESOURCE_EXCEEDED is 422, TIMEOUT is 504 and everything else is 500.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/budgetsolve/pkg/buildinfo"
	"github.com/matzehuels/budgetsolve/pkg/observability"
	"github.com/matzehuels/budgetsolve/pkg/pipeline"
)

// Defaults for Options.
const (
	DefaultMaxBodyBytes = 8 << 20
	DefaultTimeout      = pipeline.DefaultTimeout
	shutdownTimeout     = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Logger *log.Logger
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// Timeout is used for requests that do not set timeout_ms.
	Timeout time.Duration
}

// Server is the HTTP front end of a pipeline.Runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router
}

// New builds the router. The runner is shared by every request.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	s := &Server{runner: runner, logger: opts.Logger, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/solve", s.handleSolve)
	r.Post("/compare", s.handleCompare)
	r.Get("/results/{id}", s.handleResult)
	r.Get("/runs", s.handleRuns)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Error: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Code: "INVALID_INPUT", Error: r.Method + " not allowed on " + r.URL.Path})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// instrument logs each request and feeds the HTTP hooks.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
