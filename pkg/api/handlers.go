package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/budgetsolve/pkg/buildinfo"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/pipeline"
	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

// defaultRunsLimit is used when GET /runs has no limit.
const defaultRunsLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Error:  errs.UserMessage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: buildinfo.Version})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	items, err := req.items()
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Solve(r.Context(), pipeline.Options{
		Items:     items,
		Budget:    *req.Budget,
		Algorithm: solver.Algorithm(req.Algorithm),
		Precision: req.Precision,
		Timeout:   s.timeout(req.TimeoutMS),
		Logger:    s.logger,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SolveResponse{
		RunID:     res.RunID,
		CacheHit:  res.CacheHit,
		Selection: res.Selection,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	items, err := req.items()
	if err != nil {
		s.writeError(w, err)
		return
	}
	algorithms := make([]solver.Algorithm, len(req.Algorithms))
	for i, a := range req.Algorithms {
		algorithms[i] = solver.Algorithm(a)
	}

	res, err := s.runner.Compare(r.Context(), pipeline.CompareOptions{
		Items:      items,
		Budget:     *req.Budget,
		Precision:  req.Precision,
		Algorithms: algorithms,
		Timeout:    s.timeout(req.TimeoutMS),
		Logger:     s.logger,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := CompareResponse{
		ComparisonID:   res.ComparisonID,
		ReferenceValue: res.Comparison.ReferenceValue,
		ReferenceExact: res.Comparison.ReferenceExact,
		CacheHit:       res.CacheHit,
		Results:        make([]CompareEntry, len(res.Comparison.Results)),
	}
	for i, cr := range res.Comparison.Results {
		resp.Results[i] = CompareEntry{RunID: res.RunIDs[i], ComparisonResult: cr}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.runner.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > store.MaxListLimit {
			s.writeError(w, errs.New(errs.ErrCodeInvalidInput,
				"limit must be an integer between 1 and %d", store.MaxListLimit))
			return
		}
		limit = n
	}
	runs, err := s.runner.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
		default:
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return errs.New(errs.ErrCodeInvalidInput, "request body has trailing data")
	}
	return validateRequest(v)
}

func (s *Server) timeout(ms int64) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return s.opts.Timeout
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	code := errs.GetCode(err)
	switch {
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest
	case code == errs.ErrCodeNotFound, code == errs.ErrCodeRunNotFound:
		return http.StatusNotFound
	case code == errs.ErrCodeResourceExceeded:
		return http.StatusUnprocessableEntity
	case code == errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := string(errs.GetCode(err))
	if code == "" {
		code = string(errs.ErrCodeInternal)
	}
	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
