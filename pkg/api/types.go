package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go ones.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Problem is the part shared by solve and compare requests. Either Costs or
// Items is given, not both.
type Problem struct {
	Costs     []float64     `json:"costs,omitempty" validate:"required_without=Items"`
	Items     []solver.Item `json:"items,omitempty"`
	Budget    *float64      `json:"budget" validate:"required"`
	Precision *int          `json:"precision,omitempty"`
	TimeoutMS int64         `json:"timeout_ms,omitempty" validate:"gte=0,lte=600000"`
}

func (p *Problem) items() ([]solver.Item, error) {
	if p.Costs != nil && p.Items != nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "give either costs or items, not both")
	}
	if p.Items != nil {
		return p.Items, nil
	}
	return solver.ItemsFromCosts(p.Costs), nil
}

// SolveRequest is the body of POST /solve.
type SolveRequest struct {
	Problem
	Algorithm string `json:"algorithm,omitempty" validate:"omitempty,max=32"`
}

// SolveResponse is the Selection plus where it was recorded.
type SolveResponse struct {
	RunID    string `json:"run_id,omitempty"`
	CacheHit bool   `json:"cache_hit"`
	*solver.Selection
}

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	Problem
	Algorithms []string `json:"algorithms,omitempty" validate:"omitempty,max=16,dive,required"`
}

// CompareEntry is one strategy in a CompareResponse.
type CompareEntry struct {
	RunID string `json:"run_id,omitempty"`
	solver.ComparisonResult
}

// CompareResponse is the body returned by POST /compare.
type CompareResponse struct {
	ComparisonID   string         `json:"comparison_id,omitempty"`
	ReferenceValue float64        `json:"reference_value"`
	ReferenceExact bool           `json:"reference_exact"`
	CacheHit       bool           `json:"cache_hit"`
	Results        []CompareEntry `json:"results"`
}

// RunsResponse is the body returned by GET /runs.
type RunsResponse struct {
	Runs []*store.Run `json:"runs"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// validateRequest runs the struct tags and converts failures to
// INVALID_INPUT.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fieldMessage(fe)
	}
	return errs.New(errs.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return "one of costs or items is required"
	case "gte":
		return field + " must be at least " + fe.Param()
	case "lte", "max":
		return field + " must be at most " + fe.Param()
	default:
		return field + " failed " + fe.Tag()
	}
}
