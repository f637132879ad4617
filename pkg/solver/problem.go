package solver

import (
	"math"

	errs "github.com/matzehuels/budgetsolve/pkg/errors"
)

const (
	// DefaultPrecision is the number of decimal places costs are scaled by
	// (2 means integer cents).
	DefaultPrecision = 2

	// MaxPrecision is the largest accepted precision.
	MaxPrecision = 6

	// maxUnits is the largest scaled cost that a float64 still represents exactly.
	maxUnits = 1 << 53

	// quantizationTolerance is the relative slack allowed when deciding
	// whether cost*scale is an integer. It absorbs binary floating-point
	// noise (0.29*100 = 28.999999999999996) and nothing more.
	quantizationTolerance = 1e-9
)

// Problem is the validated, integer-scaled form of a selection request.
//
// A Problem is immutable after NewProblem returns and is safe for concurrent
// use by any number of solvers.
type Problem struct {
	items      []Item
	units      []int64
	values     []float64
	capacity   int64
	budget     float64
	precision  int
	scale      float64
	totalUnits int64
	minUnits   int64
	unweighted bool
	integral   bool
}

// NewProblem validates items and budget and scales costs to integer units
// of 10^-precision.
//
// A negative precision selects DefaultPrecision. Invalid input is reported
// with INVALID_COST, INVALID_VALUE, INVALID_BUDGET or INVALID_PRECISION; a
// cost that needs more decimal places than precision allows is rejected
// rather than rounded.
func NewProblem(items []Item, budget float64, precision int) (*Problem, error) {
	if precision < 0 {
		precision = DefaultPrecision
	}
	if precision > MaxPrecision {
		return nil, errs.New(errs.ErrCodeInvalidPrecision,
			"precision %d out of range (0..%d)", precision, MaxPrecision)
	}
	if math.IsNaN(budget) || math.IsInf(budget, 0) {
		return nil, errs.New(errs.ErrCodeInvalidBudget, "budget must be a finite number")
	}
	if budget < 0 {
		return nil, errs.New(errs.ErrCodeInvalidBudget, "budget must be non-negative, got %g", budget)
	}

	scale := math.Pow10(precision)
	p := &Problem{
		items:      append([]Item(nil), items...),
		units:      make([]int64, len(items)),
		values:     make([]float64, len(items)),
		budget:     budget,
		precision:  precision,
		scale:      scale,
		minUnits:   math.MaxInt64,
		unweighted: true,
		integral:   true,
	}

	for i, it := range items {
		if math.IsNaN(it.Cost) || math.IsInf(it.Cost, 0) {
			return nil, errs.New(errs.ErrCodeInvalidCost, "item %d: cost must be a finite number", i)
		}
		if it.Cost < 0 {
			return nil, errs.New(errs.ErrCodeInvalidCost, "item %d: cost must be non-negative, got %g", i, it.Cost)
		}
		if it.Value != nil {
			v := *it.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errs.New(errs.ErrCodeInvalidValue, "item %d: value must be a finite number", i)
			}
			if v < 0 {
				return nil, errs.New(errs.ErrCodeInvalidValue, "item %d: value must be non-negative, got %g", i, v)
			}
			p.unweighted = false
		}

		u, ok := quantize(it.Cost * scale)
		if !ok {
			return nil, errs.New(errs.ErrCodeInvalidPrecision,
				"item %d: cost %g needs more than %d decimal places", i, it.Cost, precision)
		}
		if u > maxUnits {
			return nil, errs.New(errs.ErrCodeInternal, "item %d: scaled cost overflows exact integer range", i)
		}
		p.units[i] = u
		p.totalUnits += u
		if p.totalUnits > maxUnits {
			return nil, errs.New(errs.ErrCodeInternal, "sum of scaled costs overflows exact integer range")
		}
		if u < p.minUnits {
			p.minUnits = u
		}
	}

	// Unweighted problems use the integer units as values so every strategy
	// compares sums exactly. Mixed problems fall back to the cost itself.
	var valueSum float64
	for i, it := range items {
		switch {
		case p.unweighted:
			p.values[i] = float64(p.units[i])
		default:
			p.values[i] = it.Worth()
		}
		valueSum += p.values[i]
		if p.values[i] != math.Trunc(p.values[i]) {
			p.integral = false
		}
	}
	if valueSum > maxUnits {
		p.integral = false
	}

	p.capacity = capacityUnits(budget * scale)
	return p, nil
}

// quantize returns the integer nearest to x and whether x is that integer
// up to floating-point noise.
func quantize(x float64) (int64, bool) {
	r := math.Round(x)
	if math.Abs(x-r) > quantizationTolerance*math.Max(1, math.Abs(x)) {
		return 0, false
	}
	if r > math.MaxInt64/2 {
		return math.MaxInt64 / 2, true
	}
	return int64(r), true
}

// capacityUnits floors a scaled budget, snapping values within rounding
// noise of an integer to that integer.
func capacityUnits(x float64) int64 {
	if r, ok := quantize(x); ok {
		return r
	}
	if x >= math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(math.Floor(x))
}

// Len returns the number of items.
func (p *Problem) Len() int { return len(p.units) }

// Item returns the i-th submitted item.
func (p *Problem) Item(i int) Item { return p.items[i] }

// Items returns a copy of the submitted items.
func (p *Problem) Items() []Item { return append([]Item(nil), p.items...) }

// Units returns the scaled integer cost of item i.
func (p *Problem) Units(i int) int64 { return p.units[i] }

// Value returns the objective value of item i. For unweighted problems this
// is the scaled cost.
func (p *Problem) Value(i int) float64 { return p.values[i] }

// Capacity returns the budget in scaled units.
func (p *Problem) Capacity() int64 { return p.capacity }

// Budget returns the budget as submitted.
func (p *Problem) Budget() float64 { return p.budget }

// Precision returns the number of decimal places costs were scaled by.
func (p *Problem) Precision() int { return p.precision }

// TotalUnits returns the sum of all scaled costs.
func (p *Problem) TotalUnits() int64 { return p.totalUnits }

// Unweighted reports whether no item carries an explicit value.
func (p *Problem) Unweighted() bool { return p.unweighted }

// Integral reports whether every objective value is an integer and their
// sum is exactly representable, so value sums never round.
func (p *Problem) Integral() bool { return p.integral }

// Feasible reports whether at least one item fits the budget on its own.
// When it does not, every strategy reports status failed.
func (p *Problem) Feasible() bool {
	return len(p.units) > 0 && p.minUnits <= p.capacity
}

// CostOf converts scaled units back to currency.
func (p *Problem) CostOf(units int64) float64 { return float64(units) / p.scale }

// valueOf sums objective values of the given indices in ascending index
// order so equal selections always produce the same float.
func (p *Problem) valueOf(sorted []int) float64 {
	var v float64
	for _, i := range sorted {
		v += p.values[i]
	}
	return v
}
