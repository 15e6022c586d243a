// Package calc is a stateless arithmetic utility for callers that need
// exact math instead of free-text generation — typically the
// conversational agent working over aggregated metrics.
//
// Every operation is a total function: it never panics and never returns
// NaN. Division by zero yields 0 because the typical caller needs a safe
// fallback, not an exception. The only error is an unsupported operation
// name, returned typed so an orchestration layer can branch on it.
package calc

import (
	"fmt"
	"math"
)

// ErrUnsupportedOp reports an unknown operation name.
type ErrUnsupportedOp struct {
	Op string
}

func (e *ErrUnsupportedOp) Error() string {
	return fmt.Sprintf("unsupported operation %q", e.Op)
}

// DefaultPrecision is the decimal precision used when the caller does not
// specify one.
const DefaultPrecision = 2

// Request is one calculator invocation.
type Request struct {
	Op          string    `json:"operation"`
	Values      []float64 `json:"values,omitempty"`
	Numerator   float64   `json:"numerator,omitempty"`
	Denominator float64   `json:"denominator,omitempty"`
	OldValue    float64   `json:"old_value,omitempty"`
	NewValue    float64   `json:"new_value,omitempty"`
	Precision   int       `json:"precision,omitempty"`
}

// Result is the calculator output: a single number for scalar operations,
// a list for the per-element ones.
type Result struct {
	Op     string    `json:"operation"`
	Value  float64   `json:"value,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Eval dispatches on the operation name. Scalar ratio-style results are
// rounded to the requested precision (default 2).
func Eval(req Request) (*Result, error) {
	precision := req.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	switch req.Op {
	case "sum":
		return &Result{Op: req.Op, Value: Sum(req.Values)}, nil
	case "avg":
		return &Result{Op: req.Op, Value: Round(Avg(req.Values), precision)}, nil
	case "ratio":
		return &Result{Op: req.Op, Value: Round(Ratio(req.Numerator, req.Denominator), precision)}, nil
	case "percentage":
		return &Result{Op: req.Op, Value: Round(Percentage(req.Numerator, req.Denominator), precision)}, nil
	case "growth_rate":
		return &Result{Op: req.Op, Value: Round(GrowthRate(req.OldValue, req.NewValue), precision)}, nil
	case "round":
		if len(req.Values) > 0 {
			out := make([]float64, len(req.Values))
			for i, v := range req.Values {
				out[i] = Round(v, precision)
			}
			return &Result{Op: req.Op, Values: out}, nil
		}
		return &Result{Op: req.Op, Value: Round(req.Numerator, precision)}, nil
	default:
		return nil, &ErrUnsupportedOp{Op: req.Op}
	}
}

// Sum fold-adds a list.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Avg is sum/count, 0 for an empty list.
func Avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Ratio is numerator/denominator, 0 when the denominator is 0.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Percentage is Ratio × 100.
func Percentage(numerator, denominator float64) float64 {
	return Ratio(numerator, denominator) * 100
}

// GrowthRate is (new − old) / max(old, 1) × 100.
func GrowthRate(oldValue, newValue float64) float64 {
	base := oldValue
	if base < 1 {
		base = 1
	}
	return (newValue - oldValue) / base * 100
}

// Round applies half-up rounding at the given decimal precision.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	shift := math.Pow(10, float64(precision))
	return math.Floor(v*shift+0.5) / shift
}
