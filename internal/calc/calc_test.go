package calc

import (
	"errors"
	"math"
	"testing"
)

func TestSum(t *testing.T) {
	if got := Sum([]float64{1, 2, 3.5}); got != 6.5 {
		t.Errorf("Sum = %v, want 6.5", got)
	}
	if got := Sum(nil); got != 0 {
		t.Errorf("Sum(nil) = %v, want 0", got)
	}
}

func TestAvgEmptyIsZero(t *testing.T) {
	if got := Avg(nil); got != 0 {
		t.Errorf("Avg(nil) = %v, want 0", got)
	}
	if got := Avg([]float64{2, 4}); got != 3 {
		t.Errorf("Avg = %v, want 3", got)
	}
}

func TestRatioDivisionByZeroIsZero(t *testing.T) {
	if got := Ratio(5, 0); got != 0 {
		t.Errorf("Ratio(5, 0) = %v, want 0", got)
	}
	if got := Percentage(5, 0); got != 0 {
		t.Errorf("Percentage(5, 0) = %v, want 0", got)
	}
	if math.IsNaN(Ratio(0, 0)) {
		t.Error("Ratio(0, 0) is NaN, want 0")
	}
}

func TestPercentageScenario(t *testing.T) {
	result, err := Eval(Request{Op: "percentage", Numerator: 59, Denominator: 103})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.Value != 57.28 {
		t.Errorf("percentage(59, 103) = %v, want 57.28", result.Value)
	}
}

func TestGrowthRate(t *testing.T) {
	if got := GrowthRate(100, 150); got != 50 {
		t.Errorf("GrowthRate(100, 150) = %v, want 50", got)
	}
	// Zero baseline clamps to 1 instead of dividing by zero.
	if got := GrowthRate(0, 7); got != 700 {
		t.Errorf("GrowthRate(0, 7) = %v, want 700", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	if got := Round(1.25, 1); got != 1.3 {
		t.Errorf("Round(1.25, 1) = %v, want 1.3", got)
	}
	if got := Round(2.5, 0); got != 3 {
		t.Errorf("Round(2.5, 0) = %v, want 3", got)
	}
}

func TestRoundListPerElement(t *testing.T) {
	result, err := Eval(Request{Op: "round", Values: []float64{1.005, 2.719}, Precision: 1})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []float64{1.0, 2.7}
	if len(result.Values) != len(want) {
		t.Fatalf("got %d values, want %d", len(result.Values), len(want))
	}
	for i, v := range want {
		if result.Values[i] != v {
			t.Errorf("Values[%d] = %v, want %v", i, result.Values[i], v)
		}
	}
}

func TestUnsupportedOpIsTyped(t *testing.T) {
	_, err := Eval(Request{Op: "median"})
	if err == nil {
		t.Fatal("expected error for unsupported op")
	}
	var unsupported *ErrUnsupportedOp
	if !errors.As(err, &unsupported) {
		t.Fatalf("error %v is not ErrUnsupportedOp", err)
	}
	if unsupported.Op != "median" {
		t.Errorf("Op = %q, want %q", unsupported.Op, "median")
	}
}
