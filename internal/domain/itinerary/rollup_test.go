package itinerary

import (
	"math"
	"testing"
	"time"
)

func TestDayRecomputeIncludesTransportation(t *testing.T) {
	d := Day{
		DayNumber:      1,
		Activities:     []Activity{{Title: "a", EstimatedCost: 20}, {Title: "b", EstimatedCost: 30.5}},
		Transportation: &Transportation{Type: "metro", EstimatedCost: 10},
	}
	d.Recompute()
	if d.TotalEstimatedCost != 60.5 {
		t.Fatalf("total: want=60.5 got=%v", d.TotalEstimatedCost)
	}
}

func TestApplyBudgetLabelsDivergentTotal(t *testing.T) {
	days := []Day{{DayNumber: 1, Activities: []Activity{{Title: "x", EstimatedCost: 100}}}}
	supplied := 450.0
	b := ApplyBudget(Budget{}, days, &supplied)
	if b.Basis != BasisAIEstimate || b.TotalEstimated != 450 || b.ComputedTotal != 100 {
		t.Fatalf("unexpected budget: %+v", b)
	}
	same := 100.0
	b = ApplyBudget(Budget{Currency: "EUR"}, days, &same)
	if b.Basis != BasisComputed || b.TotalEstimated != 100 || b.Currency != "EUR" {
		t.Fatalf("unexpected budget: %+v", b)
	}
}

func TestDayValidateRejectsNegativeCost(t *testing.T) {
	d := Day{DayNumber: 1, Activities: []Activity{{Title: "x", EstimatedCost: -1}}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Day{DayNumber: 0}).Validate(); err == nil {
		t.Fatalf("expected error for day_number 0")
	}
}

func TestDayValidateRejectsNonFiniteTransportationCost(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		d := Day{DayNumber: 1, Transportation: &Transportation{Type: "taxi", EstimatedCost: v}}
		if err := d.Validate(); err == nil {
			t.Fatalf("transportation cost %v: expected error", v)
		}
	}
	ok := Day{DayNumber: 1, Transportation: &Transportation{Type: "taxi", EstimatedCost: 12}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("finite cost: %v", err)
	}
}

func TestDurationDaysInclusive(t *testing.T) {
	s := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	if got := DurationDays(s, e); got != 3 {
		t.Fatalf("duration: want=3 got=%d", got)
	}
}
