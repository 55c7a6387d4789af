package itinerary

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Recompute sets the day total from its line items.
func (d *Day) Recompute() {
	total := 0.0
	for _, a := range d.Activities {
		total += a.EstimatedCost
	}
	if d.Transportation != nil {
		total += d.Transportation.EstimatedCost
	}
	d.TotalEstimatedCost = round2(total)
}

// Validate checks the invariants of a single day.
func (d Day) Validate() error {
	if d.DayNumber < 1 {
		return fmt.Errorf("day_number must be >= 1")
	}
	for i, a := range d.Activities {
		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("day %d activity %d: title required", d.DayNumber, i+1)
		}
		if !validCost(a.EstimatedCost) {
			return fmt.Errorf("day %d activity %d: estimated_cost must be >= 0", d.DayNumber, i+1)
		}
	}
	if d.Transportation != nil && !validCost(d.Transportation.EstimatedCost) {
		return fmt.Errorf("day %d: transportation estimated_cost must be >= 0", d.DayNumber)
	}
	return nil
}

func validCost(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RecomputeAll recomputes every day total and returns the trip total.
func RecomputeAll(days []Day) float64 {
	total := 0.0
	for i := range days {
		days[i].Recompute()
		total += days[i].TotalEstimatedCost
	}
	return round2(total)
}

// ApplyBudget recomputes totals and reconciles the budget label. A caller
// supplied total that differs from the computed one is kept as ai_estimate.
func ApplyBudget(b Budget, days []Day, suppliedTotal *float64) Budget {
	computed := RecomputeAll(days)
	b.ComputedTotal = computed
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if suppliedTotal != nil && *suppliedTotal >= 0 && math.Abs(*suppliedTotal-computed) >= 0.01 {
		b.TotalEstimated = round2(*suppliedTotal)
		b.Basis = BasisAIEstimate
		return b
	}
	b.TotalEstimated = computed
	b.Basis = BasisComputed
	return b
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// DurationDays returns the inclusive day count between start and end.
func DurationDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
