package market

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestCombineTotalAndUnitPrice(t *testing.T) {
	total := CombineTotal(1, 0)
	if total != 100_000_000 {
		t.Fatalf("won=1 yang=0 should be 100000000, got %d", total)
	}
	if got := UnitPrice(total, 1); got != 100_000_000 {
		t.Fatalf("unit price mismatch: %d", got)
	}
	if got := CombineTotal(2, 500); got != 200_000_500 {
		t.Fatalf("unexpected total %d", got)
	}
	if got := UnitPrice(10, 3); got != 3 {
		t.Fatalf("unit price should truncate, got %d", got)
	}
	if got := UnitPrice(10, 0); got != 10 {
		t.Fatalf("zero quantity should be floored to one, got %d", got)
	}
}

func TestComputeStatsExample(t *testing.T) {
	stats, ok := ComputeStats([]int64{300, 100, 500, 200, 400})
	if !ok {
		t.Fatal("expected stats")
	}
	if stats.Min != 100 || stats.AvgBottom20 != 100 || stats.Avg != 300 || stats.Count != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	if _, ok := ComputeStats(nil); ok {
		t.Fatal("empty input must report no data")
	}
}

func TestComputeStatsLargeTotalsDoNotOverflow(t *testing.T) {
	top := int64(math.MaxInt64)
	stats, ok := ComputeStats([]int64{top, top - 2, top - 4, top - 6, top - 8})
	if !ok {
		t.Fatal("expected stats")
	}
	if stats.Avg != top-4 {
		t.Fatalf("avg should be %d, got %d", top-4, stats.Avg)
	}
	if stats.AvgBottom20 != top-8 || stats.Min != top-8 {
		t.Fatalf("unexpected bottom stats %+v", stats)
	}

	// Truncation matches integer division for ordinary inputs.
	small, _ := ComputeStats([]int64{1, 2})
	if small.Avg != 1 {
		t.Fatalf("avg of 1,2 truncates to 1, got %d", small.Avg)
	}
}

func TestComputeStatsOrdering(t *testing.T) {
	prices := []int64{9, 1, 7, 3, 3, 12, 40, 2, 8, 5, 6}
	stats, _ := ComputeStats(prices)
	if BottomCount(len(prices)) != 2 {
		t.Fatalf("bottom count for 11 should be 2")
	}
	if stats.AvgBottom20 != 1 {
		t.Fatalf("avg of lowest two (1,2) truncates to 1, got %d", stats.AvgBottom20)
	}
	if !(stats.Min <= stats.AvgBottom20 && stats.AvgBottom20 <= stats.Avg) {
		t.Fatalf("ordering violated: %+v", stats)
	}
	if prices[0] != 9 {
		t.Fatal("input slice must not be reordered")
	}
}

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"min", "avg_bottom20", "avg"} {
		if _, err := ParseMetric(name); err != nil {
			t.Fatalf("%s should be valid: %v", name, err)
		}
	}
	if _, err := ParseMetric("median"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown metric should be a validation error, got %v", err)
	}
}

func TestValidatePercentageRule(t *testing.T) {
	if _, _, err := ValidatePercentageRule("min", "min", 10); !errors.Is(err, ErrValidation) {
		t.Fatal("equal metrics must be rejected")
	}
	if _, _, err := ValidatePercentageRule("min", "max", 10); !errors.Is(err, ErrValidation) {
		t.Fatal("unknown metric must be rejected")
	}
	a, b, err := ValidatePercentageRule("min", "avg", 50)
	if err != nil || a != MetricMin || b != MetricAvg {
		t.Fatalf("valid rule rejected: %v", err)
	}
}

func TestPercentageDeviationExample(t *testing.T) {
	rule, err := NewPercentageAlert(1, "min", "avg", 50)
	if err != nil {
		t.Fatal(err)
	}
	_, _, pct, ok := rule.Deviation(Stats{Min: 100, AvgBottom20: 100, Avg: 300, Count: 5})
	if !ok {
		t.Fatal("deviation should be available")
	}
	if pct.Round(1).String() != "66.7" {
		t.Fatalf("expected 66.7, got %s", pct.StringFixed(3))
	}
	if !rule.Fires(pct) {
		t.Fatal("66.7% should reach a 50% threshold")
	}
}

func TestPercentageDeviationZeroDenominator(t *testing.T) {
	rule, _ := NewPercentageAlert(1, "avg", "min", 1)
	if _, _, _, ok := rule.Deviation(Stats{Min: 0, Avg: 10}); ok {
		t.Fatal("zero denominator must be skipped")
	}
}

func TestPriceAlertCrossed(t *testing.T) {
	below, _ := NewPriceAlert(1, 100, "", "")
	if below.Direction != DirectionBelow || below.PriceType != PriceTypeYang {
		t.Fatalf("defaults not applied: %+v", below)
	}
	if !below.Crossed(100) || below.Crossed(101) {
		t.Fatal("below threshold is inclusive")
	}
	above, _ := NewPriceAlert(1, 100, "won", "above")
	if !above.Crossed(100) || above.Crossed(99) {
		t.Fatal("above threshold is inclusive")
	}
	if _, err := NewPriceAlert(1, 100, "gold", "below"); !errors.Is(err, ErrValidation) {
		t.Fatal("unknown price type must be rejected")
	}
}

func TestCoolingDown(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-29 * time.Minute)
	if !CoolingDown(&last, now, 30*time.Minute) {
		t.Fatal("29 minutes ago should still be cooling down")
	}
	last = now.Add(-30 * time.Minute)
	if CoolingDown(&last, now, 30*time.Minute) {
		t.Fatal("cooldown ends at exactly the window")
	}
	if CoolingDown(nil, now, 30*time.Minute) {
		t.Fatal("never triggered rules are not cooling down")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1.000", 1234567: "1.234.567", -45000: "-45.000"}
	for in, want := range cases {
		if got := FormatThousands(in); got != want {
			t.Fatalf("FormatThousands(%d) = %q, want %q", in, got, want)
		}
	}
	if got := FormatPrice(150_000_000, PriceTypeWon); got != "1,50 Won" {
		t.Fatalf("unexpected won rendering %q", got)
	}
	if got := FormatPrice(123_456_789_000, PriceTypeWon); got != "1.234,56 Won" {
		t.Fatalf("unexpected won rendering %q", got)
	}
	if got := FormatPrice(5_000_000, PriceTypeYang); got != "5.000.000 Yang" {
		t.Fatalf("unexpected yang rendering %q", got)
	}
}

func TestCheckLegacyRows(t *testing.T) {
	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	before := []PricePoint{
		{Timestamp: first.Add(-time.Hour), Avg: 10, Min: 5},
		{Avg: 8, Min: 4},
	}
	if err := CheckLegacyRows(before, first); err != nil {
		t.Fatalf("rows before the first snapshot must pass: %v", err)
	}

	overlapping := append(before, PricePoint{Timestamp: first, Avg: 9, Min: 3})
	if err := CheckLegacyRows(overlapping, first); !errors.Is(err, ErrConflict) {
		t.Fatalf("row at the first snapshot must conflict, got %v", err)
	}

	later := []PricePoint{{Timestamp: first.Add(24 * time.Hour)}}
	if err := CheckLegacyRows(later, time.Time{}); err != nil {
		t.Fatalf("items without snapshots accept any row: %v", err)
	}
}
