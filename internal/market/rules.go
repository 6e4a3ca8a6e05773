package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction selects which side of a threshold fires.
type Direction string

const (
	DirectionBelow Direction = "below"
	DirectionAbove Direction = "above"
)

// PriceType selects the denomination a threshold is displayed in.
// Comparison always happens in the combined unit.
type PriceType string

const (
	PriceTypeYang PriceType = "yang"
	PriceTypeWon  PriceType = "won"
)

// PriceAlert is a threshold rule on the minimum unit price.
type PriceAlert struct {
	ID              int64      `json:"id"`
	WatchlistID     int64      `json:"watchlist_id"`
	Threshold       int64      `json:"price_threshold"`
	PriceType       PriceType  `json:"price_type"`
	Direction       Direction  `json:"direction"`
	Active          bool       `json:"is_active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewPriceAlert validates a threshold rule. Empty price type and direction default to yang and below.
func NewPriceAlert(watchlistID, threshold int64, priceType, direction string) (PriceAlert, error) {
	if watchlistID <= 0 {
		return PriceAlert{}, fmt.Errorf("%w: watchlist id is required", ErrValidation)
	}
	if threshold <= 0 {
		return PriceAlert{}, fmt.Errorf("%w: threshold must be positive", ErrValidation)
	}

	pt := PriceType(strings.ToLower(strings.TrimSpace(priceType)))
	switch pt {
	case "":
		pt = PriceTypeYang
	case PriceTypeYang, PriceTypeWon:
	default:
		return PriceAlert{}, fmt.Errorf("%w: price type %q must be yang or won", ErrValidation, priceType)
	}

	dir := Direction(strings.ToLower(strings.TrimSpace(direction)))
	switch dir {
	case "":
		dir = DirectionBelow
	case DirectionBelow, DirectionAbove:
	default:
		return PriceAlert{}, fmt.Errorf("%w: direction %q must be below or above", ErrValidation, direction)
	}

	return PriceAlert{
		WatchlistID: watchlistID,
		Threshold:   threshold,
		PriceType:   pt,
		Direction:   dir,
		Active:      true,
	}, nil
}

// Crossed reports whether current satisfies the rule.
func (a PriceAlert) Crossed(current int64) bool {
	switch a.Direction {
	case DirectionBelow:
		return current <= a.Threshold
	case DirectionAbove:
		return current >= a.Threshold
	}
	return false
}

// PercentageAlert fires when two metrics of the same sample drift apart.
type PercentageAlert struct {
	ID              int64           `json:"id"`
	WatchlistID     int64           `json:"watchlist_id"`
	MetricA         Metric          `json:"metric_a"`
	MetricB         Metric          `json:"metric_b"`
	ThresholdPct    decimal.Decimal `json:"threshold_pct"`
	Active          bool            `json:"is_active"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ValidatePercentageRule is the single gate for every percentage-rule creation path.
func ValidatePercentageRule(metricA, metricB string, thresholdPct float64) (Metric, Metric, error) {
	a, err := ParseMetric(metricA)
	if err != nil {
		return "", "", err
	}
	b, err := ParseMetric(metricB)
	if err != nil {
		return "", "", err
	}
	if a == b {
		return "", "", fmt.Errorf("%w: metric_a and metric_b must be different", ErrValidation)
	}
	if thresholdPct < 0 {
		return "", "", fmt.Errorf("%w: threshold_pct must not be negative", ErrValidation)
	}
	return a, b, nil
}

// NewPercentageAlert builds a validated percentage rule.
func NewPercentageAlert(watchlistID int64, metricA, metricB string, thresholdPct float64) (PercentageAlert, error) {
	if watchlistID <= 0 {
		return PercentageAlert{}, fmt.Errorf("%w: watchlist id is required", ErrValidation)
	}
	a, b, err := ValidatePercentageRule(metricA, metricB, thresholdPct)
	if err != nil {
		return PercentageAlert{}, err
	}
	return PercentageAlert{
		WatchlistID:  watchlistID,
		MetricA:      a,
		MetricB:      b,
		ThresholdPct: decimal.NewFromFloat(thresholdPct),
		Active:       true,
	}, nil
}

var hundred = decimal.NewFromInt(100)

// Deviation computes |a-b|/b*100. ok is false when either metric is missing or b is zero.
func (a PercentageAlert) Deviation(stats Stats) (valueA, valueB int64, pct decimal.Decimal, ok bool) {
	valueA, okA := stats.Value(a.MetricA)
	valueB, okB := stats.Value(a.MetricB)
	if !okA || !okB || valueB == 0 {
		return 0, 0, decimal.Zero, false
	}
	diff := decimal.NewFromInt(valueA - valueB).Abs()
	pct = diff.Div(decimal.NewFromInt(valueB)).Mul(hundred)
	return valueA, valueB, pct, true
}

// Fires reports whether the deviation reaches the configured threshold.
func (a PercentageAlert) Fires(pct decimal.Decimal) bool {
	return pct.GreaterThanOrEqual(a.ThresholdPct)
}

// CoolingDown reports whether a rule last triggered at last is still inside the window.
func CoolingDown(last *time.Time, now time.Time, window time.Duration) bool {
	if last == nil || window <= 0 {
		return false
	}
	return now.Sub(*last) < window
}
