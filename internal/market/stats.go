package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Metric names an aggregate value usable in percentage rules.
type Metric string

const (
	MetricMin         Metric = "min"
	MetricAvgBottom20 Metric = "avg_bottom20"
	MetricAvg         Metric = "avg"
)

// Metrics lists every recognised metric in display order.
var Metrics = []Metric{MetricMin, MetricAvgBottom20, MetricAvg}

// ParseMetric rejects names outside the recognised set.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.TrimSpace(name))
	switch m {
	case MetricMin, MetricAvgBottom20, MetricAvg:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q, must be one of min, avg_bottom20, avg", ErrValidation, name)
}

// Label is the human readable metric name used in notifications.
func (m Metric) Label() string {
	switch m {
	case MetricMin:
		return "Min"
	case MetricAvgBottom20:
		return "Ø Bottom 20%"
	case MetricAvg:
		return "Ø All"
	default:
		return string(m)
	}
}

// Stats holds the aggregate unit prices of one sample.
type Stats struct {
	Min         int64 `json:"min"`
	AvgBottom20 int64 `json:"avg_bottom20"`
	Avg         int64 `json:"avg"`
	Count       int   `json:"total_listings"`
}

// Value returns the named metric. ok is false for unknown names.
func (s Stats) Value(m Metric) (int64, bool) {
	switch m {
	case MetricMin:
		return s.Min, true
	case MetricAvgBottom20:
		return s.AvgBottom20, true
	case MetricAvg:
		return s.Avg, true
	}
	return 0, false
}

// BottomCount is the size of the lowest-20% slice for n samples, never below one.
func BottomCount(n int) int {
	c := n / 5
	if c < 1 {
		c = 1
	}
	return c
}

// ComputeStats aggregates unit prices. The input is not modified.
// ok is false when prices is empty.
func ComputeStats(prices []int64) (Stats, bool) {
	if len(prices) == 0 {
		return Stats{}, false
	}

	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	bottom := BottomCount(len(sorted))
	return Stats{
		Min:         sorted[0],
		AvgBottom20: truncatedMean(sorted[:bottom]),
		Avg:         truncatedMean(sorted),
		Count:       len(sorted),
	}, true
}

// truncatedMean sums in decimal so won-sized totals cannot overflow int64; the mean of
// int64 values always fits back.
func truncatedMean(values []int64) int64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(v))
	}
	q, _ := sum.QuoRem(decimal.NewFromInt(int64(len(values))), 0)
	return q.IntPart()
}
