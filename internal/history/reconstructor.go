// Package history rebuilds per-item price series from legacy aggregates and raw snapshots.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"marketwatch/internal/market"
)

// Source loads the raw inputs of a series.
type Source interface {
	SnapshotsForItem(ctx context.Context, itemName string) ([]market.Snapshot, error)
	LegacyHistory(ctx context.Context, itemName string) ([]market.PricePoint, error)
}

// Reconstructor assembles the series on every call; nothing is cached.
type Reconstructor struct {
	source Source
}

// NewReconstructor wires a history source.
func NewReconstructor(source Source) *Reconstructor {
	return &Reconstructor{source: source}
}

// Reconstruct returns the merged series for an exact item name.
func (r *Reconstructor) Reconstruct(ctx context.Context, itemName string) ([]market.PricePoint, error) {
	snaps, err := r.source.SnapshotsForItem(ctx, itemName)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	legacy, err := r.source.LegacyHistory(ctx, itemName)
	if err != nil {
		return nil, fmt.Errorf("load legacy history: %w", err)
	}
	return Merge(legacy, snaps), nil
}

// Merge combines legacy rows with minute-bucketed snapshot aggregates. Legacy rows at or after
// the earliest snapshot are dropped so no period is counted twice; legacy rows without a
// timestamp are kept and sort first.
func Merge(legacy []market.PricePoint, snaps []market.Snapshot) []market.PricePoint {
	var earliest time.Time
	for _, s := range snaps {
		if s.ScrapedAt.IsZero() {
			continue
		}
		if earliest.IsZero() || s.ScrapedAt.Before(earliest) {
			earliest = s.ScrapedAt
		}
	}

	out := make([]market.PricePoint, 0, len(legacy))
	for _, p := range legacy {
		if !earliest.IsZero() && !p.Timestamp.IsZero() && !p.Timestamp.Before(earliest) {
			continue
		}
		out = append(out, p)
	}

	out = append(out, Bucket(snaps)...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Bucket groups snapshots by capture time truncated to the minute and aggregates each group.
func Bucket(snaps []market.Snapshot) []market.PricePoint {
	if len(snaps) == 0 {
		return nil
	}

	groups := make(map[time.Time][]int64)
	keys := make([]time.Time, 0)
	for _, s := range snaps {
		key := s.ScrapedAt.Truncate(time.Minute)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], s.UnitPrice)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]market.PricePoint, 0, len(keys))
	for _, k := range keys {
		stats, ok := market.ComputeStats(groups[k])
		if !ok {
			continue
		}
		bottom := stats.AvgBottom20
		points = append(points, market.PricePoint{
			Timestamp:     k,
			Avg:           stats.Avg,
			Min:           stats.Min,
			AvgBottom20:   &bottom,
			TotalListings: stats.Count,
		})
	}
	return points
}
