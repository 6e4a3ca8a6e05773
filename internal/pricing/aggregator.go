// Package pricing computes aggregate unit prices over live listings.
package pricing

import (
	"context"
	"fmt"

	"marketwatch/internal/market"
)

// PriceSource yields unit prices of live listings whose item name contains query,
// with flagged sellers already excluded. An empty server matches all servers.
type PriceSource interface {
	LiveUnitPrices(ctx context.Context, query, server string) ([]int64, error)
}

// Aggregator computes min, bottom-20% average and overall average for a name query.
type Aggregator struct {
	source PriceSource
}

// NewAggregator wires a price source.
func NewAggregator(source PriceSource) *Aggregator {
	return &Aggregator{source: source}
}

// Compute returns the aggregates for query. Unit prices are taken as stored, so a live read and a
// history bucket over the same listings agree. market.ErrNoData is returned when nothing matches.
func (a *Aggregator) Compute(ctx context.Context, query, server string) (market.Stats, error) {
	prices, err := a.source.LiveUnitPrices(ctx, query, server)
	if err != nil {
		return market.Stats{}, fmt.Errorf("load unit prices: %w", err)
	}

	stats, ok := market.ComputeStats(prices)
	if !ok {
		return market.Stats{}, fmt.Errorf("%w: no live listings match %q", market.ErrNoData, query)
	}
	return stats, nil
}
