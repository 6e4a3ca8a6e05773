// Package alerting evaluates watchlist rules and dispatches notifications.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/market"
)

// Rule kinds reported to the recorder.
const (
	KindThreshold  = "threshold"
	KindPercentage = "percentage"
)

// RuleStore loads active rules and stamps them after a confirmed dispatch.
type RuleStore interface {
	ActivePriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error)
	ActivePercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error)
	MarkPriceAlertTriggered(ctx context.Context, id int64, at time.Time) error
	MarkPercentageAlertTriggered(ctx context.Context, id int64, at time.Time) error
}

// SinkStore yields the active notification credentials, if any.
type SinkStore interface {
	ActiveTelegramSettings(ctx context.Context) (market.TelegramSettings, bool, error)
}

// StatsSource computes current aggregates for a watchlist query.
type StatsSource interface {
	Compute(ctx context.Context, query, server string) (market.Stats, error)
}

// Recorder observes dispatch outcomes.
type Recorder interface {
	AlertDispatched(kind string)
	AlertFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) AlertDispatched(string) {}
func (nopRecorder) AlertFailed(string)     {}

// Evaluator checks the rules of one watchlist item against current aggregates.
type Evaluator struct {
	rules    RuleStore
	sink     SinkStore
	stats    StatsSource
	notifier Notifier
	fallback *market.TelegramSettings
	cooldown time.Duration
	recorder Recorder
	now      func() time.Time
	logger   zerolog.Logger
}

// NewEvaluator wires the evaluator. fallback is used when no settings row is active; nil disables it.
func NewEvaluator(rules RuleStore, sink SinkStore, stats StatsSource, notifier Notifier, fallback *market.TelegramSettings, cooldown time.Duration, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		rules:    rules,
		sink:     sink,
		stats:    stats,
		notifier: notifier,
		fallback: fallback,
		cooldown: cooldown,
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("component", "evaluator").Logger(),
	}
}

// SetRecorder attaches dispatch metrics.
func (e *Evaluator) SetRecorder(r Recorder) {
	if r != nil {
		e.recorder = r
	}
}

// SetClock overrides the time source.
func (e *Evaluator) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Credentials resolves the sink to use. ok is false when none is configured.
func (e *Evaluator) Credentials(ctx context.Context) (market.TelegramSettings, bool, error) {
	if e.sink != nil {
		creds, ok, err := e.sink.ActiveTelegramSettings(ctx)
		if err != nil {
			return market.TelegramSettings{}, false, fmt.Errorf("load telegram settings: %w", err)
		}
		if ok {
			return creds, true, nil
		}
	}
	if e.fallback != nil {
		return *e.fallback, true, nil
	}
	return market.TelegramSettings{}, false, nil
}

// Evaluate runs both rule kinds for item and returns how many notifications were sent.
// A missing sink or an item without listings is not an error. Individual dispatch
// failures are logged and never abort sibling rules.
func (e *Evaluator) Evaluate(ctx context.Context, item market.WatchlistItem) (int, error) {
	log := e.logger.With().Int64("watchlist_id", item.ID).Str("query", item.Query).Str("server", item.ServerName).Logger()

	creds, ok, err := e.Credentials(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		log.Debug().Msg("no active notification sink; skipping evaluation")
		return 0, nil
	}

	priceAlerts, err := e.rules.ActivePriceAlerts(ctx, item.ID)
	if err != nil {
		return 0, fmt.Errorf("load price alerts: %w", err)
	}
	pctAlerts, err := e.rules.ActivePercentageAlerts(ctx, item.ID)
	if err != nil {
		return 0, fmt.Errorf("load percentage alerts: %w", err)
	}
	if len(priceAlerts) == 0 && len(pctAlerts) == 0 {
		return 0, nil
	}

	stats, err := e.stats.Compute(ctx, item.Query, item.ServerName)
	if errors.Is(err, market.ErrNoData) {
		log.Debug().Msg("no live listings; skipping evaluation")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("compute aggregates: %w", err)
	}

	dispatched := 0
	for _, alert := range priceAlerts {
		if e.evaluateThreshold(ctx, log, creds, item, stats, alert) {
			dispatched++
		}
	}
	for _, alert := range pctAlerts {
		if e.evaluatePercentage(ctx, log, creds, item, stats, alert) {
			dispatched++
		}
	}
	return dispatched, nil
}

func (e *Evaluator) evaluateThreshold(ctx context.Context, log zerolog.Logger, creds market.TelegramSettings, item market.WatchlistItem, stats market.Stats, alert market.PriceAlert) bool {
	current := stats.Min
	if !alert.Crossed(current) {
		return false
	}
	now := e.now()
	if market.CoolingDown(alert.LastTriggeredAt, now, e.cooldown) {
		log.Debug().Int64("alert_id", alert.ID).Msg("threshold alert cooling down")
		return false
	}

	text := ThresholdMessage(item.Query, current, alert, now)
	if err := e.notifier.Send(ctx, creds, text); err != nil {
		e.recorder.AlertFailed(KindThreshold)
		log.Warn().Err(err).Int64("alert_id", alert.ID).Msg("threshold alert dispatch failed")
		return false
	}
	e.recorder.AlertDispatched(KindThreshold)

	if err := e.rules.MarkPriceAlertTriggered(ctx, alert.ID, now); err != nil {
		log.Error().Err(err).Int64("alert_id", alert.ID).Msg("failed to stamp threshold alert")
	}
	log.Info().Int64("alert_id", alert.ID).
		Int64("current", current).
		Int64("threshold", alert.Threshold).
		Str("direction", string(alert.Direction)).
		Msg("threshold alert sent")
	return true
}

func (e *Evaluator) evaluatePercentage(ctx context.Context, log zerolog.Logger, creds market.TelegramSettings, item market.WatchlistItem, stats market.Stats, alert market.PercentageAlert) bool {
	valueA, valueB, pct, ok := alert.Deviation(stats)
	if !ok || !alert.Fires(pct) {
		return false
	}
	now := e.now()
	if market.CoolingDown(alert.LastTriggeredAt, now, e.cooldown) {
		log.Debug().Int64("alert_id", alert.ID).Msg("percentage alert cooling down")
		return false
	}

	text := DeviationMessage(item.Query, alert, valueA, valueB, pct, now)
	if err := e.notifier.Send(ctx, creds, text); err != nil {
		e.recorder.AlertFailed(KindPercentage)
		log.Warn().Err(err).Int64("alert_id", alert.ID).Msg("percentage alert dispatch failed")
		return false
	}
	e.recorder.AlertDispatched(KindPercentage)

	if err := e.rules.MarkPercentageAlertTriggered(ctx, alert.ID, now); err != nil {
		log.Error().Err(err).Int64("alert_id", alert.ID).Msg("failed to stamp percentage alert")
	}
	log.Info().Int64("alert_id", alert.ID).
		Str("deviation_pct", pct.StringFixed(1)).
		Str("threshold_pct", alert.ThresholdPct.String()).
		Msg("percentage alert sent")
	return true
}
