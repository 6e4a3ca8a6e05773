package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"marketwatch/internal/market"
)

const (
	priceAlertColumns = `id, watchlist_id, price_threshold, price_type, direction, is_active, last_triggered_at, created_at`

	insertPriceAlertSQL = `INSERT INTO price_alerts (watchlist_id, price_threshold, price_type, direction, is_active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING ` + priceAlertColumns + `;`

	listPriceAlertsSQL = `SELECT ` + priceAlertColumns + ` FROM price_alerts
    WHERE ($1::bigint = 0 OR watchlist_id = $1::bigint)
    ORDER BY created_at DESC, id DESC;`

	activePriceAlertsSQL = `SELECT ` + priceAlertColumns + ` FROM price_alerts
    WHERE watchlist_id = $1 AND is_active
    ORDER BY id;`

	deletePriceAlertSQL = `DELETE FROM price_alerts WHERE id = $1;`

	togglePriceAlertSQL = `UPDATE price_alerts SET is_active = NOT is_active WHERE id = $1
    RETURNING ` + priceAlertColumns + `;`

	markPriceAlertTriggeredSQL = `UPDATE price_alerts SET last_triggered_at = $2 WHERE id = $1;`

	percentAlertColumns = `id, watchlist_id, metric_a, metric_b, threshold_pct::text, is_active, last_triggered_at, created_at`

	insertPercentAlertSQL = `INSERT INTO percentage_alerts (watchlist_id, metric_a, metric_b, threshold_pct, is_active)
    VALUES ($1,$2,$3,$4::numeric,$5)
    RETURNING ` + percentAlertColumns + `;`

	listPercentAlertsSQL = `SELECT ` + percentAlertColumns + ` FROM percentage_alerts
    WHERE ($1::bigint = 0 OR watchlist_id = $1::bigint)
    ORDER BY created_at DESC, id DESC;`

	activePercentAlertsSQL = `SELECT ` + percentAlertColumns + ` FROM percentage_alerts
    WHERE watchlist_id = $1 AND is_active
    ORDER BY id;`

	deletePercentAlertSQL = `DELETE FROM percentage_alerts WHERE id = $1;`

	togglePercentAlertSQL = `UPDATE percentage_alerts SET is_active = NOT is_active WHERE id = $1
    RETURNING ` + percentAlertColumns + `;`

	markPercentAlertTriggeredSQL = `UPDATE percentage_alerts SET last_triggered_at = $2 WHERE id = $1;`
)

// AlertStore covers threshold and percentage rules.
type AlertStore interface {
	CreatePriceAlert(ctx context.Context, a market.PriceAlert) (market.PriceAlert, error)
	ListPriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error)
	ActivePriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error)
	DeletePriceAlert(ctx context.Context, id int64) error
	TogglePriceAlert(ctx context.Context, id int64) (market.PriceAlert, error)
	MarkPriceAlertTriggered(ctx context.Context, id int64, at time.Time) error

	CreatePercentageAlert(ctx context.Context, a market.PercentageAlert) (market.PercentageAlert, error)
	ListPercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error)
	ActivePercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error)
	DeletePercentageAlert(ctx context.Context, id int64) error
	TogglePercentageAlert(ctx context.Context, id int64) (market.PercentageAlert, error)
	MarkPercentageAlertTriggered(ctx context.Context, id int64, at time.Time) error
}

func scanPriceAlert(row pgx.Row) (market.PriceAlert, error) {
	var a market.PriceAlert
	var priceType, direction string
	if err := row.Scan(&a.ID, &a.WatchlistID, &a.Threshold, &priceType, &direction, &a.Active, &a.LastTriggeredAt, &a.CreatedAt); err != nil {
		return market.PriceAlert{}, err
	}
	a.PriceType = market.PriceType(priceType)
	a.Direction = market.Direction(direction)
	return a, nil
}

func scanPercentAlert(row pgx.Row) (market.PercentageAlert, error) {
	var a market.PercentageAlert
	var metricA, metricB, threshold string
	if err := row.Scan(&a.ID, &a.WatchlistID, &metricA, &metricB, &threshold, &a.Active, &a.LastTriggeredAt, &a.CreatedAt); err != nil {
		return market.PercentageAlert{}, err
	}
	pct, err := decimal.NewFromString(threshold)
	if err != nil {
		return market.PercentageAlert{}, fmt.Errorf("parse threshold pct: %w", err)
	}
	a.MetricA = market.Metric(metricA)
	a.MetricB = market.Metric(metricB)
	a.ThresholdPct = pct
	return a, nil
}

// CreatePriceAlert inserts a validated threshold rule. A missing watchlist item yields market.ErrNotFound.
func (s *Store) CreatePriceAlert(ctx context.Context, a market.PriceAlert) (market.PriceAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.PriceAlert{}, err
	}
	row := pool.QueryRow(ctx, insertPriceAlertSQL, a.WatchlistID, a.Threshold, string(a.PriceType), string(a.Direction), a.Active)
	created, err := scanPriceAlert(row)
	if err != nil {
		return market.PriceAlert{}, classify("create price alert", err)
	}
	return created, nil
}

// ListPriceAlerts lists threshold rules, optionally for one watchlist item (0 means all).
func (s *Store) ListPriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error) {
	return s.queryPriceAlerts(ctx, listPriceAlertsSQL, watchlistID)
}

// ActivePriceAlerts lists the enabled threshold rules of one item.
func (s *Store) ActivePriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error) {
	return s.queryPriceAlerts(ctx, activePriceAlertsSQL, watchlistID)
}

func (s *Store) queryPriceAlerts(ctx context.Context, sql string, watchlistID int64) ([]market.PriceAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("list price alerts: %w", err)
	}
	defer rows.Close()

	out := make([]market.PriceAlert, 0)
	for rows.Next() {
		a, err := scanPriceAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeletePriceAlert removes a threshold rule.
func (s *Store) DeletePriceAlert(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, deletePriceAlertSQL, id)
	if err != nil {
		return fmt.Errorf("delete price alert: %w", err)
	}
	return requireRow("delete price alert", tag)
}

// TogglePriceAlert flips the active flag of a threshold rule.
func (s *Store) TogglePriceAlert(ctx context.Context, id int64) (market.PriceAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.PriceAlert{}, err
	}
	a, err := scanPriceAlert(pool.QueryRow(ctx, togglePriceAlertSQL, id))
	if err != nil {
		return market.PriceAlert{}, classify("toggle price alert", err)
	}
	return a, nil
}

// MarkPriceAlertTriggered stamps the cooldown anchor after a confirmed dispatch.
func (s *Store) MarkPriceAlertTriggered(ctx context.Context, id int64, at time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, markPriceAlertTriggeredSQL, id, at)
	if err != nil {
		return fmt.Errorf("mark price alert triggered: %w", err)
	}
	return requireRow("mark price alert triggered", tag)
}

// CreatePercentageAlert inserts a validated percentage rule.
func (s *Store) CreatePercentageAlert(ctx context.Context, a market.PercentageAlert) (market.PercentageAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.PercentageAlert{}, err
	}
	row := pool.QueryRow(ctx, insertPercentAlertSQL, a.WatchlistID, string(a.MetricA), string(a.MetricB), a.ThresholdPct.String(), a.Active)
	created, err := scanPercentAlert(row)
	if err != nil {
		return market.PercentageAlert{}, classify("create percentage alert", err)
	}
	return created, nil
}

// ListPercentageAlerts lists percentage rules, optionally for one watchlist item (0 means all).
func (s *Store) ListPercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error) {
	return s.queryPercentAlerts(ctx, listPercentAlertsSQL, watchlistID)
}

// ActivePercentageAlerts lists the enabled percentage rules of one item.
func (s *Store) ActivePercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error) {
	return s.queryPercentAlerts(ctx, activePercentAlertsSQL, watchlistID)
}

func (s *Store) queryPercentAlerts(ctx context.Context, sql string, watchlistID int64) ([]market.PercentageAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("list percentage alerts: %w", err)
	}
	defer rows.Close()

	out := make([]market.PercentageAlert, 0)
	for rows.Next() {
		a, err := scanPercentAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeletePercentageAlert removes a percentage rule.
func (s *Store) DeletePercentageAlert(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, deletePercentAlertSQL, id)
	if err != nil {
		return fmt.Errorf("delete percentage alert: %w", err)
	}
	return requireRow("delete percentage alert", tag)
}

// TogglePercentageAlert flips the active flag of a percentage rule.
func (s *Store) TogglePercentageAlert(ctx context.Context, id int64) (market.PercentageAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.PercentageAlert{}, err
	}
	a, err := scanPercentAlert(pool.QueryRow(ctx, togglePercentAlertSQL, id))
	if err != nil {
		return market.PercentageAlert{}, classify("toggle percentage alert", err)
	}
	return a, nil
}

// MarkPercentageAlertTriggered stamps the cooldown anchor after a confirmed dispatch.
func (s *Store) MarkPercentageAlertTriggered(ctx context.Context, id int64, at time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, markPercentAlertTriggeredSQL, id, at)
	if err != nil {
		return fmt.Errorf("mark percentage alert triggered: %w", err)
	}
	return requireRow("mark percentage alert triggered", tag)
}
