package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"marketwatch/internal/market"
)

const (
	watchlistColumns = `id, query, server_name, is_active, interval_minutes, last_scraped_at, created_at`

	insertWatchlistSQL = `INSERT INTO watchlist (query, server_name, is_active, interval_minutes)
    VALUES ($1,$2,$3,$4)
    RETURNING ` + watchlistColumns + `;`

	seedWatchlistSQL = `INSERT INTO watchlist (query, server_name, interval_minutes)
    SELECT $1::text, $2::text, $3::int
    WHERE NOT EXISTS (SELECT 1 FROM watchlist)
    ON CONFLICT (query, server_name) DO NOTHING;`

	listWatchlistSQL = `SELECT ` + watchlistColumns + ` FROM watchlist ORDER BY created_at DESC, id DESC;`

	listActiveWatchlistSQL = `SELECT ` + watchlistColumns + ` FROM watchlist WHERE is_active ORDER BY id;`

	getWatchlistSQL = `SELECT ` + watchlistColumns + ` FROM watchlist WHERE id = $1;`

	deleteWatchlistSQL = `DELETE FROM watchlist WHERE id = $1;`

	toggleWatchlistSQL = `UPDATE watchlist SET is_active = NOT is_active WHERE id = $1
    RETURNING ` + watchlistColumns + `;`

	markScrapedSQL = `UPDATE watchlist SET last_scraped_at = $2 WHERE id = $1;`
)

// WatchlistStore covers tracked (query, server) pairs.
type WatchlistStore interface {
	CreateWatchlistItem(ctx context.Context, item market.WatchlistItem) (market.WatchlistItem, error)
	SeedWatchlist(ctx context.Context, query, server string, intervalMinutes int) (bool, error)
	ListWatchlist(ctx context.Context) ([]market.WatchlistItem, error)
	ActiveWatchlist(ctx context.Context) ([]market.WatchlistItem, error)
	GetWatchlistItem(ctx context.Context, id int64) (market.WatchlistItem, error)
	DeleteWatchlistItem(ctx context.Context, id int64) error
	ToggleWatchlistItem(ctx context.Context, id int64) (market.WatchlistItem, error)
	MarkScraped(ctx context.Context, id int64, at time.Time) error
}

func scanWatchlist(row pgx.Row) (market.WatchlistItem, error) {
	var w market.WatchlistItem
	err := row.Scan(&w.ID, &w.Query, &w.ServerName, &w.Active, &w.IntervalMinutes, &w.LastScrapedAt, &w.CreatedAt)
	return w, err
}

// CreateWatchlistItem inserts a tracked pair. A duplicate (query, server) yields market.ErrConflict.
func (s *Store) CreateWatchlistItem(ctx context.Context, item market.WatchlistItem) (market.WatchlistItem, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.WatchlistItem{}, err
	}
	row := pool.QueryRow(ctx, insertWatchlistSQL, item.Query, item.ServerName, item.Active, item.IntervalMinutes)
	created, err := scanWatchlist(row)
	if err != nil {
		return market.WatchlistItem{}, classify("create watchlist item", err)
	}
	return created, nil
}

// SeedWatchlist inserts the default pair only when the table is empty. It reports whether a row was added.
func (s *Store) SeedWatchlist(ctx context.Context, query, server string, intervalMinutes int) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	tag, err := pool.Exec(ctx, seedWatchlistSQL, query, server, intervalMinutes)
	if err != nil {
		return false, classify("seed watchlist", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListWatchlist returns every watchlist item, newest first.
func (s *Store) ListWatchlist(ctx context.Context) ([]market.WatchlistItem, error) {
	return s.queryWatchlist(ctx, listWatchlistSQL)
}

// ActiveWatchlist returns the items the scheduler evaluates.
func (s *Store) ActiveWatchlist(ctx context.Context) ([]market.WatchlistItem, error) {
	return s.queryWatchlist(ctx, listActiveWatchlistSQL)
}

func (s *Store) queryWatchlist(ctx context.Context, sql string) ([]market.WatchlistItem, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]market.WatchlistItem, 0)
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// GetWatchlistItem loads one item.
func (s *Store) GetWatchlistItem(ctx context.Context, id int64) (market.WatchlistItem, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.WatchlistItem{}, err
	}
	w, err := scanWatchlist(pool.QueryRow(ctx, getWatchlistSQL, id))
	if err != nil {
		return market.WatchlistItem{}, classify("get watchlist item", err)
	}
	return w, nil
}

// DeleteWatchlistItem removes an item together with its rules.
func (s *Store) DeleteWatchlistItem(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, deleteWatchlistSQL, id)
	if err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}
	return requireRow("delete watchlist item", tag)
}

// ToggleWatchlistItem flips the active flag.
func (s *Store) ToggleWatchlistItem(ctx context.Context, id int64) (market.WatchlistItem, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.WatchlistItem{}, err
	}
	w, err := scanWatchlist(pool.QueryRow(ctx, toggleWatchlistSQL, id))
	if err != nil {
		return market.WatchlistItem{}, classify("toggle watchlist item", err)
	}
	return w, nil
}

// MarkScraped stamps the last successful ingestion time of an item.
func (s *Store) MarkScraped(ctx context.Context, id int64, at time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, markScrapedSQL, id, at)
	if err != nil {
		return fmt.Errorf("mark scraped: %w", err)
	}
	return requireRow("mark scraped", tag)
}
