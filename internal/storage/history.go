package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"marketwatch/internal/market"
)

const (
	snapshotsForItemSQL = `SELECT
        ls.id,
        ls.item_name,
        ls.seller_name,
        ls.server_name,
        ls.quantity,
        ls.price_won,
        ls.price_yang,
        ls.total_price_yang,
        ls.unit_price,
        ls.scraped_at
    FROM listing_snapshots ls
    WHERE ls.item_name = $1
      AND NOT EXISTS (SELECT 1 FROM fake_sellers f WHERE f.seller_name = ls.seller_name)
    ORDER BY ls.scraped_at ASC, ls.id ASC;`

	legacyHistorySQL = `SELECT
        "timestamp",
        avg_unit_price,
        min_unit_price,
        avg_bottom20_price,
        total_listings
    FROM price_history
    WHERE item_name = $1
    ORDER BY "timestamp" ASC NULLS FIRST, id ASC;`

	earliestSnapshotSQL = `SELECT min(ls.scraped_at)
    FROM listing_snapshots ls
    WHERE ls.item_name = $1
      AND NOT EXISTS (SELECT 1 FROM fake_sellers f WHERE f.seller_name = ls.seller_name);`

	deleteSnapshotsBeforeSQL = `DELETE FROM listing_snapshots WHERE scraped_at < $1;`
)

// HistoryStore covers snapshot and legacy aggregate reads plus retention.
type HistoryStore interface {
	SnapshotsForItem(ctx context.Context, itemName string) ([]market.Snapshot, error)
	LegacyHistory(ctx context.Context, itemName string) ([]market.PricePoint, error)
	EarliestSnapshot(ctx context.Context, itemName string) (time.Time, error)
	ImportLegacyHistory(ctx context.Context, itemName string, points []market.PricePoint) (int64, error)
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SnapshotsForItem returns every retained snapshot of an exact item name, flagged sellers excluded,
// in ascending capture order.
func (s *Store) SnapshotsForItem(ctx context.Context, itemName string) ([]market.Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, snapshotsForItemSQL, itemName)
	if err != nil {
		return nil, fmt.Errorf("snapshots for item: %w", err)
	}
	defer rows.Close()

	out := make([]market.Snapshot, 0)
	for rows.Next() {
		var sn market.Snapshot
		if err := rows.Scan(
			&sn.ID,
			&sn.ItemName,
			&sn.Seller,
			&sn.ServerName,
			&sn.Quantity,
			&sn.PriceWon,
			&sn.PriceYang,
			&sn.Total,
			&sn.UnitPrice,
			&sn.ScrapedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

// LegacyHistory returns the pre-snapshot aggregate rows of an item. Rows without a
// timestamp come back with a zero Timestamp.
func (s *Store) LegacyHistory(ctx context.Context, itemName string) ([]market.PricePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, legacyHistorySQL, itemName)
	if err != nil {
		return nil, fmt.Errorf("legacy history: %w", err)
	}
	defer rows.Close()

	out := make([]market.PricePoint, 0)
	for rows.Next() {
		var (
			p  market.PricePoint
			ts *time.Time
		)
		if err := rows.Scan(&ts, &p.Avg, &p.Min, &p.AvgBottom20, &p.TotalListings); err != nil {
			return nil, err
		}
		if ts != nil {
			p.Timestamp = *ts
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EarliestSnapshot returns the capture time of the first snapshot of an item, flagged sellers
// excluded, or the zero time when there is none.
func (s *Store) EarliestSnapshot(ctx context.Context, itemName string) (time.Time, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, err
	}
	return earliestSnapshot(ctx, pool, itemName)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func earliestSnapshot(ctx context.Context, q rowQuerier, itemName string) (time.Time, error) {
	var first *time.Time
	if err := q.QueryRow(ctx, earliestSnapshotSQL, itemName).Scan(&first); err != nil {
		return time.Time{}, fmt.Errorf("earliest snapshot: %w", err)
	}
	if first == nil {
		return time.Time{}, nil
	}
	return *first, nil
}

// ImportLegacyHistory appends point-in-time aggregate rows for an item in one transaction.
// Legacy rows are read-only once snapshots exist: when any row is not strictly before the
// item's first snapshot nothing is written and market.ErrConflict is returned.
func (s *Store) ImportLegacyHistory(ctx context.Context, itemName string, points []market.PricePoint) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin legacy import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, err := earliestSnapshot(ctx, tx, itemName)
	if err != nil {
		return 0, err
	}
	if err := market.CheckLegacyRows(points, first); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(points))
	for _, p := range points {
		var ts *time.Time
		if !p.Timestamp.IsZero() {
			t := p.Timestamp
			ts = &t
		}
		rows = append(rows, []any{itemName, p.Avg, p.Min, p.AvgBottom20, p.TotalListings, ts})
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"price_history"},
		[]string{"item_name", "avg_unit_price", "min_unit_price", "avg_bottom20_price", "total_listings", "timestamp"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy legacy history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit legacy import: %w", err)
	}
	return n, nil
}

// DeleteSnapshotsBefore prunes snapshots captured before cutoff and reports how many were removed.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, err := pool.Exec(ctx, deleteSnapshotsBeforeSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
