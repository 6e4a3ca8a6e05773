package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"marketwatch/internal/market"
)

const (
	upsertServerSQL = `INSERT INTO servers (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id;`

	deleteServerListingsSQL = `DELETE FROM listings WHERE server_id = $1;`

	insertMissingItemsSQL = `INSERT INTO items (name, category)
    SELECT n, 'General' FROM unnest($1::text[]) AS n
    ON CONFLICT (name) DO NOTHING;`

	selectItemIDsSQL = `SELECT id, name FROM items WHERE name = ANY($1::text[]);`

	insertListingSQL = `INSERT INTO listings (
        server_id,
        item_id,
        seller_name,
        quantity,
        price_won,
        price_yang,
        total_price_yang,
        seen_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id;`

	listListingsSQL = `SELECT
        l.id,
        s.name,
        i.id,
        i.name,
        i.category,
        i.image_url,
        l.seller_name,
        l.quantity,
        l.price_won,
        l.price_yang,
        l.total_price_yang,
        l.seen_at
    FROM listings l
    JOIN servers s ON s.id = l.server_id
    JOIN items i ON i.id = l.item_id
    WHERE ($1::text = '' OR s.name = $1::text)
      AND ($2::text = '' OR strpos(i.name, $2::text) > 0)
    ORDER BY %s
    OFFSET $3
    LIMIT $4;`

	listBonusesSQL = `SELECT listing_id, bonus_name, bonus_value
    FROM listing_bonuses
    WHERE listing_id = ANY($1::bigint[])
    ORDER BY id;`

	liveUnitPricesSQL = `SELECT l.total_price_yang / GREATEST(l.quantity, 1)
    FROM listings l
    JOIN items i ON i.id = l.item_id
    JOIN servers s ON s.id = l.server_id
    WHERE strpos(i.name, $1::text) > 0
      AND ($2::text = '' OR s.name = $2::text)
      AND NOT EXISTS (SELECT 1 FROM fake_sellers f WHERE f.seller_name = l.seller_name);`

	topItemsSQL = `SELECT i.name, COUNT(l.id)
    FROM items i
    JOIN listings l ON l.item_id = i.id
    GROUP BY i.name
    ORDER BY COUNT(l.id) DESC, i.name
    LIMIT $1;`

	listServerNamesSQL = `SELECT name FROM servers ORDER BY name;`
)

// ListingStore covers the live listing tables.
type ListingStore interface {
	ReplaceServerListings(ctx context.Context, batch market.Batch) error
	ListListings(ctx context.Context, filter ListingFilter) ([]market.LiveListing, error)
	LiveUnitPrices(ctx context.Context, query, server string) ([]int64, error)
	TopItems(ctx context.Context, limit int) ([]TopItem, error)
	ServerNames(ctx context.Context) ([]string, error)
}

// ReplaceServerListings swaps the live listings of one server for the batch and appends one
// snapshot per listing, all in one transaction. Servers and items are get-or-create:
// concurrent creators converge on the row that won the unique constraint.
func (s *Store) ReplaceServerListings(ctx context.Context, batch market.Batch) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var serverID int64
	if err := tx.QueryRow(ctx, upsertServerSQL, batch.ServerName).Scan(&serverID); err != nil {
		return classify("upsert server", err)
	}

	if _, err := tx.Exec(ctx, deleteServerListingsSQL, serverID); err != nil {
		return fmt.Errorf("delete live listings: %w", err)
	}

	itemIDs, err := ensureItems(ctx, tx, batch.Listings)
	if err != nil {
		return err
	}

	listingIDs, err := insertListings(ctx, tx, serverID, itemIDs, batch)
	if err != nil {
		return err
	}

	bonusRows := make([][]any, 0, len(batch.Listings))
	for idx, l := range batch.Listings {
		for _, b := range l.Bonuses {
			bonusRows = append(bonusRows, []any{listingIDs[idx], b.Name, b.Value})
		}
	}
	if len(bonusRows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"listing_bonuses"},
			[]string{"listing_id", "bonus_name", "bonus_value"},
			pgx.CopyFromRows(bonusRows),
		); err != nil {
			return fmt.Errorf("copy bonuses: %w", err)
		}
	}

	snapshotRows := make([][]any, 0, len(batch.Listings))
	for _, l := range batch.Listings {
		snapshotRows = append(snapshotRows, []any{
			l.ItemName, l.Seller, batch.ServerName, l.Quantity,
			l.PriceWon, l.PriceYang, l.Total, l.UnitPrice(), batch.ScrapedAt,
		})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"listing_snapshots"},
		[]string{"item_name", "seller_name", "server_name", "quantity", "price_won", "price_yang", "total_price_yang", "unit_price", "scraped_at"},
		pgx.CopyFromRows(snapshotRows),
	); err != nil {
		return fmt.Errorf("copy snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func ensureItems(ctx context.Context, tx pgx.Tx, listings []market.Listing) (map[string]int64, error) {
	names := make([]string, 0)
	seen := make(map[string]struct{})
	for _, l := range listings {
		if _, ok := seen[l.ItemName]; ok {
			continue
		}
		seen[l.ItemName] = struct{}{}
		names = append(names, l.ItemName)
	}

	if _, err := tx.Exec(ctx, insertMissingItemsSQL, names); err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}

	rows, err := tx.Query(ctx, selectItemIDsSQL, names)
	if err != nil {
		return nil, fmt.Errorf("select item ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, len(names))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(ids) != len(names) {
		return nil, fmt.Errorf("resolve items: expected %d ids, got %d", len(names), len(ids))
	}
	return ids, nil
}

func insertListings(ctx context.Context, tx pgx.Tx, serverID int64, itemIDs map[string]int64, batch market.Batch) ([]int64, error) {
	b := &pgx.Batch{}
	for _, l := range batch.Listings {
		b.Queue(insertListingSQL,
			serverID,
			itemIDs[l.ItemName],
			l.Seller,
			l.Quantity,
			l.PriceWon,
			l.PriceYang,
			l.Total,
			batch.ScrapedAt,
		)
	}

	results := tx.SendBatch(ctx, b)
	ids := make([]int64, len(batch.Listings))
	for i := range batch.Listings {
		if err := results.QueryRow().Scan(&ids[i]); err != nil {
			_ = results.Close()
			return nil, fmt.Errorf("insert listing %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close listing batch: %w", err)
	}
	return ids, nil
}

// ListListings returns a page of live listings with their bonuses attached.
func (s *Store) ListListings(ctx context.Context, filter ListingFilter) ([]market.LiveListing, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	filter = filter.normalized()

	query := fmt.Sprintf(listListingsSQL, filter.Sort.orderBy())
	rows, err := pool.Query(ctx, query, filter.Server, filter.ItemName, filter.Offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]market.LiveListing, 0, filter.Limit)
	index := make(map[int64]int)
	ids := make([]int64, 0, filter.Limit)
	for rows.Next() {
		var l market.LiveListing
		if err := rows.Scan(
			&l.ID,
			&l.ServerName,
			&l.Item.ID,
			&l.Item.Name,
			&l.Item.Category,
			&l.Item.ImageURL,
			&l.Seller,
			&l.Quantity,
			&l.PriceWon,
			&l.PriceYang,
			&l.Total,
			&l.SeenAt,
		); err != nil {
			return nil, err
		}
		l.Bonuses = []market.Bonus{}
		index[l.ID] = len(listings)
		ids = append(ids, l.ID)
		listings = append(listings, l)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(ids) == 0 {
		return listings, nil
	}

	bonusRows, err := pool.Query(ctx, listBonusesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list bonuses: %w", err)
	}
	defer bonusRows.Close()
	for bonusRows.Next() {
		var listingID int64
		var b market.Bonus
		if err := bonusRows.Scan(&listingID, &b.Name, &b.Value); err != nil {
			return nil, err
		}
		if i, ok := index[listingID]; ok {
			listings[i].Bonuses = append(listings[i].Bonuses, b)
		}
	}
	return listings, bonusRows.Err()
}

// LiveUnitPrices returns the unit price of every live listing whose item name contains query,
// excluding flagged sellers. An empty server matches all servers.
func (s *Store) LiveUnitPrices(ctx context.Context, query, server string) ([]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, liveUnitPricesSQL, query, server)
	if err != nil {
		return nil, fmt.Errorf("live unit prices: %w", err)
	}
	prices, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan unit prices: %w", err)
	}
	return prices, nil
}

// TopItems lists the item names with the most live listings.
func (s *Store) TopItems(ctx context.Context, limit int) ([]TopItem, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := pool.Query(ctx, topItemsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("top items: %w", err)
	}
	defer rows.Close()

	items := make([]TopItem, 0, limit)
	for rows.Next() {
		var it TopItem
		if err := rows.Scan(&it.Name, &it.Count); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ServerNames lists servers that have been ingested at least once.
func (s *Store) ServerNames(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, listServerNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan servers: %w", err)
	}
	return names, nil
}
