package storage

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketwatch/internal/market"
)

// openTestStore connects to MARKETWATCH_TEST_DSN and isolates the test in a throwaway schema.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MARKETWATCH_TEST_DSN")
	if dsn == "" {
		t.Skip("MARKETWATCH_TEST_DSN not set")
	}
	ctx := context.Background()

	schema := "mw_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ident := pgx.Identifier{schema}.Sanitize()

	admin, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		_ = admin.Close(ctx)
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+ident+" CASCADE")
		_ = admin.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	store := NewStore(pool)
	t.Cleanup(store.Close)

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func countRows(t *testing.T, s *Store, sql string, args ...any) int {
	t.Helper()
	var n int
	if err := s.pool.QueryRow(context.Background(), sql, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", sql, err)
	}
	return n
}

func listing(item, seller string, total int64, bonuses ...market.Bonus) market.Listing {
	return market.Listing{ItemName: item, Seller: seller, Quantity: 1, PriceYang: total, Total: total, Bonuses: bonuses}
}

func sorted(v []int64) []int64 {
	out := append([]int64(nil), v...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalPrices(got, want []int64) bool {
	got = sorted(got)
	want = sorted(want)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestReplaceServerListingsIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := market.Batch{
		ServerName: "Chimera",
		ScrapedAt:  t0,
		Listings: []market.Listing{
			listing("Vollmond", "alice", 100, market.Bonus{Name: "Max. TP +500", Value: "500"}, market.Bonus{Name: "Stark gegen Monster +10%", Value: "10"}),
			listing("Schwert+9", "bob", 200),
		},
	}
	if err := store.ReplaceServerListings(ctx, batch); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	batch.ScrapedAt = t0.Add(10 * time.Minute)
	if err := store.ReplaceServerListings(ctx, batch); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	if n := countRows(t, store, `SELECT count(*) FROM listings`); n != 2 {
		t.Fatalf("replacing twice must leave one live set, got %d listings", n)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_bonuses`); n != 2 {
		t.Fatalf("bonuses of replaced listings must cascade, got %d", n)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_snapshots`); n != 4 {
		t.Fatalf("snapshots are append-only, expected 4 got %d", n)
	}
	if n := countRows(t, store, `SELECT count(*) FROM items`); n != 2 {
		t.Fatalf("items must be get-or-create, got %d", n)
	}

	smaller := market.Batch{ServerName: "Chimera", ScrapedAt: t0.Add(20 * time.Minute), Listings: []market.Listing{listing("Schwert+9", "bob", 250)}}
	if err := store.ReplaceServerListings(ctx, smaller); err != nil {
		t.Fatalf("third replace: %v", err)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_bonuses`); n != 0 {
		t.Fatalf("bonuses must be removed with their listing, got %d", n)
	}
	live, err := store.ListListings(ctx, ListingFilter{Server: "Chimera"})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 || live[0].Total != 250 {
		t.Fatalf("unexpected live listings: %+v", live)
	}
}

func TestReplaceServerListingsRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	good := market.Batch{ServerName: "Chimera", ScrapedAt: t0, Listings: []market.Listing{
		listing("Vollmond", "alice", 100, market.Bonus{Name: "Max. TP +500", Value: "500"}),
	}}
	if err := store.ReplaceServerListings(ctx, good); err != nil {
		t.Fatal(err)
	}

	broken := listing("Vollmond", "carol", 300)
	broken.Quantity = 0
	bad := market.Batch{ServerName: "Chimera", ScrapedAt: t0.Add(time.Minute), Listings: []market.Listing{
		listing("Vollmond", "bob", 200),
		broken,
	}}
	if err := store.ReplaceServerListings(ctx, bad); err == nil {
		t.Fatal("expected the quantity check to fail the replace")
	}

	prices, err := store.LiveUnitPrices(ctx, "Vollmond", "Chimera")
	if err != nil {
		t.Fatal(err)
	}
	if !equalPrices(prices, []int64{100}) {
		t.Fatalf("previous listings must survive a failed replace, got %v", prices)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_bonuses`); n != 1 {
		t.Fatalf("previous bonuses must survive, got %d", n)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_snapshots`); n != 1 {
		t.Fatalf("failed replace must not append snapshots, got %d", n)
	}
}

func TestLiveUnitPricesMatchingAndFakeSellers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.ReplaceServerListings(ctx, market.Batch{ServerName: "Chimera", ScrapedAt: t0, Listings: []market.Listing{
		listing("Vollmondschwert+9", "alice", 100),
		listing("vollmondschwert", "bob", 200),
		listing("Vollmond", "carol", 300),
	}}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceServerListings(ctx, market.Batch{ServerName: "Teutonia", ScrapedAt: t0, Listings: []market.Listing{
		listing("Vollmond", "dave", 400),
	}}); err != nil {
		t.Fatal(err)
	}

	prices, err := store.LiveUnitPrices(ctx, "Vollmond", "Chimera")
	if err != nil {
		t.Fatal(err)
	}
	if !equalPrices(prices, []int64{100, 300}) {
		t.Fatalf("matching must be a case-sensitive substring on one server, got %v", prices)
	}
	prices, err = store.LiveUnitPrices(ctx, "Vollmond", "")
	if err != nil {
		t.Fatal(err)
	}
	if !equalPrices(prices, []int64{100, 300, 400}) {
		t.Fatalf("empty server must match all servers, got %v", prices)
	}

	fs, err := market.NewFakeSeller("carol", "price bait")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.FlagSeller(ctx, fs); err != nil {
		t.Fatal(err)
	}
	if _, err := store.FlagSeller(ctx, fs); !errors.Is(err, market.ErrConflict) {
		t.Fatalf("flagging twice must conflict, got %v", err)
	}

	prices, err = store.LiveUnitPrices(ctx, "Vollmond", "Chimera")
	if err != nil {
		t.Fatal(err)
	}
	if !equalPrices(prices, []int64{100}) {
		t.Fatalf("flagged seller must be excluded, got %v", prices)
	}

	snaps, err := store.SnapshotsForItem(ctx, "Vollmond")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Seller != "dave" {
		t.Fatalf("history must exclude the flagged seller, got %+v", snaps)
	}
	if n := countRows(t, store, `SELECT count(*) FROM listing_snapshots WHERE seller_name = $1`, "carol"); n != 1 {
		t.Fatalf("flagging is a read-time filter; snapshot rows must remain, got %d", n)
	}
}

func TestImportLegacyHistoryIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.ReplaceServerListings(ctx, market.Batch{ServerName: "Chimera", ScrapedAt: t0, Listings: []market.Listing{
		listing("Vollmond", "alice", 100),
	}}); err != nil {
		t.Fatal(err)
	}
	first, err := store.EarliestSnapshot(ctx, "Vollmond")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(t0) {
		t.Fatalf("earliest snapshot: want %s got %s", t0, first)
	}

	bottom := int64(90)
	rows := []market.PricePoint{
		{Timestamp: t0.Add(-time.Hour), Avg: 120, Min: 80, AvgBottom20: &bottom, TotalListings: 4},
		{Timestamp: t0, Avg: 130, Min: 90, TotalListings: 3},
	}
	if _, err := store.ImportLegacyHistory(ctx, "Vollmond", rows); !errors.Is(err, market.ErrConflict) {
		t.Fatalf("row at the first snapshot must be rejected, got %v", err)
	}
	if n := countRows(t, store, `SELECT count(*) FROM price_history`); n != 0 {
		t.Fatalf("rejected import must write nothing, got %d", n)
	}

	rows[1] = market.PricePoint{Avg: 110, Min: 70, TotalListings: 2}
	n, err := store.ImportLegacyHistory(ctx, "Vollmond", rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	legacy, err := store.LegacyHistory(ctx, "Vollmond")
	if err != nil {
		t.Fatal(err)
	}
	if len(legacy) != 2 || !legacy[0].Timestamp.IsZero() || legacy[1].AvgBottom20 == nil || *legacy[1].AvgBottom20 != 90 {
		t.Fatalf("unexpected legacy rows: %+v", legacy)
	}

	if first, err := store.EarliestSnapshot(ctx, "Unbekannt"); err != nil || !first.IsZero() {
		t.Fatalf("item without snapshots must report zero time, got %s %v", first, err)
	}
}
