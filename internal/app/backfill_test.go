package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/market"
)

type fakeLegacyStore struct {
	first    time.Time
	imported []market.PricePoint
}

func (f *fakeLegacyStore) EarliestSnapshot(context.Context, string) (time.Time, error) {
	return f.first, nil
}

func (f *fakeLegacyStore) ImportLegacyHistory(_ context.Context, _ string, points []market.PricePoint) (int64, error) {
	if err := market.CheckLegacyRows(points, f.first); err != nil {
		return 0, err
	}
	f.imported = append(f.imported, points...)
	return int64(len(points)), nil
}

func newTestApp(out *bytes.Buffer) *App {
	return &App{Logger: zerolog.Nop(), Out: out}
}

func TestImportLegacyRejectsRowsOverlappingSnapshots(t *testing.T) {
	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeLegacyStore{first: first}
	points := []market.PricePoint{
		{Timestamp: first.Add(-48 * time.Hour), Avg: 120, Min: 100},
		{Timestamp: first.Add(time.Hour), Avg: 130, Min: 110},
	}

	var out bytes.Buffer
	err := newTestApp(&out).importLegacy(context.Background(), store, ImportOptions{Item: "Vollmond"}, points)
	if !errors.Is(err, market.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(store.imported) != 0 {
		t.Fatalf("no row may be written on conflict, got %d", len(store.imported))
	}

	err = newTestApp(&out).importLegacy(context.Background(), store, ImportOptions{Item: "Vollmond", DryRun: true}, points)
	if !errors.Is(err, market.ErrConflict) {
		t.Fatalf("dry-run must report the conflict too, got %v", err)
	}
}

func TestImportLegacyWritesRowsBeforeSnapshots(t *testing.T) {
	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeLegacyStore{first: first}
	points := []market.PricePoint{
		{Avg: 90, Min: 80},
		{Timestamp: first.Add(-time.Minute), Avg: 120, Min: 100},
	}

	var out bytes.Buffer
	if err := newTestApp(&out).importLegacy(context.Background(), store, ImportOptions{Item: "Vollmond"}, points); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(store.imported) != 2 {
		t.Fatalf("expected 2 rows imported, got %d", len(store.imported))
	}
	if !strings.Contains(out.String(), "2 rows imported") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
