package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"marketwatch/internal/market"
)

func ptr(v int64) *int64 { return &v }

func TestMergeDropsOverlappingLegacyRows(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	legacy := []market.PricePoint{
		{Timestamp: base.Add(-2 * time.Hour), Avg: 10, Min: 5},
		{Timestamp: base.Add(time.Hour), Avg: 99, Min: 99},
		{Avg: 7, Min: 7},
	}
	snaps := []market.Snapshot{
		{ScrapedAt: base.Add(10 * time.Second), UnitPrice: 100},
		{ScrapedAt: base.Add(40 * time.Second), UnitPrice: 300},
		{ScrapedAt: base.Add(5 * time.Minute), UnitPrice: 50},
	}

	got := Merge(legacy, snaps)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d: %+v", len(got), got)
	}
	if !got[0].Timestamp.IsZero() || got[0].Avg != 7 {
		t.Fatalf("timestamp-less legacy row should sort first, got %+v", got[0])
	}
	if got[1].Avg != 10 {
		t.Fatalf("older legacy row should be kept, got %+v", got[1])
	}
	bucket := got[2]
	if !bucket.Timestamp.Equal(base) || bucket.Min != 100 || bucket.Avg != 200 || bucket.TotalListings != 2 {
		t.Fatalf("unexpected minute bucket: %+v", bucket)
	}
	if bucket.AvgBottom20 == nil || *bucket.AvgBottom20 != 100 {
		t.Fatalf("bottom-20 of two prices should be the cheapest, got %v", bucket.AvgBottom20)
	}
	if !got[3].Timestamp.Equal(base.Add(5*time.Minute)) || got[3].Min != 50 {
		t.Fatalf("unexpected last bucket: %+v", got[3])
	}
}

func TestMergeWithoutSnapshotsKeepsLegacy(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	legacy := []market.PricePoint{
		{Timestamp: base.Add(time.Hour), Avg: 2},
		{Timestamp: base, Avg: 1},
	}
	got := Merge(legacy, nil)
	if len(got) != 2 || got[0].Avg != 1 || got[1].Avg != 2 {
		t.Fatalf("legacy rows should be sorted and kept, got %+v", got)
	}
}

func TestBucketAverageTruncates(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)
	points := Bucket([]market.Snapshot{
		{ScrapedAt: at, UnitPrice: 1},
		{ScrapedAt: at, UnitPrice: 2},
	})
	if len(points) != 1 || points[0].Avg != 1 {
		t.Fatalf("average of 1 and 2 should truncate to 1, got %+v", points)
	}
}

type stubSource struct {
	snaps  []market.Snapshot
	legacy []market.PricePoint
	err    error
}

func (s stubSource) SnapshotsForItem(context.Context, string) ([]market.Snapshot, error) {
	return s.snaps, s.err
}

func (s stubSource) LegacyHistory(context.Context, string) ([]market.PricePoint, error) {
	return s.legacy, nil
}

func TestReconstructPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewReconstructor(stubSource{err: boom}).Reconstruct(context.Background(), "Vollmondschwert+0")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDownsampleKeepsEnds(t *testing.T) {
	points := make([]market.PricePoint, 10)
	for i := range points {
		points[i].Avg = int64(i)
	}
	got := Downsample(points, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	if got[0].Avg != 0 || got[3].Avg != 9 {
		t.Fatalf("ends must be kept, got %+v", got)
	}
	if len(Downsample(points, 0)) != 10 || len(Downsample(points, 20)) != 10 {
		t.Fatal("no downsampling expected")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "history.csv")
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	points := []market.PricePoint{
		{Avg: 7, Min: 7, TotalListings: 1},
		{Timestamp: ts, Avg: 200, Min: 100, AvgBottom20: ptr(100), TotalListings: 2},
	}
	if err := WriteCSV(path, points); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if !got[0].Timestamp.IsZero() || got[0].AvgBottom20 != nil {
		t.Fatalf("empty cells should stay empty, got %+v", got[0])
	}
	if !got[1].Timestamp.Equal(ts) || *got[1].AvgBottom20 != 100 || got[1].TotalListings != 2 {
		t.Fatalf("unexpected row: %+v", got[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := WriteXLSX(path, "Vollmondschwert+0", []market.PricePoint{{Timestamp: ts, Avg: 5, Min: 3, TotalListings: 2}}); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue("History", "A1")
	if err != nil || title != "Vollmondschwert+0" {
		t.Fatalf("unexpected title %q (%v)", title, err)
	}
	minCell, _ := f.GetCellValue("History", "C4")
	if minCell != "3" {
		t.Fatalf("unexpected min cell %q", minCell)
	}
}

func TestWritePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.png")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	points := []market.PricePoint{
		{Timestamp: base, Avg: 500, Min: 100, AvgBottom20: ptr(150), TotalListings: 5},
		{Timestamp: base.Add(time.Hour), Avg: 450, Min: 120, TotalListings: 4},
	}
	if err := WritePNG(path, "Vollmondschwert+0", points); err != nil {
		t.Fatalf("write png: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}

	if err := WritePNG(filepath.Join(dir, "one.png"), "x", points[:1]); !errors.Is(err, market.ErrNoData) {
		t.Fatalf("single point should be rejected, got %v", err)
	}
}
