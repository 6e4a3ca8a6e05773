package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCountersExposed(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IngestSucceeded("Chimera", 10, 2, 1, 0, 1700000000)
	m.IngestFailed("Chimera")
	m.AlertDispatched("threshold")
	m.AlertFailed("percentage")
	m.CacheHit("entries")
	m.CacheMiss("names")
	m.SnapshotsPruned(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`marketwatch_ingest_cycles_total{result="success",server="Chimera"} 1`,
		`marketwatch_ingest_cycles_total{result="failure",server="Chimera"} 1`,
		`marketwatch_listings_ingested_total{server="Chimera"} 10`,
		`marketwatch_entries_dropped_total{reason="duplicate",server="Chimera"} 1`,
		`marketwatch_alerts_total{kind="threshold",result="sent"} 1`,
		`marketwatch_cache_lookups_total{resource="names",result="miss"} 1`,
		`marketwatch_snapshots_pruned_total 42`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IngestFailed("x")
	m.AlertDispatched("threshold")
	m.CacheHit("entries")
	m.SnapshotsPruned(1)
	if m.Registry() != nil {
		t.Fatal("nil metrics has no registry")
	}
}
