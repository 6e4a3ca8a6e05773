// Package metrics exposes prometheus collectors for ingestion, alerting and caching.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketwatch"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ingestCycles     *prometheus.CounterVec
	listingsIngested *prometheus.CounterVec
	entriesDropped   *prometheus.CounterVec
	lastIngest       *prometheus.GaugeVec
	alerts           *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	snapshotsPruned  prometheus.Counter
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		ingestCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cycles_total",
			Help:      "Ingestion cycles by server and result",
		}, []string{"server", "result"}),
		listingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_ingested_total",
			Help:      "Deduplicated listings persisted",
		}, []string{"server"}),
		entriesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_dropped_total",
			Help:      "Upstream entries dropped during normalization by reason",
		}, []string{"server", "reason"}),
		lastIngest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_ingest_timestamp_seconds",
			Help:      "Unix time of the last successful ingestion per server",
		}, []string{"server"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert dispatch attempts by rule kind and result",
		}, []string{"kind", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Upstream cache lookups by resource and result",
		}, []string{"resource", "result"}),
		snapshotsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_pruned_total",
			Help:      "Snapshot rows removed by retention cleanup",
		}),
	}

	reg.MustRegister(
		m.ingestCycles,
		m.listingsIngested,
		m.entriesDropped,
		m.lastIngest,
		m.alerts,
		m.cacheLookups,
		m.snapshotsPruned,
	)
	return m
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IngestSucceeded records a persisted batch.
func (m *Metrics) IngestSucceeded(server string, listings, discarded, duplicates, skipped int, unixSeconds float64) {
	if m == nil {
		return
	}
	m.ingestCycles.WithLabelValues(server, "success").Inc()
	m.listingsIngested.WithLabelValues(server).Add(float64(listings))
	m.entriesDropped.WithLabelValues(server, "non_positive_total").Add(float64(discarded))
	m.entriesDropped.WithLabelValues(server, "duplicate").Add(float64(duplicates))
	m.entriesDropped.WithLabelValues(server, "malformed").Add(float64(skipped))
	m.lastIngest.WithLabelValues(server).Set(unixSeconds)
}

// IngestFailed records an aborted cycle.
func (m *Metrics) IngestFailed(server string) {
	if m == nil {
		return
	}
	m.ingestCycles.WithLabelValues(server, "failure").Inc()
}

// AlertDispatched records a delivered notification.
func (m *Metrics) AlertDispatched(kind string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(kind, "sent").Inc()
}

// AlertFailed records a failed notification.
func (m *Metrics) AlertFailed(kind string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(kind, "failed").Inc()
}

// CacheHit records a cache hit for resource.
func (m *Metrics) CacheHit(resource string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(resource, "hit").Inc()
}

// CacheMiss records a cache miss for resource.
func (m *Metrics) CacheMiss(resource string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(resource, "miss").Inc()
}

// SnapshotsPruned records retention deletions.
func (m *Metrics) SnapshotsPruned(n int64) {
	if m == nil {
		return
	}
	m.snapshotsPruned.Add(float64(n))
}
