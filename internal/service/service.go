package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketwatch/internal/config"
	"marketwatch/internal/market"
	"marketwatch/internal/scheduler"
)

// Ingester runs one full-market fetch for a server and persists the batch.
type Ingester interface {
	Ingest(ctx context.Context, serverName string) (market.Batch, error)
}

// AlertEvaluator checks the rules of one watchlist item.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, item market.WatchlistItem) (int, error)
}

// PipelineStore is the persistence the scheduled actions need.
type PipelineStore interface {
	EnsureSchema(ctx context.Context) error
	SeedWatchlist(ctx context.Context, query, server string, intervalMinutes int) (bool, error)
	ActiveWatchlist(ctx context.Context) ([]market.WatchlistItem, error)
	MarkScraped(ctx context.Context, id int64, at time.Time) error
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdvisoryLocker serializes scheduled actions across processes.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error)
}

// Recorder observes pipeline outcomes.
type Recorder interface {
	IngestSucceeded(server string, listings, discarded, duplicates, skipped int, unixSeconds float64)
	IngestFailed(server string)
	SnapshotsPruned(n int64)
}

type nopRecorder struct{}

func (nopRecorder) IngestSucceeded(string, int, int, int, int, float64) {}
func (nopRecorder) IngestFailed(string)                                 {}
func (nopRecorder) SnapshotsPruned(int64)                               {}

// Service orchestrates ingestion, alert evaluation, retention, and startup bootstrap.
type Service struct {
	ingester  Ingester
	evaluator AlertEvaluator
	store     PipelineStore
	locker    AdvisoryLocker
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time

	defaultServer string
	retention     time.Duration
	lockKey       int64
	seedQuery     string
	seedServer    string
	seedInterval  int
	schedule      config.SchedulerConfig
}

// New constructs the pipeline service. The store doubles as advisory locker when it supports it.
func New(cfg *config.Config, ingester Ingester, evaluator AlertEvaluator, store PipelineStore, recorder Recorder, logger zerolog.Logger) *Service {
	var locker AdvisoryLocker
	if l, ok := store.(AdvisoryLocker); ok {
		locker = l
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Service{
		ingester:      ingester,
		evaluator:     evaluator,
		store:         store,
		locker:        locker,
		recorder:      recorder,
		logger:        logger.With().Str("component", "service").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
		defaultServer: cfg.Upstream.DefaultServer,
		retention:     cfg.Scheduler.Retention,
		lockKey:       cfg.Scheduler.AdvisoryLockKey,
		seedQuery:     cfg.Watchlist.SeedQuery,
		seedServer:    cfg.Watchlist.SeedServer,
		seedInterval:  cfg.Watchlist.IntervalMinutes,
		schedule:      cfg.Scheduler,
	}
}

// Jobs returns the scheduled actions in execution order.
func (s *Service) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     "ingest",
			Interval: s.schedule.IngestInterval,
			Timeout:  s.schedule.IngestTimeout,
			Run:      func(ctx context.Context) error { return s.RunIngestion(ctx) },
		},
		{
			Name:     "cleanup",
			Interval: s.schedule.CleanupInterval,
			Run: func(ctx context.Context) error {
				_, err := s.Cleanup(ctx)
				return err
			},
		},
	}
}

// Bootstrap creates the schema and seeds the default watchlist entry on an empty table.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return err
	}
	if s.seedQuery == "" {
		return nil
	}
	server := s.seedServer
	if server == "" {
		server = s.defaultServer
	}
	seeded, err := s.store.SeedWatchlist(ctx, s.seedQuery, server, s.seedInterval)
	if err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}
	if seeded {
		s.logger.Info().Str("query", s.seedQuery).Str("server", server).Msg("seeded default watchlist item")
	}
	return nil
}

// RunIngestion ingests every server referenced by the active watchlist, then stamps and
// evaluates the items of each server that succeeded.
func (s *Service) RunIngestion(ctx context.Context) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Msg("skip ingestion because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	cycleID := uuid.NewString()
	log := s.logger.With().Str("cycle_id", cycleID).Logger()

	items, err := s.store.ActiveWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("load active watchlist: %w", err)
	}

	servers, byServer := groupByServer(items, s.defaultServer)
	log.Info().Int("servers", len(servers)).Int("items", len(items)).Msg("ingestion started")

	var errs []error
	for _, server := range servers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := s.RunIngestionCycle(ctx, server); err != nil {
			log.Error().Err(err).Str("server", server).Msg("ingestion cycle failed")
			errs = append(errs, err)
			continue
		}
		for _, item := range byServer[server] {
			s.afterIngest(ctx, log, item)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) afterIngest(ctx context.Context, log zerolog.Logger, item market.WatchlistItem) {
	if err := s.store.MarkScraped(ctx, item.ID, s.now()); err != nil {
		log.Error().Err(err).Int64("watchlist_id", item.ID).Msg("failed to stamp watchlist item")
	}
	if s.evaluator == nil {
		return
	}
	n, err := s.evaluator.Evaluate(ctx, item)
	if err != nil {
		log.Error().Err(err).Int64("watchlist_id", item.ID).Str("query", item.Query).Msg("alert evaluation failed")
		return
	}
	if n > 0 {
		log.Info().Int64("watchlist_id", item.ID).Int("dispatched", n).Msg("alerts dispatched")
	}
}

// RunIngestionCycle fetches, normalizes, and persists one server. Nothing is written on failure.
func (s *Service) RunIngestionCycle(ctx context.Context, serverName string) error {
	batch, err := s.ingester.Ingest(ctx, serverName)
	if err != nil {
		s.recorder.IngestFailed(serverName)
		return fmt.Errorf("ingest %s: %w", serverName, err)
	}
	s.recorder.IngestSucceeded(serverName, len(batch.Listings), batch.Discarded, batch.Duplicates, batch.Skipped, float64(batch.ScrapedAt.Unix()))
	return nil
}

// EvaluateAlerts runs the evaluator for a single item outside the scheduled loop.
func (s *Service) EvaluateAlerts(ctx context.Context, item market.WatchlistItem) (int, error) {
	if s.evaluator == nil {
		return 0, nil
	}
	return s.evaluator.Evaluate(ctx, item)
}

// Cleanup deletes snapshots older than the retention window and returns the count.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return 0, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip cleanup because advisory lock held elsewhere")
		return 0, nil
	}
	if unlock != nil {
		defer unlock()
	}

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	s.recorder.SnapshotsPruned(deleted)
	s.logger.Info().Time("cutoff", cutoff).Int64("deleted", deleted).Msg("snapshot retention applied")
	return deleted, nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

// groupByServer returns distinct servers in first-seen order; the default server stands in
// for an empty watchlist.
func groupByServer(items []market.WatchlistItem, fallback string) ([]string, map[string][]market.WatchlistItem) {
	byServer := make(map[string][]market.WatchlistItem)
	var servers []string
	for _, item := range items {
		if _, ok := byServer[item.ServerName]; !ok {
			servers = append(servers, item.ServerName)
		}
		byServer[item.ServerName] = append(byServer[item.ServerName], item)
	}
	if len(servers) == 0 && fallback != "" {
		servers = append(servers, fallback)
	}
	return servers, byServer
}
