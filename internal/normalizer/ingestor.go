package normalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/fetcher"
	"marketwatch/internal/market"
)

// BatchStore persists one normalized batch atomically.
type BatchStore interface {
	ReplaceServerListings(ctx context.Context, batch market.Batch) error
}

// Ingestor runs one fetch → normalize → persist cycle for a server.
type Ingestor struct {
	source    fetcher.Source
	directory *fetcher.Directory
	store     BatchStore
	lang      string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(source fetcher.Source, directory *fetcher.Directory, store BatchStore, lang string, logger zerolog.Logger) *Ingestor {
	if directory == nil {
		directory = fetcher.NewDirectory(nil)
	}
	if lang == "" {
		lang = "de"
	}
	return &Ingestor{
		source:    source,
		directory: directory,
		store:     store,
		lang:      lang,
		logger:    logger.With().Str("component", "ingestor").Logger(),
		now:       time.Now,
	}
}

// SetClock overrides the capture-time source.
func (i *Ingestor) SetClock(now func() time.Time) {
	if now != nil {
		i.now = now
	}
}

// Ingest fetches the complete market of serverName and replaces its live listings.
// Nothing is written unless both the name table and the dump were fetched and decoded.
// A dump without any valid listing leaves the stored state untouched.
func (i *Ingestor) Ingest(ctx context.Context, serverName string) (market.Batch, error) {
	serverID, known := i.directory.Resolve(serverName)
	log := i.logger.With().Str("server", serverName).Str("server_id", serverID).Logger()
	if !known {
		log.Warn().Msg("server not in directory, using default id")
	}

	names, err := i.source.FetchItemNames(ctx, i.lang)
	if err != nil {
		return market.Batch{}, fmt.Errorf("fetch item names: %w", err)
	}
	entries, err := i.source.FetchEntries(ctx, serverID)
	if err != nil {
		return market.Batch{}, fmt.Errorf("fetch entries: %w", err)
	}

	res := Normalize(entries, names)
	batch := market.Batch{
		ServerName: serverName,
		ScrapedAt:  i.now().UTC(),
		Listings:   res.Listings,
		Discarded:  res.Discarded,
		Duplicates: res.Duplicates,
		Skipped:    res.Skipped,
	}

	log.Info().
		Int("entries", len(entries)).
		Int("listings", len(batch.Listings)).
		Int("discarded", batch.Discarded).
		Int("duplicates", batch.Duplicates).
		Int("skipped", batch.Skipped).
		Msg("normalized market dump")

	if len(batch.Listings) == 0 {
		log.Warn().Msg("no valid listings in dump, keeping stored state")
		return batch, nil
	}

	if err := i.store.ReplaceServerListings(ctx, batch); err != nil {
		return batch, fmt.Errorf("persist batch: %w", err)
	}
	return batch, nil
}
