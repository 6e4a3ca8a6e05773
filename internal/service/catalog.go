package service

import (
	"context"
	"fmt"

	"marketwatch/internal/alerting"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/market"
	"marketwatch/internal/storage"
)

// CatalogStore is the persistence behind the management and query surface.
type CatalogStore interface {
	storage.ListingStore
	storage.WatchlistStore
	storage.AlertStore
	storage.SellerStore
	storage.TelegramStore
}

// StatsComputer computes aggregates for a name query.
type StatsComputer interface {
	Compute(ctx context.Context, query, server string) (market.Stats, error)
}

// HistoryBuilder reconstructs the price series of an item.
type HistoryBuilder interface {
	Reconstruct(ctx context.Context, itemName string) ([]market.PricePoint, error)
}

// ServerStatus is a directory entry annotated with whether live listings exist.
type ServerStatus struct {
	fetcher.ServerInfo
	HasData bool `json:"has_data"`
}

// Catalog exposes CRUD for watchlist, rules, sellers and sink, plus the read-side queries.
type Catalog struct {
	store     CatalogStore
	stats     StatsComputer
	history   HistoryBuilder
	directory *fetcher.Directory
	notifier  alerting.Notifier
}

// NewCatalog wires the query surface.
func NewCatalog(store CatalogStore, stats StatsComputer, history HistoryBuilder, directory *fetcher.Directory, notifier alerting.Notifier) *Catalog {
	return &Catalog{store: store, stats: stats, history: history, directory: directory, notifier: notifier}
}

// Aggregates computes current stats; market.ErrNoData when nothing matches.
func (c *Catalog) Aggregates(ctx context.Context, query, server string) (market.Stats, error) {
	return c.stats.Compute(ctx, query, server)
}

// History returns the reconstructed series for an exact item name.
func (c *Catalog) History(ctx context.Context, itemName string) ([]market.PricePoint, error) {
	return c.history.Reconstruct(ctx, itemName)
}

// Listings pages through live listings.
func (c *Catalog) Listings(ctx context.Context, filter storage.ListingFilter) ([]market.LiveListing, error) {
	return c.store.ListListings(ctx, filter)
}

// TopItems returns the items with the most live listings.
func (c *Catalog) TopItems(ctx context.Context, limit int) ([]storage.TopItem, error) {
	return c.store.TopItems(ctx, limit)
}

// Servers lists the directory, marking servers that currently hold listings. Servers seen in
// storage but missing from the directory are appended.
func (c *Catalog) Servers(ctx context.Context) ([]ServerStatus, error) {
	names, err := c.store.ServerNames(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]bool, len(names))
	for _, n := range names {
		stored[n] = true
	}

	var out []ServerStatus
	for _, info := range c.directory.List() {
		out = append(out, ServerStatus{ServerInfo: info, HasData: stored[info.Name]})
		delete(stored, info.Name)
	}
	for _, n := range names {
		if stored[n] {
			out = append(out, ServerStatus{ServerInfo: fetcher.ServerInfo{Name: n, Group: "Custom"}, HasData: true})
		}
	}
	return out, nil
}

// Watchlist returns every item with its rules attached.
func (c *Catalog) Watchlist(ctx context.Context) ([]market.WatchlistItem, error) {
	items, err := c.store.ListWatchlist(ctx)
	if err != nil {
		return nil, err
	}
	priceAlerts, err := c.store.ListPriceAlerts(ctx, 0)
	if err != nil {
		return nil, err
	}
	pctAlerts, err := c.store.ListPercentageAlerts(ctx, 0)
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}
	for _, a := range priceAlerts {
		if i, ok := index[a.WatchlistID]; ok {
			items[i].PriceAlerts = append(items[i].PriceAlerts, a)
		}
	}
	for _, a := range pctAlerts {
		if i, ok := index[a.WatchlistID]; ok {
			items[i].PercentAlerts = append(items[i].PercentAlerts, a)
		}
	}
	return items, nil
}

// AddWatchlistItem validates and stores a (query, server) pair; duplicates are market.ErrConflict.
func (c *Catalog) AddWatchlistItem(ctx context.Context, query, server string, intervalMinutes int) (market.WatchlistItem, error) {
	item, err := market.NewWatchlistItem(query, server, intervalMinutes)
	if err != nil {
		return market.WatchlistItem{}, err
	}
	return c.store.CreateWatchlistItem(ctx, item)
}

// RemoveWatchlistItem deletes an item and, by cascade, its rules.
func (c *Catalog) RemoveWatchlistItem(ctx context.Context, id int64) error {
	return c.store.DeleteWatchlistItem(ctx, id)
}

// ToggleWatchlistItem flips the active flag.
func (c *Catalog) ToggleWatchlistItem(ctx context.Context, id int64) (market.WatchlistItem, error) {
	return c.store.ToggleWatchlistItem(ctx, id)
}

// AddPriceAlert validates and stores a threshold rule.
func (c *Catalog) AddPriceAlert(ctx context.Context, watchlistID, threshold int64, priceType, direction string) (market.PriceAlert, error) {
	alert, err := market.NewPriceAlert(watchlistID, threshold, priceType, direction)
	if err != nil {
		return market.PriceAlert{}, err
	}
	if _, err := c.store.GetWatchlistItem(ctx, watchlistID); err != nil {
		return market.PriceAlert{}, err
	}
	return c.store.CreatePriceAlert(ctx, alert)
}

// AddPercentageAlert validates and stores a deviation rule.
func (c *Catalog) AddPercentageAlert(ctx context.Context, watchlistID int64, metricA, metricB string, thresholdPct float64) (market.PercentageAlert, error) {
	alert, err := market.NewPercentageAlert(watchlistID, metricA, metricB, thresholdPct)
	if err != nil {
		return market.PercentageAlert{}, err
	}
	if _, err := c.store.GetWatchlistItem(ctx, watchlistID); err != nil {
		return market.PercentageAlert{}, err
	}
	return c.store.CreatePercentageAlert(ctx, alert)
}

// PriceAlerts lists threshold rules; watchlistID 0 lists all.
func (c *Catalog) PriceAlerts(ctx context.Context, watchlistID int64) ([]market.PriceAlert, error) {
	return c.store.ListPriceAlerts(ctx, watchlistID)
}

// PercentageAlerts lists deviation rules; watchlistID 0 lists all.
func (c *Catalog) PercentageAlerts(ctx context.Context, watchlistID int64) ([]market.PercentageAlert, error) {
	return c.store.ListPercentageAlerts(ctx, watchlistID)
}

func (c *Catalog) RemovePriceAlert(ctx context.Context, id int64) error {
	return c.store.DeletePriceAlert(ctx, id)
}

func (c *Catalog) RemovePercentageAlert(ctx context.Context, id int64) error {
	return c.store.DeletePercentageAlert(ctx, id)
}

func (c *Catalog) TogglePriceAlert(ctx context.Context, id int64) (market.PriceAlert, error) {
	return c.store.TogglePriceAlert(ctx, id)
}

func (c *Catalog) TogglePercentageAlert(ctx context.Context, id int64) (market.PercentageAlert, error) {
	return c.store.TogglePercentageAlert(ctx, id)
}

// FlagSeller excludes a seller from every price computation.
func (c *Catalog) FlagSeller(ctx context.Context, name, reason string) (market.FakeSeller, error) {
	fs, err := market.NewFakeSeller(name, reason)
	if err != nil {
		return market.FakeSeller{}, err
	}
	return c.store.FlagSeller(ctx, fs)
}

func (c *Catalog) UnflagSeller(ctx context.Context, id int64) error {
	return c.store.UnflagSeller(ctx, id)
}

func (c *Catalog) FakeSellers(ctx context.Context) ([]market.FakeSeller, error) {
	return c.store.ListFakeSellers(ctx)
}

// SaveTelegram replaces the single sink row.
func (c *Catalog) SaveTelegram(ctx context.Context, botToken, chatID string) (market.TelegramSettings, error) {
	ts, err := market.NewTelegramSettings(botToken, chatID)
	if err != nil {
		return market.TelegramSettings{}, err
	}
	return c.store.SaveTelegramSettings(ctx, ts)
}

func (c *Catalog) ToggleTelegram(ctx context.Context) (market.TelegramSettings, error) {
	return c.store.ToggleTelegram(ctx)
}

func (c *Catalog) Telegram(ctx context.Context) (market.TelegramSettings, error) {
	return c.store.TelegramSettings(ctx)
}

// TestTelegram sends a confirmation through the stored sink, active or not.
func (c *Catalog) TestTelegram(ctx context.Context) error {
	ts, err := c.store.TelegramSettings(ctx)
	if err != nil {
		return err
	}
	if c.notifier == nil {
		return fmt.Errorf("%w: no notifier configured", market.ErrDispatch)
	}
	return c.notifier.Send(ctx, ts, alerting.ConfirmationMessage())
}
