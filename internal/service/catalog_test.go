package service

import (
	"context"
	"errors"
	"testing"

	"marketwatch/internal/alerting"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/market"
)

// catalogStore implements only what each test touches; other methods panic via the nil embed.
type catalogStore struct {
	CatalogStore

	items       []market.WatchlistItem
	priceAlerts []market.PriceAlert
	pctAlerts   []market.PercentageAlert
	servers     []string
	telegram    market.TelegramSettings
	created     int
}

func (s *catalogStore) ListWatchlist(context.Context) ([]market.WatchlistItem, error) {
	return s.items, nil
}

func (s *catalogStore) GetWatchlistItem(_ context.Context, id int64) (market.WatchlistItem, error) {
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return market.WatchlistItem{}, market.ErrNotFound
}

func (s *catalogStore) ListPriceAlerts(context.Context, int64) ([]market.PriceAlert, error) {
	return s.priceAlerts, nil
}

func (s *catalogStore) ListPercentageAlerts(context.Context, int64) ([]market.PercentageAlert, error) {
	return s.pctAlerts, nil
}

func (s *catalogStore) CreatePercentageAlert(_ context.Context, a market.PercentageAlert) (market.PercentageAlert, error) {
	s.created++
	a.ID = int64(s.created)
	return a, nil
}

func (s *catalogStore) ServerNames(context.Context) ([]string, error) {
	return s.servers, nil
}

func (s *catalogStore) TelegramSettings(context.Context) (market.TelegramSettings, error) {
	return s.telegram, nil
}

type sentNotifier struct{ text string }

func (n *sentNotifier) Send(_ context.Context, _ market.TelegramSettings, text string) error {
	n.text = text
	return nil
}

func TestCatalogWatchlistAttachesRules(t *testing.T) {
	store := &catalogStore{
		items:       []market.WatchlistItem{{ID: 1}, {ID: 2}},
		priceAlerts: []market.PriceAlert{{ID: 10, WatchlistID: 2}},
		pctAlerts:   []market.PercentageAlert{{ID: 20, WatchlistID: 1}, {ID: 21, WatchlistID: 9}},
	}
	items, err := NewCatalog(store, nil, nil, nil, nil).Watchlist(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items[0].PercentAlerts) != 1 || len(items[1].PriceAlerts) != 1 || len(items[0].PriceAlerts) != 0 {
		t.Fatalf("rules attached to the wrong items: %+v", items)
	}
}

func TestCatalogPercentageAlertValidation(t *testing.T) {
	store := &catalogStore{items: []market.WatchlistItem{{ID: 1}}}
	c := NewCatalog(store, nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := c.AddPercentageAlert(ctx, 1, "min", "min", 10); !errors.Is(err, market.ErrValidation) {
		t.Fatalf("identical metrics must be rejected, got %v", err)
	}
	if _, err := c.AddPercentageAlert(ctx, 1, "median", "avg", 10); !errors.Is(err, market.ErrValidation) {
		t.Fatalf("unknown metric must be rejected, got %v", err)
	}
	if _, err := c.AddPercentageAlert(ctx, 7, "min", "avg", 10); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("missing watchlist item must be not found, got %v", err)
	}
	if store.created != 0 {
		t.Fatal("rejected rules must not be stored")
	}
	a, err := c.AddPercentageAlert(ctx, 1, "avg_bottom20", "avg", 12.5)
	if err != nil || a.ID != 1 || a.ThresholdPct.String() != "12.5" {
		t.Fatalf("valid rule should be stored, got %+v %v", a, err)
	}
}

func TestCatalogServersMarksData(t *testing.T) {
	store := &catalogStore{servers: []string{"Chimera", "Privat"}}
	dir := fetcher.NewDirectory(nil)
	out, err := NewCatalog(store, nil, nil, dir, nil).Servers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var chimera, privat bool
	for _, s := range out {
		switch s.Name {
		case "Chimera":
			chimera = s.HasData
		case "Privat":
			privat = s.HasData && s.Group == "Custom"
		default:
			if s.HasData {
				t.Fatalf("%s should have no data", s.Name)
			}
		}
	}
	if !chimera || !privat {
		t.Fatalf("stored servers not marked: %+v", out)
	}
}

func TestCatalogTestTelegram(t *testing.T) {
	store := &catalogStore{telegram: market.TelegramSettings{BotToken: "t", ChatID: "c"}}
	n := &sentNotifier{}
	if err := NewCatalog(store, nil, nil, nil, n).TestTelegram(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n.text != alerting.ConfirmationMessage() {
		t.Fatalf("confirmation message not sent, got %q", n.text)
	}
}
