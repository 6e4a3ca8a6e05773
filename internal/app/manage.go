package app

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"marketwatch/internal/market"
)

func (a *App) withCatalog(ctx context.Context, fn func(c *components) error) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()
	return fn(c)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// AddWatchlistItem tracks a (query, server) pair.
func (a *App) AddWatchlistItem(ctx context.Context, query, server string, interval int) error {
	return a.withCatalog(ctx, func(c *components) error {
		item, err := c.catalog.AddWatchlistItem(ctx, query, server, interval)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "watchlist item %d added: %q on %s\n", item.ID, item.Query, item.ServerName)
		return nil
	})
}

// ListWatchlist prints every item with its rules.
func (a *App) ListWatchlist(ctx context.Context) error {
	return a.withCatalog(ctx, func(c *components) error {
		items, err := c.catalog.Watchlist(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tQuery\tServer\tActive\tInterval\tLast scraped\tRules")
		for _, it := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%dm\t%s\t%d\n", it.ID, sanitizeInline(it.Query), it.ServerName, it.Active,
				it.IntervalMinutes, formatTime(it.LastScrapedAt), len(it.PriceAlerts)+len(it.PercentAlerts))
		}
		return w.Flush()
	})
}

func (a *App) RemoveWatchlistItem(ctx context.Context, id int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		if err := c.catalog.RemoveWatchlistItem(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "watchlist item %d removed\n", id)
		return nil
	})
}

func (a *App) ToggleWatchlistItem(ctx context.Context, id int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		item, err := c.catalog.ToggleWatchlistItem(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "watchlist item %d active=%t\n", item.ID, item.Active)
		return nil
	})
}

// AddThresholdAlert stores a price threshold rule.
func (a *App) AddThresholdAlert(ctx context.Context, watchlistID, threshold int64, priceType, direction string) error {
	return a.withCatalog(ctx, func(c *components) error {
		alert, err := c.catalog.AddPriceAlert(ctx, watchlistID, threshold, priceType, direction)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "price alert %d added: %s %s\n", alert.ID, alert.Direction, market.FormatPrice(alert.Threshold, alert.PriceType))
		return nil
	})
}

// AddPercentageAlert stores a deviation rule.
func (a *App) AddPercentageAlert(ctx context.Context, watchlistID int64, metricA, metricB string, thresholdPct float64) error {
	return a.withCatalog(ctx, func(c *components) error {
		alert, err := c.catalog.AddPercentageAlert(ctx, watchlistID, metricA, metricB, thresholdPct)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "percentage alert %d added: |%s - %s| >= %s%%\n", alert.ID, alert.MetricA, alert.MetricB, alert.ThresholdPct.String())
		return nil
	})
}

// ListAlerts prints both rule kinds; watchlistID 0 lists all.
func (a *App) ListAlerts(ctx context.Context, watchlistID int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		priceAlerts, err := c.catalog.PriceAlerts(ctx, watchlistID)
		if err != nil {
			return err
		}
		pctAlerts, err := c.catalog.PercentageAlerts(ctx, watchlistID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Kind\tID\tWatchlist\tRule\tActive\tLast triggered")
		for _, p := range priceAlerts {
			fmt.Fprintf(w, "threshold\t%d\t%d\t%s %s\t%t\t%s\n", p.ID, p.WatchlistID, p.Direction,
				market.FormatPrice(p.Threshold, p.PriceType), p.Active, formatTime(p.LastTriggeredAt))
		}
		for _, p := range pctAlerts {
			fmt.Fprintf(w, "percentage\t%d\t%d\t%s vs %s >= %s%%\t%t\t%s\n", p.ID, p.WatchlistID, p.MetricA, p.MetricB,
				p.ThresholdPct.String(), p.Active, formatTime(p.LastTriggeredAt))
		}
		return w.Flush()
	})
}

// RemoveAlert deletes a rule of the given kind.
func (a *App) RemoveAlert(ctx context.Context, kind string, id int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		var err error
		switch kind {
		case "threshold":
			err = c.catalog.RemovePriceAlert(ctx, id)
		case "percentage":
			err = c.catalog.RemovePercentageAlert(ctx, id)
		default:
			return fmt.Errorf("%w: kind must be threshold or percentage", market.ErrValidation)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s alert %d removed\n", kind, id)
		return nil
	})
}

// ToggleAlert flips the active flag of a rule of the given kind.
func (a *App) ToggleAlert(ctx context.Context, kind string, id int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		var active bool
		switch kind {
		case "threshold":
			alert, err := c.catalog.TogglePriceAlert(ctx, id)
			if err != nil {
				return err
			}
			active = alert.Active
		case "percentage":
			alert, err := c.catalog.TogglePercentageAlert(ctx, id)
			if err != nil {
				return err
			}
			active = alert.Active
		default:
			return fmt.Errorf("%w: kind must be threshold or percentage", market.ErrValidation)
		}
		fmt.Fprintf(a.Out, "%s alert %d active=%t\n", kind, id, active)
		return nil
	})
}

func (a *App) FlagSeller(ctx context.Context, name, reason string) error {
	return a.withCatalog(ctx, func(c *components) error {
		fs, err := c.catalog.FlagSeller(ctx, name, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "seller %q flagged (id %d)\n", fs.Name, fs.ID)
		return nil
	})
}

func (a *App) UnflagSeller(ctx context.Context, id int64) error {
	return a.withCatalog(ctx, func(c *components) error {
		if err := c.catalog.UnflagSeller(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "seller %d unflagged\n", id)
		return nil
	})
}

func (a *App) ListSellers(ctx context.Context) error {
	return a.withCatalog(ctx, func(c *components) error {
		sellers, err := c.catalog.FakeSellers(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSeller\tReason\tFlagged")
		for _, s := range sellers {
			reason := ""
			if s.Reason != nil {
				reason = sanitizeInline(*s.Reason)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, sanitizeInline(s.Name), reason, s.CreatedAt.UTC().Format(time.RFC3339))
		}
		return w.Flush()
	})
}

// SetTelegram stores sink credentials.
func (a *App) SetTelegram(ctx context.Context, botToken, chatID string) error {
	return a.withCatalog(ctx, func(c *components) error {
		ts, err := c.catalog.SaveTelegram(ctx, botToken, chatID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "telegram settings saved for chat %s (active=%t)\n", ts.ChatID, ts.Active)
		return nil
	})
}

func (a *App) ToggleTelegram(ctx context.Context) error {
	return a.withCatalog(ctx, func(c *components) error {
		ts, err := c.catalog.ToggleTelegram(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "telegram active=%t\n", ts.Active)
		return nil
	})
}

// TestTelegram sends a confirmation message through the stored settings.
func (a *App) TestTelegram(ctx context.Context) error {
	return a.withCatalog(ctx, func(c *components) error {
		if err := c.catalog.TestTelegram(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "test message sent")
		return nil
	})
}
