package app

import (
	"context"
	"fmt"
)

// EvaluateAlerts runs the rules of one watchlist item against the listings currently stored,
// without fetching upstream. Notifications are really sent and cooldowns apply.
func (a *App) EvaluateAlerts(ctx context.Context, watchlistID int64) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	item, err := c.store.GetWatchlistItem(ctx, watchlistID)
	if err != nil {
		return err
	}

	if _, ok, err := c.evaluator.Credentials(ctx); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no active telegram settings and no fallback configured")
	}

	n, err := c.service.EvaluateAlerts(ctx, item)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%d notification(s) dispatched for %q on %s\n", n, item.Query, item.ServerName)
	return nil
}
