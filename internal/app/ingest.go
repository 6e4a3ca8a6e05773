package app

import (
	"context"
	"fmt"
)

// Ingest runs one ingestion pass. With a server name only that server is fetched and no alerts
// are evaluated; otherwise the full scheduled action runs once.
func (a *App) Ingest(ctx context.Context, server string) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Bootstrap(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, a.Config.Scheduler.IngestTimeout)
	defer cancel()

	if server != "" {
		if err := c.service.RunIngestionCycle(runCtx, server); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "ingested %s\n", server)
		return nil
	}
	return c.service.RunIngestion(runCtx)
}

// Cleanup applies snapshot retention once.
func (a *App) Cleanup(ctx context.Context) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	deleted, err := c.service.Cleanup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%d snapshot(s) older than %s deleted\n", deleted, a.Config.Scheduler.Retention)
	return nil
}
