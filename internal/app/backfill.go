package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketwatch/internal/history"
	"marketwatch/internal/market"
)

// legacyImporter is the slice of the store the legacy import needs.
type legacyImporter interface {
	EarliestSnapshot(ctx context.Context, itemName string) (time.Time, error)
	ImportLegacyHistory(ctx context.Context, itemName string, points []market.PricePoint) (int64, error)
}

// ImportHistory loads legacy aggregate rows for one item from a CSV in the history export layout.
// The rows must all precede the item's first snapshot; otherwise nothing is imported.
func (a *App) ImportHistory(ctx context.Context, opts ImportOptions) error {
	if opts.Item == "" || opts.CSVPath == "" {
		return errors.New("--item and --csv are required")
	}

	points, err := history.ReadCSV(opts.CSVPath)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return errors.New("csv contains no rows")
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return a.importLegacy(ctx, store, opts, points)
}

func (a *App) importLegacy(ctx context.Context, store legacyImporter, opts ImportOptions, points []market.PricePoint) error {
	if opts.DryRun {
		first, err := store.EarliestSnapshot(ctx, opts.Item)
		if err != nil {
			return err
		}
		if err := market.CheckLegacyRows(points, first); err != nil {
			return err
		}
		a.Logger.Warn().Int("rows", len(points)).Msg("import dry-run: nothing written")
		fmt.Fprintf(a.Out, "%d rows parsed for %q, all importable\n", len(points), opts.Item)
		return nil
	}

	n, err := store.ImportLegacyHistory(ctx, opts.Item, points)
	if err != nil {
		return fmt.Errorf("import legacy history: %w", err)
	}
	a.Logger.Info().Str("item", opts.Item).Int64("imported", n).Msg("legacy history import finished")
	fmt.Fprintf(a.Out, "%d rows imported for %q\n", n, opts.Item)
	return nil
}
