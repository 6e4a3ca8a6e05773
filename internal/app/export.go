package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"marketwatch/internal/history"
	"marketwatch/internal/market"
)

// History reconstructs an item's series and writes the requested exports. Without any target
// the series is printed as a table.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	if opts.Item == "" {
		return errors.New("--item is required")
	}
	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	points, err := c.catalog.History(ctx, opts.Item)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintf(a.Out, "no history for %q\n", opts.Item)
		return nil
	}

	sampled := history.Downsample(points, opts.MaxPoints)
	a.Logger.Info().Str("item", opts.Item).Int("total", len(points)).Int("exported", len(sampled)).Msg("exporting history")

	if opts.CSVPath == "" && opts.PNGPath == "" && opts.XLSXPath == "" {
		return a.printHistory(sampled)
	}
	if opts.CSVPath != "" {
		if err := history.WriteCSV(opts.CSVPath, sampled); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if opts.XLSXPath != "" {
		if err := history.WriteXLSX(opts.XLSXPath, opts.Item, sampled); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}
	if opts.PNGPath != "" {
		if err := history.WritePNG(opts.PNGPath, opts.Item, sampled); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
	}
	return nil
}

func (a *App) printHistory(points []market.PricePoint) error {
	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Time (UTC)\tMin\tØ Bottom 20%\tØ All\tListings")
	for _, p := range points {
		ts := "-"
		if !p.Timestamp.IsZero() {
			ts = p.Timestamp.UTC().Format(time.RFC3339)
		}
		bottom := "-"
		if p.AvgBottom20 != nil {
			bottom = market.FormatThousands(*p.AvgBottom20)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", ts, market.FormatThousands(p.Min), bottom, market.FormatThousands(p.Avg), p.TotalListings)
	}
	return w.Flush()
}
