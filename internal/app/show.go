package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"marketwatch/internal/market"
	"marketwatch/internal/storage"
)

// Listings prints live listings.
func (a *App) Listings(ctx context.Context, opts ListingsOptions) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	listings, err := c.catalog.Listings(ctx, storage.ListingFilter{
		Server:   opts.Server,
		ItemName: opts.Search,
		Sort:     storage.ParseListingSort(opts.Sort),
		Offset:   opts.Offset,
		Limit:    opts.Limit,
	})
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		fmt.Fprintln(a.Out, "no listings found")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Seen (UTC)\tServer\tItem\tSeller\tQty\tTotal (Yang)\tUnit\tBonuses")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			l.SeenAt.UTC().Format(time.RFC3339),
			l.ServerName,
			sanitizeInline(l.Item.Name),
			sanitizeInline(l.Seller),
			l.Quantity,
			market.FormatThousands(l.Total),
			market.FormatThousands(market.UnitPrice(l.Total, l.Quantity)),
			formatBonuses(l.Bonuses),
		)
	}
	return w.Flush()
}

// TopItems prints the items with the most live listings.
func (a *App) TopItems(ctx context.Context, limit int) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	items, err := c.catalog.TopItems(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Item\tListings")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%d\n", sanitizeInline(it.Name), it.Count)
	}
	return w.Flush()
}

// Aggregates prints the current stats for a name query.
func (a *App) Aggregates(ctx context.Context, query, server string) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	stats, err := c.catalog.Aggregates(ctx, query, server)
	if errors.Is(err, market.ErrNoData) {
		fmt.Fprintf(a.Out, "no live listings match %q\n", query)
		return nil
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Query\tMin\tØ Bottom 20%\tØ All\tListings")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", sanitizeInline(query),
		market.FormatThousands(stats.Min),
		market.FormatThousands(stats.AvgBottom20),
		market.FormatThousands(stats.Avg),
		stats.Count)
	return w.Flush()
}

// Servers prints the server directory.
func (a *App) Servers(ctx context.Context) error {
	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	servers, err := c.catalog.Servers(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Group\tName\tID\tData")
	for _, s := range servers {
		data := ""
		if s.HasData {
			data = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Group, s.Name, s.ID, data)
	}
	return w.Flush()
}

func formatBonuses(bonuses []market.Bonus) string {
	parts := make([]string, 0, len(bonuses))
	for _, b := range bonuses {
		parts = append(parts, sanitizeInline(b.Name))
	}
	return strings.Join(parts, "; ")
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
