package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketwatch/internal/app"
)

var (
	listingsServer string
	listingsSearch string
	listingsSort   string
	listingsOffset int
	listingsLimit  int
	topLimit       int
	aggregatesServer   string
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Display live listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listingsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		return getApp().Listings(cmd.Context(), app.ListingsOptions{
			Server: listingsServer,
			Search: listingsSearch,
			Sort:   listingsSort,
			Offset: listingsOffset,
			Limit:  listingsLimit,
		})
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Display the items with the most live listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TopItems(cmd.Context(), topLimit)
	},
}

var aggregatesCmd = &cobra.Command{
	Use:   "aggregates <query>",
	Short: "Display min, bottom-20% and overall average unit price for a name query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Aggregates(cmd.Context(), args[0], aggregatesServer)
	},
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List known servers and whether listings are stored for them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Servers(cmd.Context())
	},
}

func init() {
	listingsCmd.Flags().StringVar(&listingsServer, "server", "", "Only listings of this server")
	listingsCmd.Flags().StringVar(&listingsSearch, "search", "", "Item name substring")
	listingsCmd.Flags().StringVar(&listingsSort, "sort", "newest", "newest, price_asc or price_desc")
	listingsCmd.Flags().IntVar(&listingsOffset, "offset", 0, "Rows to skip")
	listingsCmd.Flags().IntVar(&listingsLimit, "limit", 20, "Rows to display")

	topCmd.Flags().IntVar(&topLimit, "limit", 10, "Number of items")

	aggregatesCmd.Flags().StringVar(&aggregatesServer, "server", "", "Restrict to one server (all servers when empty)")
}
