package cli

import (
	"github.com/spf13/cobra"
)

var (
	watchServer   string
	watchInterval int
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage tracked (query, server) pairs",
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Track a name query on a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getApp().Config
		server := watchServer
		if server == "" {
			server = cfg.Upstream.DefaultServer
		}
		interval := watchInterval
		if interval <= 0 {
			interval = cfg.Watchlist.IntervalMinutes
		}
		return getApp().AddWatchlistItem(cmd.Context(), args[0], server, interval)
	},
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked items and their rule count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListWatchlist(cmd.Context())
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a tracked item together with its rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().RemoveWatchlistItem(cmd.Context(), id)
	},
}

var watchlistToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Pause or resume a tracked item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().ToggleWatchlistItem(cmd.Context(), id)
	},
}

func init() {
	watchlistAddCmd.Flags().StringVar(&watchServer, "server", "", "Server name (defaults to upstream.default_server)")
	watchlistAddCmd.Flags().IntVar(&watchInterval, "interval", 0, "Informational scrape interval in minutes (defaults to watchlist.interval_minutes)")

	watchlistCmd.AddCommand(watchlistAddCmd, watchlistListCmd, watchlistRemoveCmd, watchlistToggleCmd)
}
