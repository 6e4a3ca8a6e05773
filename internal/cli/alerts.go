package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"marketwatch/internal/market"
)

var (
	alertWatchlistID int64
	alertThreshold   string
	alertPriceType   string
	alertDirection   string
	alertMetricA     string
	alertMetricB     string
	alertPercent     float64
	alertKind        string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage threshold and percentage alert rules",
}

var alertsAddThresholdCmd = &cobra.Command{
	Use:   "add-threshold",
	Short: "Alert when the minimum unit price crosses a threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := parseThreshold(alertThreshold, alertPriceType)
		if err != nil {
			return err
		}
		return getApp().AddThresholdAlert(cmd.Context(), alertWatchlistID, threshold, alertPriceType, alertDirection)
	},
}

var alertsAddPercentageCmd = &cobra.Command{
	Use:   "add-percentage",
	Short: "Alert when two aggregate metrics deviate by at least a percentage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().AddPercentageAlert(cmd.Context(), alertWatchlistID, alertMetricA, alertMetricB, alertPercent)
	},
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules (all, or of --watchlist)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListAlerts(cmd.Context(), alertWatchlistID)
	},
}

var alertsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().RemoveAlert(cmd.Context(), alertKind, id)
	},
}

var alertsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Pause or resume a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().ToggleAlert(cmd.Context(), alertKind, id)
	},
}

// parseThreshold converts a user-entered price into a Yang total. Won amounts may carry
// decimals ("1.5" = 150,000,000 Yang); Yang amounts must be whole.
func parseThreshold(raw, priceType string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --threshold %q", raw)
	}
	if strings.EqualFold(strings.TrimSpace(priceType), "won") {
		d = d.Mul(decimal.NewFromInt(market.YangPerWon))
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("--threshold %q does not resolve to whole Yang", raw)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("--threshold must be greater than zero")
	}
	return d.IntPart(), nil
}

func init() {
	alertsAddThresholdCmd.Flags().Int64Var(&alertWatchlistID, "watchlist", 0, "Watchlist item id")
	alertsAddThresholdCmd.Flags().StringVar(&alertThreshold, "threshold", "", "Threshold price (in Won or Yang, see --price-type)")
	alertsAddThresholdCmd.Flags().StringVar(&alertPriceType, "price-type", "yang", "won or yang")
	alertsAddThresholdCmd.Flags().StringVar(&alertDirection, "direction", "below", "below or above")
	_ = alertsAddThresholdCmd.MarkFlagRequired("watchlist")
	_ = alertsAddThresholdCmd.MarkFlagRequired("threshold")

	alertsAddPercentageCmd.Flags().Int64Var(&alertWatchlistID, "watchlist", 0, "Watchlist item id")
	alertsAddPercentageCmd.Flags().StringVar(&alertMetricA, "metric-a", "min", "min, avg_bottom20 or avg_all")
	alertsAddPercentageCmd.Flags().StringVar(&alertMetricB, "metric-b", "avg_all", "min, avg_bottom20 or avg_all")
	alertsAddPercentageCmd.Flags().Float64Var(&alertPercent, "percent", 0, "Deviation threshold in percent")
	_ = alertsAddPercentageCmd.MarkFlagRequired("watchlist")
	_ = alertsAddPercentageCmd.MarkFlagRequired("percent")

	alertsListCmd.Flags().Int64Var(&alertWatchlistID, "watchlist", 0, "Only rules of this watchlist item")

	for _, c := range []*cobra.Command{alertsRemoveCmd, alertsToggleCmd} {
		c.Flags().StringVar(&alertKind, "kind", "threshold", "threshold or percentage")
	}

	alertsCmd.AddCommand(alertsAddThresholdCmd, alertsAddPercentageCmd, alertsListCmd,
		alertsRemoveCmd, alertsToggleCmd, alertsEvaluateCmd)
}
