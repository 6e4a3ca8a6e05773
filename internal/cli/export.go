package cli

import (
	"github.com/spf13/cobra"

	"marketwatch/internal/app"
)

var (
	historyItem      string
	historyCSVPath   string
	historyPNGPath   string
	historyXLSXPath  string
	historyMaxPoints int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print or export the price history of an item as CSV, PNG and/or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().History(cmd.Context(), app.HistoryOptions{
			Item:      historyItem,
			CSVPath:   historyCSVPath,
			PNGPath:   historyPNGPath,
			XLSXPath:  historyXLSXPath,
			MaxPoints: historyMaxPoints,
		})
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyItem, "item", "", "Exact item name")
	historyCmd.Flags().StringVar(&historyCSVPath, "csv", "", "Path to write CSV data")
	historyCmd.Flags().StringVar(&historyPNGPath, "png", "", "Path to write PNG chart")
	historyCmd.Flags().StringVar(&historyXLSXPath, "xlsx", "", "Path to write XLSX workbook")
	historyCmd.Flags().IntVar(&historyMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
	_ = historyCmd.MarkFlagRequired("item")
}
