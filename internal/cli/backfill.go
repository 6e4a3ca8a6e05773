package cli

import (
	"github.com/spf13/cobra"

	"marketwatch/internal/app"
)

var (
	importItem   string
	importCSV    string
	importDryRun bool
)

var importHistoryCmd = &cobra.Command{
	Use:   "import-history",
	Short: "Import legacy price history rows for an item from CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ImportHistory(cmd.Context(), app.ImportOptions{
			Item:    importItem,
			CSVPath: importCSV,
			DryRun:  importDryRun,
		})
	},
}

func init() {
	importHistoryCmd.Flags().StringVar(&importItem, "item", "", "Exact item name the rows belong to")
	importHistoryCmd.Flags().StringVar(&importCSV, "csv", "", "CSV file in the history export layout")
	importHistoryCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse without writing to storage")
	_ = importHistoryCmd.MarkFlagRequired("item")
	_ = importHistoryCmd.MarkFlagRequired("csv")
}
