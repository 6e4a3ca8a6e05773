package cli

import (
	"github.com/spf13/cobra"
)

var ingestServer string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass (all watched servers, or --server only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Ingest(cmd.Context(), ingestServer)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete snapshots older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Cleanup(cmd.Context())
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestServer, "server", "", "Ingest a single server without evaluating alerts")
}
