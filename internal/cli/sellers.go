package cli

import (
	"github.com/spf13/cobra"
)

var sellerReason string

var sellersCmd = &cobra.Command{
	Use:   "sellers",
	Short: "Manage flagged (fake) sellers excluded from aggregates",
}

var sellersFlagCmd = &cobra.Command{
	Use:   "flag <name>",
	Short: "Exclude a seller's listings from aggregates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().FlagSeller(cmd.Context(), args[0], sellerReason)
	},
}

var sellersUnflagCmd = &cobra.Command{
	Use:   "unflag <id>",
	Short: "Remove a seller flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().UnflagSeller(cmd.Context(), id)
	},
}

var sellersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flagged sellers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListSellers(cmd.Context())
	},
}

func init() {
	sellersFlagCmd.Flags().StringVar(&sellerReason, "reason", "", "Optional note")
	sellersCmd.AddCommand(sellersFlagCmd, sellersUnflagCmd, sellersListCmd)
}
