package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

var alertsEvaluateCmd = &cobra.Command{
	Use:   "evaluate <watchlist-id>",
	Short: "Evaluate the rules of one watchlist item against the stored listings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return getApp().EvaluateAlerts(cmd.Context(), id)
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
