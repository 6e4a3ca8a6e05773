package cli

import (
	"github.com/spf13/cobra"
)

var (
	telegramToken  string
	telegramChatID string
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Manage the Telegram notification sink",
}

var telegramSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store bot token and chat id",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetTelegram(cmd.Context(), telegramToken, telegramChatID)
	},
}

var telegramToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Enable or disable notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ToggleTelegram(cmd.Context())
	},
}

var telegramTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message with the stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TestTelegram(cmd.Context())
	},
}

func init() {
	telegramSetCmd.Flags().StringVar(&telegramToken, "token", "", "Bot token")
	telegramSetCmd.Flags().StringVar(&telegramChatID, "chat-id", "", "Chat id")
	_ = telegramSetCmd.MarkFlagRequired("token")
	_ = telegramSetCmd.MarkFlagRequired("chat-id")

	telegramCmd.AddCommand(telegramSetCmd, telegramToggleCmd, telegramTestCmd)
}
