// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tg-bot",
	Short: "TG-BOT is a group moderation bot with custom role hierarchies",
	Long: `TG-BOT is a group moderation bot that lets group owners define
custom roles with numeric privilege levels, toggle per-role command
permissions and manage assignments and bans directly from the chat.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
