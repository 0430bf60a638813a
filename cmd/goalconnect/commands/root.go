package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "goalconnect",
	Short: "GoalConnect - habit and goal tracking backend",
	Long: `GoalConnect Unified CLI

Habit strength scoring, external activity imports and habit auto-completion.

Usage:
  go run ./cmd/goalconnect [command]

Examples:
  go run ./cmd/goalconnect api
  go run ./cmd/goalconnect rescore --user 1
  go run ./cmd/goalconnect sync --user 1 --source strava
  go run ./cmd/goalconnect status`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
