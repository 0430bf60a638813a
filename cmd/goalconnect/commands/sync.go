package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goalconnect/backend/internal/contracts"
)

// syncCmd pulls activity from an external provider for one user.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull activity from an external provider",
	Long: `Pull recent activity from a configured provider and run habit matching.

Example:
  go run ./cmd/goalconnect sync --user 1 --source strava
  go run ./cmd/goalconnect sync --user 1 --source kilter --days 30`,
	RunE: runSync,
}

var (
	syncUserID int64
	syncSource string
	syncDays   int
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Int64Var(&syncUserID, "user", 0, "user ID (required)")
	syncCmd.Flags().StringVar(&syncSource, "source", "", "provider: strava or kilter (required)")
	syncCmd.Flags().IntVar(&syncDays, "days", 7, "how many days back to pull")
	syncCmd.MarkFlagRequired("user")
	syncCmd.MarkFlagRequired("source")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	switch syncSource {
	case "strava":
		if a.strava == nil {
			return fmt.Errorf("strava is not configured (set STRAVA_CLIENT_ID and STRAVA_REFRESH_TOKEN)")
		}
		summary, err := a.importer.SyncWorkouts(ctx, a.strava, syncUserID, now.AddDate(0, 0, -syncDays))
		if err != nil {
			return fmt.Errorf("strava sync: %w", err)
		}
		printSummary(summary.EventsProcessed, summary.Apply.HabitsCompleted, summary.Apply.HabitsIncremented, summary.HabitsRescored)

	case "kilter":
		if a.kilter == nil {
			return fmt.Errorf("kilter is not configured (set KILTER_USERNAME and KILTER_PASSWORD)")
		}
		from := now.AddDate(0, 0, -syncDays).Format(contracts.DateLayout)
		to := now.Format(contracts.DateLayout)
		summary, err := a.importer.SyncSessions(ctx, a.kilter, syncUserID, from, to)
		if err != nil {
			return fmt.Errorf("kilter sync: %w", err)
		}
		printSummary(summary.EventsProcessed, summary.Apply.HabitsCompleted, summary.Apply.HabitsIncremented, summary.HabitsRescored)

	default:
		return fmt.Errorf("unknown --source %q (valid: strava, kilter)", syncSource)
	}

	return nil
}

func printSummary(events, completed, incremented, rescored int) {
	fmt.Printf("events: %d, completed: %d, incremented: %d, rescored: %d\n",
		events, completed, incremented, rescored)
}
