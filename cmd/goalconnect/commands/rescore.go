package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goalconnect/backend/internal/contracts"
)

// rescoreCmd recomputes habit scores on demand.
var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute habit strength scores",
	Long: `Recompute habit strength scores from completion logs.

With --user, rescores that user's habits. Without it, rescores every user
(same work as the nightly job).

Example:
  go run ./cmd/goalconnect rescore --user 1
  go run ./cmd/goalconnect rescore --date 2025-03-31`,
	RunE: runRescore,
}

var (
	rescoreUserID int64
	rescoreDate   string
)

func init() {
	rootCmd.AddCommand(rescoreCmd)

	rescoreCmd.Flags().Int64Var(&rescoreUserID, "user", 0, "user ID (0 = all users)")
	rescoreCmd.Flags().StringVar(&rescoreDate, "date", "", "score as of date (YYYY-MM-DD, default today UTC)")
}

func runRescore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date := rescoreDate
	if date == "" {
		date = time.Now().UTC().Format(contracts.DateLayout)
	}
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
	}

	ctx := context.Background()

	var userIDs []int64
	if rescoreUserID > 0 {
		userIDs = []int64{rescoreUserID}
	} else {
		userIDs, err = a.users.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
	}

	total := 0
	for _, userID := range userIDs {
		updated, err := a.scorer.RescoreUser(ctx, userID, date)
		total += updated
		if err != nil {
			a.log.WithError(err).WithField("user_id", userID).Error("Rescore had failures")
		}
		fmt.Printf("user %d: %d habits rescored\n", userID, updated)
	}

	fmt.Printf("done: %d habits rescored as of %s\n", total, date)
	return nil
}
