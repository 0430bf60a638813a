package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/scoring"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/logger"
)

// RescoreJob recomputes every user's habit scores nightly. The decay model
// lowers scores on missed days, and a recompute is the only thing that makes
// a silent miss visible, so this job must run even when no data arrives.
type RescoreJob struct {
	users  contracts.UserRepository
	scorer *scoring.Service
	config *config.Config
	logger *logger.Logger
}

// NewRescoreJob creates a new rescore job.
func NewRescoreJob(users contracts.UserRepository, scorer *scoring.Service, cfg *config.Config, log *logger.Logger) *RescoreJob {
	return &RescoreJob{
		users:  users,
		scorer: scorer,
		config: cfg,
		logger: log,
	}
}

// Name returns the job name.
func (j *RescoreJob) Name() string {
	return "nightly_rescore"
}

// Schedule returns the cron schedule.
func (j *RescoreJob) Schedule() string {
	return j.config.Scheduler.RescoreSpec
}

// Run rescores all habits of all users as of yesterday. Scoring at the just
// completed day keeps a late-night run from treating today's still-pending
// completions as misses.
func (j *RescoreJob) Run(ctx context.Context) error {
	date := time.Now().UTC().AddDate(0, 0, -1).Format(contracts.DateLayout)

	userIDs, err := j.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var firstErr error
	totalUpdated := 0
	for _, userID := range userIDs {
		updated, err := j.scorer.RescoreUser(ctx, userID, date)
		totalUpdated += updated
		if err != nil {
			j.logger.WithError(err).WithField("user_id", userID).Error("User rescore had failures")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"date":    date,
		"users":   len(userIDs),
		"updated": totalUpdated,
	}).Info("Nightly rescore completed")

	return firstErr
}
