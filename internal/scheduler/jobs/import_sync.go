package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/importer"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/logger"
)

// syncLookbackDays bounds how far back each periodic sync pulls. Saves are
// upserts, so overlapping windows between runs are harmless.
const syncLookbackDays = 3

// ImportSyncJob pulls recent activity from the configured providers for all
// users and runs habit matching on whatever arrived.
type ImportSyncJob struct {
	users    contracts.UserRepository
	importer *importer.Importer
	strava   importer.WorkoutSource
	kilter   importer.SessionSource
	config   *config.Config
	logger   *logger.Logger
}

// NewImportSyncJob creates a new import sync job. strava and kilter may be
// nil when a provider is not configured; it is then skipped.
func NewImportSyncJob(
	users contracts.UserRepository,
	imp *importer.Importer,
	strava importer.WorkoutSource,
	kilter importer.SessionSource,
	cfg *config.Config,
	log *logger.Logger,
) *ImportSyncJob {
	return &ImportSyncJob{
		users:    users,
		importer: imp,
		strava:   strava,
		kilter:   kilter,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ImportSyncJob) Name() string {
	return "import_sync"
}

// Schedule returns the cron schedule.
func (j *ImportSyncJob) Schedule() string {
	return j.config.Scheduler.ImportSyncSpec
}

// Run syncs every user against every configured provider. Provider failures
// are isolated per user so one bad account cannot block the rest.
func (j *ImportSyncJob) Run(ctx context.Context) error {
	userIDs, err := j.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now().UTC()
	after := now.AddDate(0, 0, -syncLookbackDays)
	from := after.Format(contracts.DateLayout)
	to := now.Format(contracts.DateLayout)

	var firstErr error
	for _, userID := range userIDs {
		if j.strava != nil {
			if _, err := j.importer.SyncWorkouts(ctx, j.strava, userID, after); err != nil {
				j.logger.WithError(err).WithField("user_id", userID).Error("Strava sync failed")
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if j.kilter != nil {
			if _, err := j.importer.SyncSessions(ctx, j.kilter, userID, from, to); err != nil {
				j.logger.WithError(err).WithField("user_id", userID).Error("Kilter sync failed")
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"users": len(userIDs),
		"from":  from,
		"to":    to,
	}).Info("Import sync completed")

	return firstErr
}
