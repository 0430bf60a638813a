package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/goalconnect/backend/internal/autocomplete"
	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/matching"
	"github.com/goalconnect/backend/internal/scoring"
	"github.com/goalconnect/backend/pkg/logger"
)

// WorkoutSource fetches workouts from an external provider (Strava).
type WorkoutSource interface {
	FetchActivities(ctx context.Context, userID int64, after time.Time) ([]*contracts.WorkoutEvent, error)
}

// SessionSource fetches climbing sessions from an external provider (Kilter).
type SessionSource interface {
	FetchSessions(ctx context.Context, userID int64, from, to string) ([]*contracts.ClimbingSession, error)
}

// Importer drives an import batch end to end: persist the raw events, match
// them against the user's mappings, apply the resulting completions and
// increments, then rescore the habits that were touched.
type Importer struct {
	mappings contracts.MappingRepository
	workouts contracts.WorkoutRepository
	sessions contracts.SessionRepository
	matcher  *matching.Engine
	applier  *autocomplete.Engine
	scorer   *scoring.Service
	logger   *logger.Logger
}

// New creates a new importer.
func New(
	mappings contracts.MappingRepository,
	workouts contracts.WorkoutRepository,
	sessions contracts.SessionRepository,
	matcher *matching.Engine,
	applier *autocomplete.Engine,
	scorer *scoring.Service,
	log *logger.Logger,
) *Importer {
	return &Importer{
		mappings: mappings,
		workouts: workouts,
		sessions: sessions,
		matcher:  matcher,
		applier:  applier,
		scorer:   scorer,
		logger:   log,
	}
}

// Summary aggregates the outcome of one import batch.
type Summary struct {
	EventsProcessed int                  `json:"eventsProcessed"`
	HabitsRescored  int                  `json:"habitsRescored"`
	Apply           *autocomplete.Result `json:"apply"`
}

// ProcessWorkouts persists workouts and runs matching for each one.
func (i *Importer) ProcessWorkouts(ctx context.Context, userID int64, workouts []*contracts.WorkoutEvent) (*Summary, error) {
	if len(workouts) > 0 {
		if err := i.workouts.SaveBatch(ctx, workouts); err != nil {
			return nil, fmt.Errorf("save workouts: %w", err)
		}
	}

	events := make([]contracts.ActivityEvent, len(workouts))
	for n, w := range workouts {
		events[n] = w
	}
	return i.process(ctx, userID, events, func(contracts.ActivityEvent) matching.Options {
		return matching.Options{}
	})
}

// ProcessSessions persists climbing sessions and runs matching for each one.
// Auto-increment matches receive the session's sent-problem count.
func (i *Importer) ProcessSessions(ctx context.Context, userID int64, sessions []*contracts.ClimbingSession) (*Summary, error) {
	if len(sessions) > 0 {
		if err := i.sessions.SaveBatch(ctx, sessions); err != nil {
			return nil, fmt.Errorf("save sessions: %w", err)
		}
	}

	events := make([]contracts.ActivityEvent, len(sessions))
	for n, s := range sessions {
		events[n] = s
	}
	return i.process(ctx, userID, events, func(ev contracts.ActivityEvent) matching.Options {
		sent := ev.(*contracts.ClimbingSession).ProblemsSent
		return matching.Options{IncrementValue: &sent}
	})
}

// SyncWorkouts fetches recent workouts from a source and processes them.
func (i *Importer) SyncWorkouts(ctx context.Context, source WorkoutSource, userID int64, after time.Time) (*Summary, error) {
	workouts, err := source.FetchActivities(ctx, userID, after)
	if err != nil {
		return nil, fmt.Errorf("fetch workouts: %w", err)
	}
	return i.ProcessWorkouts(ctx, userID, workouts)
}

// SyncSessions fetches recent sessions from a source and processes them.
func (i *Importer) SyncSessions(ctx context.Context, source SessionSource, userID int64, from, to string) (*Summary, error) {
	sessions, err := source.FetchSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	return i.ProcessSessions(ctx, userID, sessions)
}

// process matches and applies a batch of events sharing one user. Mappings
// are loaded once per source type; habits touched by any event are rescored
// once, at the latest event date that touched them.
func (i *Importer) process(ctx context.Context, userID int64, events []contracts.ActivityEvent, optsFor func(contracts.ActivityEvent) matching.Options) (*Summary, error) {
	summary := &Summary{
		Apply: &autocomplete.Result{
			Errors:  []string{},
			Results: []autocomplete.ResultEntry{},
		},
	}

	mappingsBySource := make(map[string][]*contracts.HabitMapping)
	rescoreDates := make(map[int64]string)

	for _, event := range events {
		mappings, ok := mappingsBySource[event.Source()]
		if !ok {
			var err error
			mappings, err = i.mappings.ListByUserAndSource(ctx, userID, event.Source())
			if err != nil {
				return nil, fmt.Errorf("load mappings for source %s: %w", event.Source(), err)
			}
			mappingsBySource[event.Source()] = mappings
		}

		matches := i.matcher.ProcessMatches(event, mappings, event.Date(), optsFor(event))
		if len(matches) == 0 {
			summary.EventsProcessed++
			continue
		}

		batch := i.applier.ApplyMatches(ctx, matches, userID, event.Source(), event.EventID())
		summary.Apply.Merge(batch)
		summary.EventsProcessed++

		for _, entry := range batch.Results {
			if entry.Action == autocomplete.ResultSkipped {
				continue
			}
			if prev, ok := rescoreDates[entry.HabitID]; !ok || event.Date() > prev {
				rescoreDates[entry.HabitID] = event.Date()
			}
		}
	}

	for habitID, date := range rescoreDates {
		if _, err := i.scorer.UpdateScore(ctx, habitID, date); err != nil {
			i.logger.WithError(err).WithFields(map[string]interface{}{
				"habit_id": habitID,
				"date":     date,
			}).Error("Rescore after import failed")
			summary.Apply.Errors = append(summary.Apply.Errors,
				fmt.Sprintf("failed to rescore habit %d: %v", habitID, err))
			continue
		}
		summary.HabitsRescored++
	}

	i.logger.WithFields(map[string]interface{}{
		"user_id":         userID,
		"events":          summary.EventsProcessed,
		"completed":       summary.Apply.HabitsCompleted,
		"incremented":     summary.Apply.HabitsIncremented,
		"habits_rescored": summary.HabitsRescored,
	}).Info("Import batch processed")

	return summary, nil
}
