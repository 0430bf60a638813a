package autocomplete

import (
	"context"
	"errors"
	"fmt"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/logger"
)

// Engine applies match decisions to habit and log storage. It is the only
// component in the habit subsystem that performs writes; repositories are
// injected so the engine never touches a connection directly.
type Engine struct {
	habits contracts.HabitRepository
	logs   contracts.HabitLogRepository
	logger *logger.Logger
}

// NewEngine creates a new apply engine.
func NewEngine(habits contracts.HabitRepository, logs contracts.HabitLogRepository, log *logger.Logger) *Engine {
	return &Engine{
		habits: habits,
		logs:   logs,
		logger: log,
	}
}

// ResultAction describes what happened to one habit during apply.
type ResultAction string

const (
	ResultCompleted   ResultAction = "completed"
	ResultIncremented ResultAction = "incremented"
	ResultSkipped     ResultAction = "skipped"
)

// skipReasonManual is the reason recorded when a manual log blocks a match.
const skipReasonManual = "manual entry exists"

// ResultEntry records the outcome for one match result.
type ResultEntry struct {
	HabitID int64        `json:"habitId"`
	Action  ResultAction `json:"action"`
	Reason  string       `json:"reason,omitempty"`
}

// Result is the structured summary of one apply batch. It is always
// returned, even when some results failed; Errors holds per-result failures
// that did not halt the batch.
type Result struct {
	HabitsCompleted   int           `json:"habitsCompleted"`
	HabitsIncremented int           `json:"habitsIncremented"`
	Errors            []string      `json:"errors"`
	Results           []ResultEntry `json:"results"`
}

// Merge folds another batch summary into this one.
func (r *Result) Merge(other *Result) {
	r.HabitsCompleted += other.HabitsCompleted
	r.HabitsIncremented += other.HabitsIncremented
	r.Errors = append(r.Errors, other.Errors...)
	r.Results = append(r.Results, other.Results...)
}

// ApplyMatches applies match results in list order. Each result is applied
// independently: a persistence failure is recorded in the summary and does
// not abort the remaining results, so one broken mapping cannot block an
// entire import batch.
func (e *Engine) ApplyMatches(ctx context.Context, matches []contracts.MatchResult, userID int64, sourceType string, linkedEventID int64) *Result {
	result := &Result{
		Errors:  []string{},
		Results: []ResultEntry{},
	}

	for _, match := range matches {
		if err := e.applyOne(ctx, match, userID, sourceType, linkedEventID, result); err != nil {
			if errors.Is(err, contracts.ErrLogConflict) {
				// Lost a uniqueness race on (habit, user, date): the
				// surviving row already records the day. Benign.
				result.Results = append(result.Results, ResultEntry{
					HabitID: match.HabitID,
					Action:  ResultSkipped,
					Reason:  "log already exists",
				})
				continue
			}

			e.logger.WithError(err).WithFields(map[string]interface{}{
				"habit_id":   match.HabitID,
				"mapping_id": match.MappingID,
				"date":       match.Date,
			}).Error("Failed to apply habit match")

			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to apply match for habit %d: %v", match.HabitID, err))
			result.Results = append(result.Results, ResultEntry{
				HabitID: match.HabitID,
				Action:  ResultSkipped,
				Reason:  err.Error(),
			})
		}
	}

	return result
}

// applyOne handles a single match result.
func (e *Engine) applyOne(ctx context.Context, match contracts.MatchResult, userID int64, sourceType string, linkedEventID int64, result *Result) error {
	existing, err := e.logs.GetByHabitAndDate(ctx, match.HabitID, userID, match.Date)
	if err != nil {
		return fmt.Errorf("lookup existing log: %w", err)
	}

	// A manual entry always wins; never modify it.
	if existing != nil && existing.IsManual() {
		result.Results = append(result.Results, ResultEntry{
			HabitID: match.HabitID,
			Action:  ResultSkipped,
			Reason:  skipReasonManual,
		})
		return nil
	}

	switch match.Action {
	case contracts.ActionComplete:
		if err := e.applyComplete(ctx, match, userID, sourceType, linkedEventID, existing); err != nil {
			return err
		}
		result.HabitsCompleted++
		result.Results = append(result.Results, ResultEntry{
			HabitID: match.HabitID,
			Action:  ResultCompleted,
		})
		return nil

	case contracts.ActionIncrement:
		if err := e.applyIncrement(ctx, match, userID, sourceType, linkedEventID, existing); err != nil {
			return err
		}
		result.HabitsIncremented++
		result.Results = append(result.Results, ResultEntry{
			HabitID: match.HabitID,
			Action:  ResultIncremented,
		})
		return nil

	default:
		return fmt.Errorf("unknown match action %q", match.Action)
	}
}

// applyComplete marks a binary habit complete for the day. Idempotent:
// setting completed twice leaves the same state.
func (e *Engine) applyComplete(ctx context.Context, match contracts.MatchResult, userID int64, sourceType string, linkedEventID int64, existing *contracts.HabitLog) error {
	if existing != nil {
		existing.Completed = true
		existing.AutoCompleteSource = sourceType
		existing.LinkedEventID = &linkedEventID
		return e.logs.Update(ctx, existing)
	}

	return e.logs.Create(ctx, &contracts.HabitLog{
		HabitID:            match.HabitID,
		UserID:             userID,
		Date:               match.Date,
		Completed:          true,
		IncrementValue:     1,
		AutoCompleteSource: sourceType,
		LinkedEventID:      &linkedEventID,
	})
}

// applyIncrement adds to a cumulative habit's running total. Deliberately
// additive: re-applying the same increment accumulates again rather than
// replacing, so callers control dedup via event identity.
func (e *Engine) applyIncrement(ctx context.Context, match contracts.MatchResult, userID int64, sourceType string, linkedEventID int64, existing *contracts.HabitLog) error {
	delta := 1
	if match.IncrementValue != nil {
		delta = *match.IncrementValue
	}

	if err := e.habits.IncrementValue(ctx, match.HabitID, delta); err != nil {
		return fmt.Errorf("increment habit value: %w", err)
	}

	if existing != nil {
		existing.Completed = true
		existing.QuantityCompleted += delta
		existing.IncrementValue += delta
		existing.AutoCompleteSource = sourceType
		existing.LinkedEventID = &linkedEventID
		return e.logs.Update(ctx, existing)
	}

	return e.logs.Create(ctx, &contracts.HabitLog{
		HabitID:            match.HabitID,
		UserID:             userID,
		Date:               match.Date,
		Completed:          true,
		QuantityCompleted:  delta,
		IncrementValue:     delta,
		AutoCompleteSource: sourceType,
		LinkedEventID:      &linkedEventID,
	})
}
