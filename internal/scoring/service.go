package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/habit"
	"github.com/goalconnect/backend/pkg/logger"
	"github.com/goalconnect/backend/pkg/redis"
)

// scorePrecision keeps the persisted currentScore at 8 fractional digits,
// matching the habits.current_score column.
const scorePrecision = 1e8

// cacheTTL bounds staleness of the current-score cache.
const cacheTTL = 10 * time.Minute

// ScoreUpdate is the result of recomputing one habit's strength.
type ScoreUpdate struct {
	HabitID        int64                  `json:"habitId"`
	NewScore       float64                `json:"newScore"`
	ScoreChange    float64                `json:"scoreChange"`
	UpdatedHistory []contracts.ScorePoint `json:"updatedHistory"`
}

// Publisher receives score updates after they are persisted. The API layer
// plugs in its websocket hub here.
type Publisher interface {
	PublishScoreUpdate(update ScoreUpdate)
}

// Service recomputes habit strength from completion logs and persists the
// bounded history plus the mirrored current score.
type Service struct {
	habits    contracts.HabitRepository
	logs      contracts.HabitLogRepository
	cache     *redis.Cache
	publisher Publisher
	logger    *logger.Logger
}

// NewService creates a scoring service. cache and publisher may be nil.
func NewService(habits contracts.HabitRepository, logs contracts.HabitLogRepository, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		habits: habits,
		logs:   logs,
		cache:  cache,
		logger: log,
	}
}

// WithPublisher attaches a score-update publisher.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// UpdateScore recomputes a habit's strength as of the given date
// (YYYY-MM-DD). It loads completion logs for the trailing 30 days, drives
// the score recurrence across the window, persists the new current score
// and the last-30 history, and returns the delta versus the prior score.
//
// Score history is recomputed from logs on every call rather than
// incrementally maintained, so a backdated or deleted log heals on the next
// update.
func (s *Service) UpdateScore(ctx context.Context, habitID int64, date string) (*ScoreUpdate, error) {
	h, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("load habit %d: %w", habitID, err)
	}

	// Habits created before frequency tracking default to daily.
	kind := h.FrequencyKind
	if kind == "" {
		kind = contracts.FrequencyDaily
	}
	freq, err := habit.ParseFrequency(kind, h.FrequencyNumerator, h.FrequencyDenominator)
	if err != nil {
		return nil, fmt.Errorf("habit %d frequency: %w", habitID, err)
	}

	end, err := time.ParseInLocation(contracts.DateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	startDate := end.AddDate(0, 0, -habit.HistoryWindowDays).Format(contracts.DateLayout)

	logs, err := s.logs.GetByHabitAndDateRange(ctx, habitID, startDate, date)
	if err != nil {
		return nil, fmt.Errorf("load logs for habit %d: %w", habitID, err)
	}

	completions := make(map[string]bool, len(logs))
	for _, log := range logs {
		completions[log.Date] = log.Completed
	}

	history, err := habit.NewHistory(freq.Decimal())
	if err != nil {
		return nil, err
	}
	points, err := history.ComputeScores(completions, startDate, date)
	if err != nil {
		return nil, fmt.Errorf("compute scores for habit %d: %w", habitID, err)
	}

	newScore := habit.CurrentScore(points)
	rounded := math.Round(newScore*scorePrecision) / scorePrecision

	// Keep only the most recent window when persisting.
	window := habit.NewWindow(habit.HistoryWindowDays)
	for _, p := range points {
		window.Push(p)
	}
	bounded := window.Points()

	if err := s.habits.UpdateScore(ctx, habitID, rounded, bounded); err != nil {
		return nil, fmt.Errorf("persist score for habit %d: %w", habitID, err)
	}

	update := ScoreUpdate{
		HabitID:        habitID,
		NewScore:       newScore,
		ScoreChange:    newScore - h.CurrentScore,
		UpdatedHistory: bounded,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scoreCacheKey(habitID), rounded, cacheTTL); err != nil {
			s.logger.WithError(err).WithField("habit_id", habitID).Warn("Failed to cache habit score")
		}
	}

	if s.publisher != nil {
		s.publisher.PublishScoreUpdate(update)
	}

	s.logger.WithFields(map[string]interface{}{
		"habit_id":     habitID,
		"new_score":    rounded,
		"score_change": update.ScoreChange,
	}).Debug("Habit score updated")

	return &update, nil
}

// CurrentScore returns a habit's current strength, preferring the cache.
func (s *Service) CurrentScore(ctx context.Context, habitID int64) (float64, error) {
	if s.cache != nil {
		var cached float64
		if found, err := s.cache.Get(ctx, scoreCacheKey(habitID), &cached); err == nil && found {
			return cached, nil
		}
	}

	h, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return 0, err
	}
	return h.CurrentScore, nil
}

// RescoreUser recomputes every habit of a user as of the given date.
// Failures are isolated per habit so one bad frequency cannot block the
// rest; the first error is returned after all habits are attempted.
func (s *Service) RescoreUser(ctx context.Context, userID int64, date string) (int, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list habits for user %d: %w", userID, err)
	}

	var firstErr error
	updated := 0
	for _, h := range habits {
		if _, err := s.UpdateScore(ctx, h.ID, date); err != nil {
			s.logger.WithError(err).WithField("habit_id", h.ID).Error("Rescore failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}

	return updated, firstErr
}

func scoreCacheKey(habitID int64) string {
	return fmt.Sprintf("habit:%d:score", habitID)
}
