package contracts

import "context"

// Repository interfaces are defined here only. Implementations live in
// internal/storage; pure engines receive them by injection and never touch
// the database directly.

// HabitRepository manages habit entities.
type HabitRepository interface {
	GetByID(ctx context.Context, habitID int64) (*Habit, error)
	ListByUser(ctx context.Context, userID int64) ([]*Habit, error)
	// UpdateScore persists the recomputed current score and the bounded
	// score history.
	UpdateScore(ctx context.Context, habitID int64, currentScore float64, history []ScorePoint) error
	// IncrementValue adds delta to the habit's running total. Additive:
	// applying the same increment twice doubles it.
	IncrementValue(ctx context.Context, habitID int64, delta int) error
}

// HabitLogRepository manages per-day completion logs.
type HabitLogRepository interface {
	// GetByHabitAndDate returns the log for (habitID, userID, date) or
	// (nil, nil) when no log exists.
	GetByHabitAndDate(ctx context.Context, habitID, userID int64, date string) (*HabitLog, error)
	GetByHabitAndDateRange(ctx context.Context, habitID int64, from, to string) ([]*HabitLog, error)
	Create(ctx context.Context, log *HabitLog) error
	Update(ctx context.Context, log *HabitLog) error
}

// MappingRepository manages habit ↔ data-source mappings.
type MappingRepository interface {
	GetByID(ctx context.Context, mappingID int64) (*HabitMapping, error)
	ListByUserAndSource(ctx context.Context, userID int64, sourceType string) ([]*HabitMapping, error)
	ListByUser(ctx context.Context, userID int64) ([]*HabitMapping, error)
	Create(ctx context.Context, mapping *HabitMapping) error
	Update(ctx context.Context, mapping *HabitMapping) error
	Delete(ctx context.Context, mappingID int64) error
}

// WorkoutRepository manages imported workout events.
type WorkoutRepository interface {
	GetByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]*WorkoutEvent, error)
	Save(ctx context.Context, workout *WorkoutEvent) error
	SaveBatch(ctx context.Context, workouts []*WorkoutEvent) error
}

// SessionRepository manages imported climbing sessions.
type SessionRepository interface {
	GetByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]*ClimbingSession, error)
	Save(ctx context.Context, session *ClimbingSession) error
	SaveBatch(ctx context.Context, sessions []*ClimbingSession) error
}

// UserRepository lists users for scheduled jobs.
type UserRepository interface {
	ListIDs(ctx context.Context) ([]int64, error)
}
