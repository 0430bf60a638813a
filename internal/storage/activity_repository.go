package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goalconnect/backend/internal/contracts"
)

// WorkoutRepository implements contracts.WorkoutRepository on PostgreSQL.
type WorkoutRepository struct {
	pool *pgxpool.Pool
}

// NewWorkoutRepository creates a new workout repository.
func NewWorkoutRepository(pool *pgxpool.Pool) *WorkoutRepository {
	return &WorkoutRepository{pool: pool}
}

// GetByUserAndDateRange retrieves workouts whose start time falls within the
// date range, oldest first.
func (r *WorkoutRepository) GetByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]*contracts.WorkoutEvent, error) {
	query := `
		SELECT id, user_id, source_type, workout_type, start_time, end_time, duration_minutes, calories_burned
		FROM external_workouts
		WHERE user_id = $1 AND start_time::date BETWEEN $2::date AND $3::date
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*contracts.WorkoutEvent
	for rows.Next() {
		var w contracts.WorkoutEvent
		if err := rows.Scan(&w.ID, &w.UserID, &w.SourceType, &w.WorkoutType,
			&w.StartTime, &w.EndTime, &w.DurationMinutes, &w.CaloriesBurned); err != nil {
			return nil, err
		}
		workouts = append(workouts, &w)
	}
	return workouts, rows.Err()
}

// Save upserts a workout by its external identity so re-imports are safe.
func (r *WorkoutRepository) Save(ctx context.Context, workout *contracts.WorkoutEvent) error {
	query := `
		INSERT INTO external_workouts
			(user_id, source_type, workout_type, start_time, end_time, duration_minutes, calories_burned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, source_type, start_time) DO UPDATE SET
			workout_type     = EXCLUDED.workout_type,
			end_time         = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			calories_burned  = EXCLUDED.calories_burned
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		workout.UserID, workout.SourceType, workout.WorkoutType,
		workout.StartTime, workout.EndTime, workout.DurationMinutes, workout.CaloriesBurned,
	).Scan(&workout.ID)
}

// SaveBatch saves multiple workouts.
func (r *WorkoutRepository) SaveBatch(ctx context.Context, workouts []*contracts.WorkoutEvent) error {
	for _, w := range workouts {
		if err := r.Save(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// SessionRepository implements contracts.SessionRepository on PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new climbing session repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetByUserAndDateRange retrieves sessions within a date range, oldest first.
func (r *SessionRepository) GetByUserAndDateRange(ctx context.Context, userID int64, from, to string) ([]*contracts.ClimbingSession, error) {
	query := `
		SELECT id, user_id, source_type, session_date, problems_attempted, problems_sent,
			COALESCE(max_grade, ''), board_angle
		FROM climbing_sessions
		WHERE user_id = $1 AND session_date BETWEEN $2 AND $3
		ORDER BY session_date ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*contracts.ClimbingSession
	for rows.Next() {
		var s contracts.ClimbingSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.SourceType, &s.SessionDate,
			&s.ProblemsAttempted, &s.ProblemsSent, &s.MaxGrade, &s.BoardAngle); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Save upserts a session by (user, source, date).
func (r *SessionRepository) Save(ctx context.Context, session *contracts.ClimbingSession) error {
	query := `
		INSERT INTO climbing_sessions
			(user_id, source_type, session_date, problems_attempted, problems_sent, max_grade, board_angle)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (user_id, source_type, session_date) DO UPDATE SET
			problems_attempted = EXCLUDED.problems_attempted,
			problems_sent      = EXCLUDED.problems_sent,
			max_grade          = EXCLUDED.max_grade,
			board_angle        = EXCLUDED.board_angle
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		session.UserID, session.SourceType, session.SessionDate,
		session.ProblemsAttempted, session.ProblemsSent, session.MaxGrade, session.BoardAngle,
	).Scan(&session.ID)
}

// SaveBatch saves multiple sessions.
func (r *SessionRepository) SaveBatch(ctx context.Context, sessions []*contracts.ClimbingSession) error {
	for _, s := range sessions {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
