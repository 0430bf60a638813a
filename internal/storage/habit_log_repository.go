package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goalconnect/backend/internal/contracts"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations, used to detect the (habit_id, user_id, date) insert race.
const uniqueViolation = "23505"

// HabitLogRepository implements contracts.HabitLogRepository on PostgreSQL.
type HabitLogRepository struct {
	pool *pgxpool.Pool
}

// NewHabitLogRepository creates a new habit log repository.
func NewHabitLogRepository(pool *pgxpool.Pool) *HabitLogRepository {
	return &HabitLogRepository{pool: pool}
}

const logColumns = `
	id, habit_id, user_id, date, completed,
	quantity_completed, increment_value, note,
	COALESCE(auto_complete_source, ''), linked_event_id
`

// GetByHabitAndDate returns the log for (habit, user, date), or (nil, nil)
// when no log exists for that day.
func (r *HabitLogRepository) GetByHabitAndDate(ctx context.Context, habitID, userID int64, date string) (*contracts.HabitLog, error) {
	query := `SELECT ` + logColumns + ` FROM habit_logs
		WHERE habit_id = $1 AND user_id = $2 AND date = $3`

	log, err := scanLog(r.pool.QueryRow(ctx, query, habitID, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

// GetByHabitAndDateRange retrieves logs for a habit within a date range,
// oldest first.
func (r *HabitLogRepository) GetByHabitAndDateRange(ctx context.Context, habitID int64, from, to string) ([]*contracts.HabitLog, error) {
	query := `SELECT ` + logColumns + ` FROM habit_logs
		WHERE habit_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`

	rows, err := r.pool.Query(ctx, query, habitID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*contracts.HabitLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Create inserts a new log. A uniqueness race on (habit_id, user_id, date)
// surfaces as contracts.ErrLogConflict so callers can treat it as benign.
func (r *HabitLogRepository) Create(ctx context.Context, log *contracts.HabitLog) error {
	query := `
		INSERT INTO habit_logs
			(habit_id, user_id, date, completed, quantity_completed, increment_value, note, auto_complete_source, linked_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		log.HabitID, log.UserID, log.Date, log.Completed,
		log.QuantityCompleted, log.IncrementValue, log.Note,
		log.AutoCompleteSource, log.LinkedEventID,
	).Scan(&log.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return contracts.ErrLogConflict
		}
		return err
	}
	return nil
}

// Update persists changes to an existing log.
func (r *HabitLogRepository) Update(ctx context.Context, log *contracts.HabitLog) error {
	query := `
		UPDATE habit_logs SET
			completed = $2,
			quantity_completed = $3,
			increment_value = $4,
			note = $5,
			auto_complete_source = NULLIF($6, ''),
			linked_event_id = $7
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.Completed, log.QuantityCompleted, log.IncrementValue,
		log.Note, log.AutoCompleteSource, log.LinkedEventID,
	)
	return err
}

func scanLog(row pgx.Row) (*contracts.HabitLog, error) {
	var log contracts.HabitLog
	err := row.Scan(
		&log.ID, &log.HabitID, &log.UserID, &log.Date, &log.Completed,
		&log.QuantityCompleted, &log.IncrementValue, &log.Note,
		&log.AutoCompleteSource, &log.LinkedEventID,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}
