package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goalconnect/backend/internal/contracts"
)

// HabitRepository implements contracts.HabitRepository on PostgreSQL.
type HabitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new habit repository.
func NewHabitRepository(pool *pgxpool.Pool) *HabitRepository {
	return &HabitRepository{pool: pool}
}

const habitColumns = `
	id, user_id, title, description, icon, color,
	goal_type, target_value, current_value, unit,
	frequency_type, frequency_numerator, frequency_denominator,
	current_score, score_history, created_at
`

// GetByID retrieves a habit by its ID.
func (r *HabitRepository) GetByID(ctx context.Context, habitID int64) (*contracts.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`

	h, err := scanHabit(r.pool.QueryRow(ctx, query, habitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrHabitNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListByUser retrieves all habits owned by a user.
func (r *HabitRepository) ListByUser(ctx context.Context, userID int64) ([]*contracts.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []*contracts.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// UpdateScore persists the recomputed current score and the bounded score
// history in one statement, keeping the mirror and the history in step.
func (r *HabitRepository) UpdateScore(ctx context.Context, habitID int64, currentScore float64, history []contracts.ScorePoint) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal score history: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE habits SET current_score = $2, score_history = $3 WHERE id = $1`,
		habitID, currentScore, historyJSON,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrHabitNotFound
	}
	return nil
}

// IncrementValue adds delta to the habit's running total.
func (r *HabitRepository) IncrementValue(ctx context.Context, habitID int64, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE habits SET current_value = current_value + $2 WHERE id = $1`,
		habitID, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrHabitNotFound
	}
	return nil
}

// scanHabit reads one habit row, decoding the JSONB score history.
func scanHabit(row pgx.Row) (*contracts.Habit, error) {
	var h contracts.Habit
	var historyJSON []byte

	err := row.Scan(
		&h.ID, &h.UserID, &h.Title, &h.Description, &h.Icon, &h.Color,
		&h.GoalType, &h.TargetValue, &h.CurrentValue, &h.Unit,
		&h.FrequencyKind, &h.FrequencyNumerator, &h.FrequencyDenominator,
		&h.CurrentScore, &historyJSON, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &h.ScoreHistory); err != nil {
			return nil, fmt.Errorf("decode score history for habit %d: %w", h.ID, err)
		}
	}
	return &h, nil
}
