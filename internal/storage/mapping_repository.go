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

// MappingRepository implements contracts.MappingRepository on PostgreSQL.
// Match criteria are stored as open JSONB; unrecognized keys survive
// round-trips untouched and are ignored on decode.
type MappingRepository struct {
	pool *pgxpool.Pool
}

// NewMappingRepository creates a new mapping repository.
func NewMappingRepository(pool *pgxpool.Pool) *MappingRepository {
	return &MappingRepository{pool: pool}
}

const mappingColumns = `
	id, habit_id, user_id, source_type, match_criteria, auto_complete, auto_increment
`

// GetByID retrieves a mapping by its ID.
func (r *MappingRepository) GetByID(ctx context.Context, mappingID int64) (*contracts.HabitMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM habit_data_mappings WHERE id = $1`

	m, err := scanMapping(r.pool.QueryRow(ctx, query, mappingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrMappingNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListByUserAndSource retrieves a user's mappings for one source type.
func (r *MappingRepository) ListByUserAndSource(ctx context.Context, userID int64, sourceType string) ([]*contracts.HabitMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM habit_data_mappings
		WHERE user_id = $1 AND source_type = $2
		ORDER BY id ASC`

	return r.queryMappings(ctx, query, userID, sourceType)
}

// ListByUser retrieves all mappings owned by a user.
func (r *MappingRepository) ListByUser(ctx context.Context, userID int64) ([]*contracts.HabitMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM habit_data_mappings
		WHERE user_id = $1
		ORDER BY id ASC`

	return r.queryMappings(ctx, query, userID)
}

// Create inserts a new mapping.
func (r *MappingRepository) Create(ctx context.Context, mapping *contracts.HabitMapping) error {
	criteriaJSON, err := json.Marshal(mapping.MatchCriteria)
	if err != nil {
		return fmt.Errorf("marshal match criteria: %w", err)
	}

	query := `
		INSERT INTO habit_data_mappings
			(habit_id, user_id, source_type, match_criteria, auto_complete, auto_increment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		mapping.HabitID, mapping.UserID, mapping.SourceType,
		criteriaJSON, mapping.AutoComplete, mapping.AutoIncrement,
	).Scan(&mapping.ID)
}

// Update persists changes to an existing mapping.
func (r *MappingRepository) Update(ctx context.Context, mapping *contracts.HabitMapping) error {
	criteriaJSON, err := json.Marshal(mapping.MatchCriteria)
	if err != nil {
		return fmt.Errorf("marshal match criteria: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE habit_data_mappings SET
			source_type = $2,
			match_criteria = $3,
			auto_complete = $4,
			auto_increment = $5
		WHERE id = $1`,
		mapping.ID, mapping.SourceType, criteriaJSON,
		mapping.AutoComplete, mapping.AutoIncrement,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrMappingNotFound
	}
	return nil
}

// Delete removes a mapping.
func (r *MappingRepository) Delete(ctx context.Context, mappingID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM habit_data_mappings WHERE id = $1`, mappingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrMappingNotFound
	}
	return nil
}

func (r *MappingRepository) queryMappings(ctx context.Context, query string, args ...interface{}) ([]*contracts.HabitMapping, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*contracts.HabitMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func scanMapping(row pgx.Row) (*contracts.HabitMapping, error) {
	var m contracts.HabitMapping
	var criteriaJSON []byte

	err := row.Scan(
		&m.ID, &m.HabitID, &m.UserID, &m.SourceType,
		&criteriaJSON, &m.AutoComplete, &m.AutoIncrement,
	)
	if err != nil {
		return nil, err
	}

	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &m.MatchCriteria); err != nil {
			return nil, fmt.Errorf("decode match criteria for mapping %d: %w", m.ID, err)
		}
	}
	return &m, nil
}
