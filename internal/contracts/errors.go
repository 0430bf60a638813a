package contracts

import "errors"

var (
	// ErrHabitNotFound is returned when a habit does not exist.
	ErrHabitNotFound = errors.New("habit not found")

	// ErrMappingNotFound is returned when a habit mapping does not exist.
	ErrMappingNotFound = errors.New("habit mapping not found")

	// ErrLogConflict is returned when a log insert loses a uniqueness race
	// on (habit_id, user_id, date). Benign: the surviving row already
	// records the day and callers may treat the write as applied.
	ErrLogConflict = errors.New("habit log already exists for date")
)
