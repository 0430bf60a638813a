package contracts

import "time"

// DateLayout is the canonical calendar-date format used across the habit
// subsystem. Logs are unique per calendar day, so dates travel as plain
// YYYY-MM-DD strings rather than timestamps.
const DateLayout = "2006-01-02"

// GoalType determines how habit completion is tracked.
type GoalType string

const (
	// GoalBinary habits are tracked as completed / not completed per day.
	GoalBinary GoalType = "binary"
	// GoalCumulative habits accumulate a numeric total toward a target.
	GoalCumulative GoalType = "cumulative"
)

// FrequencyKind mirrors the persisted frequency_type column.
type FrequencyKind string

const (
	FrequencyDaily  FrequencyKind = "daily"
	FrequencyWeekly FrequencyKind = "weekly"
	FrequencyCustom FrequencyKind = "custom"
)

// ScorePoint is a single day in a habit's strength history.
type ScorePoint struct {
	Date      string  `json:"date"`
	Score     float64 `json:"score"`
	Completed bool    `json:"completed"`
}

// Habit represents a tracked habit. Frequency is persisted as three scalar
// fields; the decimal rate is always derived, never stored. CurrentScore
// mirrors the last ScoreHistory entry for O(1) reads.
type Habit struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Icon        string
	Color       string

	GoalType     GoalType
	TargetValue  int
	CurrentValue int
	Unit         string

	FrequencyKind        FrequencyKind
	FrequencyNumerator   *int
	FrequencyDenominator *int

	CurrentScore float64
	ScoreHistory []ScorePoint

	CreatedAt time.Time
}

// HabitLog is one completion record, unique per (habit, user, date).
// AutoCompleteSource is empty for manual entries; the matching engine never
// overwrites a log whose AutoCompleteSource is unset.
type HabitLog struct {
	ID                 int64
	HabitID            int64
	UserID             int64
	Date               string // YYYY-MM-DD
	Completed          bool
	QuantityCompleted  int
	IncrementValue     int
	Note               string
	AutoCompleteSource string
	LinkedEventID      *int64
}

// IsManual reports whether this log was created by the user rather than the
// matching engine.
func (l *HabitLog) IsManual() bool {
	return l.AutoCompleteSource == ""
}
