package contracts

import "encoding/json"

// StringList is a criteria field that accepts either a single JSON string or
// an array of strings, as stored mappings use both forms.
type StringList []string

// UnmarshalJSON accepts "value" and ["a","b"] forms.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// MatchCriteria is a declarative rule set deciding whether an activity event
// should affect a habit. Every field is optional; absent fields are
// wildcards and present fields are AND-combined. Unrecognized keys in the
// persisted JSON are ignored.
type MatchCriteria struct {
	// Workout criteria
	WorkoutType StringList `json:"workoutType,omitempty"`
	MinDuration *int       `json:"minDuration,omitempty"` // minutes, inclusive
	MaxDuration *int       `json:"maxDuration,omitempty"` // minutes, inclusive
	MinCalories *int       `json:"minCalories,omitempty"` // inclusive

	// Climbing session criteria
	MinProblems *int   `json:"minProblems,omitempty"` // problems sent, inclusive
	MinGrade    string `json:"minGrade,omitempty"`    // e.g. "V4"
	BoardAngle  *int   `json:"boardAngle,omitempty"`  // exact match

	// Common
	Keywords []string `json:"keywords,omitempty"` // case-insensitive substring
}

// IsEmpty reports whether no criteria fields are set. Empty criteria match
// every event of the mapping's source type.
func (c *MatchCriteria) IsEmpty() bool {
	return len(c.WorkoutType) == 0 &&
		c.MinDuration == nil &&
		c.MaxDuration == nil &&
		c.MinCalories == nil &&
		c.MinProblems == nil &&
		c.MinGrade == "" &&
		c.BoardAngle == nil &&
		len(c.Keywords) == 0
}

// HabitMapping binds one habit to one external data source.
type HabitMapping struct {
	ID            int64
	HabitID       int64
	UserID        int64
	SourceType    string
	MatchCriteria MatchCriteria
	AutoComplete  bool
	AutoIncrement bool
}

// MatchAction is the effect a match has on its habit.
type MatchAction string

const (
	ActionComplete  MatchAction = "complete"
	ActionIncrement MatchAction = "increment"
)

// MatchResult is one decision produced by the matching engine, consumed by
// the apply engine. IncrementValue is only set when the caller supplied one;
// the engine never infers an increment amount from the event itself.
type MatchResult struct {
	HabitID        int64
	MappingID      int64
	Action         MatchAction
	Date           string // YYYY-MM-DD
	IncrementValue *int
	SourceType     string
	LinkedEventID  int64
}
