package contracts

import "time"

// Known import source types.
const (
	SourceAppleWatch  = "apple_watch"
	SourceStrava      = "strava"
	SourceKilterBoard = "kilter_board"
)

// ActivityEvent is an imported activity record from an external source.
// Each event has a stable identity and a rule for extracting its calendar
// date (workouts use the date of their start time, climbing sessions carry
// an explicit session date).
type ActivityEvent interface {
	// EventID returns the stable identity of the event.
	EventID() int64
	// Source returns the source type the event was imported from.
	Source() string
	// Date returns the calendar date (YYYY-MM-DD) the event counts toward.
	Date() string
}

// WorkoutEvent is an imported workout (Apple Watch, Strava).
type WorkoutEvent struct {
	ID              int64
	UserID          int64
	SourceType      string
	WorkoutType     string
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	CaloriesBurned  *int
}

func (w *WorkoutEvent) EventID() int64 { return w.ID }
func (w *WorkoutEvent) Source() string { return w.SourceType }

// Date returns the date portion of the workout's start time in UTC.
func (w *WorkoutEvent) Date() string {
	return w.StartTime.UTC().Format(DateLayout)
}

// ClimbingSession is an imported climbing-board session (Kilter Board).
type ClimbingSession struct {
	ID                int64
	UserID            int64
	SourceType        string
	SessionDate       string // YYYY-MM-DD
	ProblemsAttempted int
	ProblemsSent      int
	MaxGrade          string // V-grade, empty if unknown
	BoardAngle        *int   // degrees, nil if not recorded
}

func (s *ClimbingSession) EventID() int64 { return s.ID }
func (s *ClimbingSession) Source() string { return s.SourceType }
func (s *ClimbingSession) Date() string   { return s.SessionDate }
