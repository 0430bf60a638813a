package matching

import (
	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/logger"
)

// Engine is a pure matcher: it reconciles imported activity events against
// habit mappings and emits match decisions. No I/O; data collection and the
// application of results are assembled by upper layers.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new matching engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Options carries caller-supplied per-event parameters.
type Options struct {
	// IncrementValue is the amount auto-increment matches should apply.
	// The engine never infers an amount from the event itself; callers
	// decide (e.g. problems sent for climbing sessions).
	IncrementValue *int
}

// FindMatches returns the mappings whose source type equals the event's and
// whose criteria the event satisfies.
func (e *Engine) FindMatches(event contracts.ActivityEvent, mappings []*contracts.HabitMapping) []*contracts.HabitMapping {
	var matched []*contracts.HabitMapping

	for _, mapping := range mappings {
		if mapping.SourceType != event.Source() {
			continue
		}
		if !e.matches(event, &mapping.MatchCriteria) {
			continue
		}
		matched = append(matched, mapping)
	}

	return matched
}

// matches dispatches to the per-event-kind criteria evaluator.
func (e *Engine) matches(event contracts.ActivityEvent, criteria *contracts.MatchCriteria) bool {
	switch ev := event.(type) {
	case *contracts.WorkoutEvent:
		return MatchesWorkout(ev, criteria)
	case *contracts.ClimbingSession:
		if criteria.MinGrade != "" && ev.MaxGrade != "" && GradeOrdinal(ev.MaxGrade) == unknownGrade {
			// Fail-closed: the session is silently excluded, but surface
			// the data-quality issue in the logs.
			e.logger.WithFields(map[string]interface{}{
				"session_id": ev.ID,
				"max_grade":  ev.MaxGrade,
			}).Debug("Unrecognized grade string, session cannot satisfy minGrade")
		}
		return MatchesSession(ev, criteria)
	default:
		return false
	}
}

// ProcessMatches finds matching mappings for an event and converts them to
// match results. Mappings with auto-complete disabled are silently excluded.
// The action is Increment exactly when the mapping has auto-increment set;
// IncrementValue is populated only from opts.
func (e *Engine) ProcessMatches(event contracts.ActivityEvent, mappings []*contracts.HabitMapping, date string, opts Options) []contracts.MatchResult {
	var results []contracts.MatchResult

	for _, mapping := range e.FindMatches(event, mappings) {
		if !mapping.AutoComplete {
			continue
		}

		result := contracts.MatchResult{
			HabitID:       mapping.HabitID,
			MappingID:     mapping.ID,
			Action:        contracts.ActionComplete,
			Date:          date,
			SourceType:    event.Source(),
			LinkedEventID: event.EventID(),
		}

		if mapping.AutoIncrement {
			result.Action = contracts.ActionIncrement
			if opts.IncrementValue != nil {
				result.IncrementValue = opts.IncrementValue
			}
		}

		results = append(results, result)
	}

	return results
}
