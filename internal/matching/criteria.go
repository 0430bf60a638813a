package matching

import (
	"strings"

	"github.com/goalconnect/backend/internal/contracts"
)

// predicate is one criteria field check. Absent fields never contribute a
// predicate, so an empty criteria set matches unconditionally and present
// fields are AND-combined: the first failing predicate rejects the event.
type predicate func() bool

func evalAll(preds []predicate) bool {
	for _, p := range preds {
		if !p() {
			return false
		}
	}
	return true
}

// MatchesWorkout reports whether a workout satisfies the criteria.
// Numeric thresholds are inclusive; keywords match case-insensitively as
// substrings of the workout type.
func MatchesWorkout(workout *contracts.WorkoutEvent, criteria *contracts.MatchCriteria) bool {
	if criteria == nil || criteria.IsEmpty() {
		return true
	}

	var preds []predicate

	if len(criteria.WorkoutType) > 0 {
		preds = append(preds, func() bool {
			for _, wt := range criteria.WorkoutType {
				if wt == workout.WorkoutType {
					return true
				}
			}
			return false
		})
	}

	if criteria.MinDuration != nil {
		preds = append(preds, func() bool {
			return workout.DurationMinutes >= *criteria.MinDuration
		})
	}

	if criteria.MaxDuration != nil {
		preds = append(preds, func() bool {
			return workout.DurationMinutes <= *criteria.MaxDuration
		})
	}

	if criteria.MinCalories != nil {
		preds = append(preds, func() bool {
			// A workout without calorie data never satisfies a calorie
			// threshold.
			return workout.CaloriesBurned != nil && *workout.CaloriesBurned >= *criteria.MinCalories
		})
	}

	if len(criteria.Keywords) > 0 {
		preds = append(preds, func() bool {
			workoutType := strings.ToLower(workout.WorkoutType)
			for _, keyword := range criteria.Keywords {
				if strings.Contains(workoutType, strings.ToLower(keyword)) {
					return true
				}
			}
			return false
		})
	}

	return evalAll(preds)
}

// MatchesSession reports whether a climbing session satisfies the criteria.
// A minGrade constraint requires the session to actually carry a max grade;
// absent grade data never satisfies it. Keywords are not evaluated for
// sessions, which have no free-text field to search.
func MatchesSession(session *contracts.ClimbingSession, criteria *contracts.MatchCriteria) bool {
	if criteria == nil || criteria.IsEmpty() {
		return true
	}

	var preds []predicate

	if criteria.MinProblems != nil {
		preds = append(preds, func() bool {
			return session.ProblemsSent >= *criteria.MinProblems
		})
	}

	if criteria.MinGrade != "" {
		preds = append(preds, func() bool {
			if session.MaxGrade == "" {
				return false
			}
			return MeetsMinimumGrade(session.MaxGrade, criteria.MinGrade)
		})
	}

	if criteria.BoardAngle != nil {
		preds = append(preds, func() bool {
			return session.BoardAngle != nil && *session.BoardAngle == *criteria.BoardAngle
		})
	}

	return evalAll(preds)
}
