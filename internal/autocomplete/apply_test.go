package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/matching"
	"github.com/goalconnect/backend/pkg/logger"
)

func intPtr(v int) *int { return &v }

// fakeHabitRepo is an in-memory HabitRepository.
type fakeHabitRepo struct {
	habits       map[int64]*contracts.Habit
	incrementErr map[int64]error
}

func newFakeHabitRepo(habits ...*contracts.Habit) *fakeHabitRepo {
	r := &fakeHabitRepo{
		habits:       make(map[int64]*contracts.Habit),
		incrementErr: make(map[int64]error),
	}
	for _, h := range habits {
		r.habits[h.ID] = h
	}
	return r
}

func (r *fakeHabitRepo) GetByID(_ context.Context, habitID int64) (*contracts.Habit, error) {
	h, ok := r.habits[habitID]
	if !ok {
		return nil, contracts.ErrHabitNotFound
	}
	return h, nil
}

func (r *fakeHabitRepo) ListByUser(_ context.Context, userID int64) ([]*contracts.Habit, error) {
	var out []*contracts.Habit
	for _, h := range r.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHabitRepo) UpdateScore(_ context.Context, habitID int64, score float64, history []contracts.ScorePoint) error {
	h, ok := r.habits[habitID]
	if !ok {
		return contracts.ErrHabitNotFound
	}
	h.CurrentScore = score
	h.ScoreHistory = history
	return nil
}

func (r *fakeHabitRepo) IncrementValue(_ context.Context, habitID int64, delta int) error {
	if err := r.incrementErr[habitID]; err != nil {
		return err
	}
	h, ok := r.habits[habitID]
	if !ok {
		return contracts.ErrHabitNotFound
	}
	h.CurrentValue += delta
	return nil
}

// fakeLogRepo is an in-memory HabitLogRepository.
type fakeLogRepo struct {
	logs      map[string]*contracts.HabitLog
	nextID    int64
	createErr error
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: make(map[string]*contracts.HabitLog), nextID: 1}
}

func logKey(habitID, userID int64, date string) string {
	return fmt.Sprintf("%d:%d:%s", habitID, userID, date)
}

func (r *fakeLogRepo) GetByHabitAndDate(_ context.Context, habitID, userID int64, date string) (*contracts.HabitLog, error) {
	log, ok := r.logs[logKey(habitID, userID, date)]
	if !ok {
		return nil, nil
	}
	clone := *log
	return &clone, nil
}

func (r *fakeLogRepo) GetByHabitAndDateRange(_ context.Context, habitID int64, from, to string) ([]*contracts.HabitLog, error) {
	var out []*contracts.HabitLog
	for _, log := range r.logs {
		if log.HabitID == habitID && log.Date >= from && log.Date <= to {
			clone := *log
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) Create(_ context.Context, log *contracts.HabitLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	key := logKey(log.HabitID, log.UserID, log.Date)
	if _, exists := r.logs[key]; exists {
		return contracts.ErrLogConflict
	}
	log.ID = r.nextID
	r.nextID++
	clone := *log
	r.logs[key] = &clone
	return nil
}

func (r *fakeLogRepo) Update(_ context.Context, log *contracts.HabitLog) error {
	clone := *log
	r.logs[logKey(log.HabitID, log.UserID, log.Date)] = &clone
	return nil
}

func (r *fakeLogRepo) get(habitID, userID int64, date string) *contracts.HabitLog {
	return r.logs[logKey(habitID, userID, date)]
}

func newTestEngine(habits *fakeHabitRepo, logs *fakeLogRepo) *Engine {
	return NewEngine(habits, logs, logger.NewNop())
}

func TestApplyMatches_CompleteCreatesLog(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 10, UserID: 1, GoalType: contracts.GoalBinary})
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 10, MappingID: 1, Action: contracts.ActionComplete, Date: "2025-03-10",
		SourceType: contracts.SourceAppleWatch, LinkedEventID: 101,
	}

	result := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceAppleWatch, 101)

	assert.Equal(t, 1, result.HabitsCompleted)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Results, 1)
	assert.Equal(t, ResultCompleted, result.Results[0].Action)

	log := logs.get(10, 1, "2025-03-10")
	require.NotNil(t, log)
	assert.True(t, log.Completed)
	assert.Equal(t, contracts.SourceAppleWatch, log.AutoCompleteSource)
	require.NotNil(t, log.LinkedEventID)
	assert.Equal(t, int64(101), *log.LinkedEventID)
}

func TestApplyMatches_CompleteIsIdempotent(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 10, UserID: 1})
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 10, Action: contracts.ActionComplete, Date: "2025-03-10",
		SourceType: contracts.SourceAppleWatch, LinkedEventID: 101,
	}

	first := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceAppleWatch, 101)
	require.Empty(t, first.Errors)
	after := *logs.get(10, 1, "2025-03-10")

	second := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceAppleWatch, 101)
	require.Empty(t, second.Errors)
	assert.Equal(t, 1, second.HabitsCompleted)

	// State unchanged after the second apply.
	assert.Equal(t, after, *logs.get(10, 1, "2025-03-10"))
}

func TestApplyMatches_IncrementAccumulates(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 20, UserID: 1, GoalType: contracts.GoalCumulative})
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 20, Action: contracts.ActionIncrement, Date: "2025-03-10",
		IncrementValue: intPtr(8), SourceType: contracts.SourceKilterBoard, LinkedEventID: 202,
	}

	engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceKilterBoard, 202)
	assert.Equal(t, 8, habits.habits[20].CurrentValue)

	log := logs.get(20, 1, "2025-03-10")
	require.NotNil(t, log)
	assert.Equal(t, 8, log.QuantityCompleted)
	assert.Equal(t, 8, log.IncrementValue)
	assert.True(t, log.Completed)

	// Additive contract: re-applying the same increment doubles the total.
	engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceKilterBoard, 202)
	assert.Equal(t, 16, habits.habits[20].CurrentValue)
	assert.Equal(t, 16, logs.get(20, 1, "2025-03-10").QuantityCompleted)
	assert.Equal(t, 16, logs.get(20, 1, "2025-03-10").IncrementValue)
}

func TestApplyMatches_IncrementDefaultsToOne(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 20, UserID: 1})
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 20, Action: contracts.ActionIncrement, Date: "2025-03-10",
		SourceType: contracts.SourceKilterBoard, LinkedEventID: 202,
	}

	engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceKilterBoard, 202)
	assert.Equal(t, 1, habits.habits[20].CurrentValue)
	assert.Equal(t, 1, logs.get(20, 1, "2025-03-10").QuantityCompleted)
}

func TestApplyMatches_ManualEntryWins(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 10, UserID: 1})
	logs := newFakeLogRepo()

	manual := &contracts.HabitLog{
		HabitID: 10, UserID: 1, Date: "2025-03-10",
		Completed: false, Note: "rest day",
	}
	require.NoError(t, logs.Create(context.Background(), manual))
	before := *logs.get(10, 1, "2025-03-10")

	engine := newTestEngine(habits, logs)
	match := contracts.MatchResult{
		HabitID: 10, Action: contracts.ActionComplete, Date: "2025-03-10",
		SourceType: contracts.SourceAppleWatch, LinkedEventID: 101,
	}

	result := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceAppleWatch, 101)

	assert.Equal(t, 0, result.HabitsCompleted)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Results, 1)
	assert.Equal(t, ResultSkipped, result.Results[0].Action)
	assert.Equal(t, "manual entry exists", result.Results[0].Reason)

	// The manual log is untouched.
	assert.Equal(t, before, *logs.get(10, 1, "2025-03-10"))
}

func TestApplyMatches_PartialFailureContinues(t *testing.T) {
	habits := newFakeHabitRepo(
		&contracts.Habit{ID: 20, UserID: 1},
		&contracts.Habit{ID: 21, UserID: 1},
	)
	habits.incrementErr[20] = errors.New("connection reset")
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	matches := []contracts.MatchResult{
		{HabitID: 20, Action: contracts.ActionIncrement, IncrementValue: intPtr(3), Date: "2025-03-10", SourceType: contracts.SourceKilterBoard, LinkedEventID: 1},
		{HabitID: 21, Action: contracts.ActionIncrement, IncrementValue: intPtr(3), Date: "2025-03-10", SourceType: contracts.SourceKilterBoard, LinkedEventID: 1},
	}

	result := engine.ApplyMatches(context.Background(), matches, 1, contracts.SourceKilterBoard, 1)

	// First result failed, second still applied.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "habit 20")
	assert.Equal(t, 1, result.HabitsIncremented)
	assert.Equal(t, 3, habits.habits[21].CurrentValue)
	assert.Equal(t, 0, habits.habits[20].CurrentValue)
	require.Len(t, result.Results, 2)
	assert.Equal(t, ResultSkipped, result.Results[0].Action)
	assert.Equal(t, ResultIncremented, result.Results[1].Action)
}

func TestApplyMatches_UniquenessRaceIsBenign(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 10, UserID: 1})
	logs := newFakeLogRepo()
	logs.createErr = contracts.ErrLogConflict
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 10, Action: contracts.ActionComplete, Date: "2025-03-10",
		SourceType: contracts.SourceAppleWatch, LinkedEventID: 101,
	}

	result := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceAppleWatch, 101)

	// Losing the insert race is a skip, not an error.
	assert.Empty(t, result.Errors)
	require.Len(t, result.Results, 1)
	assert.Equal(t, ResultSkipped, result.Results[0].Action)
}

func TestApplyMatches_MissingHabitRecordedAsError(t *testing.T) {
	habits := newFakeHabitRepo() // no habits
	logs := newFakeLogRepo()
	engine := newTestEngine(habits, logs)

	match := contracts.MatchResult{
		HabitID: 99, Action: contracts.ActionIncrement, IncrementValue: intPtr(2),
		Date: "2025-03-10", SourceType: contracts.SourceKilterBoard, LinkedEventID: 1,
	}

	result := engine.ApplyMatches(context.Background(), []contracts.MatchResult{match}, 1, contracts.SourceKilterBoard, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "habit 99")
}

func TestResult_Merge(t *testing.T) {
	a := &Result{HabitsCompleted: 1, Errors: []string{"x"}, Results: []ResultEntry{{HabitID: 1, Action: ResultCompleted}}}
	b := &Result{HabitsIncremented: 2, Errors: []string{"y"}, Results: []ResultEntry{{HabitID: 2, Action: ResultIncremented}}}

	a.Merge(b)
	assert.Equal(t, 1, a.HabitsCompleted)
	assert.Equal(t, 2, a.HabitsIncremented)
	assert.Len(t, a.Errors, 2)
	assert.Len(t, a.Results, 2)
}

// End-to-end: climbing session through the matcher into the apply engine.
func TestSessionMatchAppliedEndToEnd(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 30, UserID: 1, GoalType: contracts.GoalCumulative})
	logs := newFakeLogRepo()

	session := &contracts.ClimbingSession{
		ID: 500, UserID: 1, SourceType: contracts.SourceKilterBoard,
		SessionDate: "2025-04-01", ProblemsAttempted: 12, ProblemsSent: 8, MaxGrade: "V5",
	}
	mappings := []*contracts.HabitMapping{{
		ID: 7, HabitID: 30, UserID: 1, SourceType: contracts.SourceKilterBoard,
		MatchCriteria: contracts.MatchCriteria{MinProblems: intPtr(5)},
		AutoComplete:  true, AutoIncrement: true,
	}}

	matcher := matching.NewEngine(logger.NewNop())
	results := matcher.ProcessMatches(session, mappings, session.Date(), matching.Options{
		IncrementValue: intPtr(session.ProblemsSent),
	})
	require.Len(t, results, 1)
	assert.Equal(t, contracts.ActionIncrement, results[0].Action)
	require.NotNil(t, results[0].IncrementValue)
	assert.Equal(t, 8, *results[0].IncrementValue)

	engine := newTestEngine(habits, logs)
	summary := engine.ApplyMatches(context.Background(), results, 1, session.SourceType, session.ID)

	assert.Equal(t, 1, summary.HabitsIncremented)
	assert.Equal(t, 8, habits.habits[30].CurrentValue)
	log := logs.get(30, 1, "2025-04-01")
	require.NotNil(t, log)
	assert.Equal(t, 8, log.QuantityCompleted)
}

// End-to-end: workout match blocked by an existing manual log.
func TestWorkoutMatchBlockedByManualLog(t *testing.T) {
	habits := newFakeHabitRepo(&contracts.Habit{ID: 40, UserID: 1})
	logs := newFakeLogRepo()

	workout := &contracts.WorkoutEvent{
		ID: 600, UserID: 1, SourceType: contracts.SourceAppleWatch,
		WorkoutType: "Climbing", DurationMinutes: 60,
		StartTime: time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, logs.Create(context.Background(), &contracts.HabitLog{
		HabitID: 40, UserID: 1, Date: "2025-04-02", Completed: true,
	}))

	mappings := []*contracts.HabitMapping{{
		ID: 8, HabitID: 40, UserID: 1, SourceType: contracts.SourceAppleWatch,
		MatchCriteria: contracts.MatchCriteria{WorkoutType: contracts.StringList{"Climbing"}},
		AutoComplete:  true, AutoIncrement: false,
	}}

	matcher := matching.NewEngine(logger.NewNop())
	results := matcher.ProcessMatches(workout, mappings, workout.Date(), matching.Options{})
	require.Len(t, results, 1)

	engine := newTestEngine(habits, logs)
	summary := engine.ApplyMatches(context.Background(), results, 1, workout.SourceType, workout.ID)

	assert.Equal(t, 0, summary.HabitsCompleted)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, ResultSkipped, summary.Results[0].Action)
	assert.Equal(t, "manual entry exists", summary.Results[0].Reason)
	assert.Equal(t, "", logs.get(40, 1, "2025-04-02").AutoCompleteSource)
}
