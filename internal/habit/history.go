package habit

import (
	"fmt"
	"math"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
)

// HistoryWindowDays is the number of days of score history kept per habit.
const HistoryWindowDays = 30

// History computes habit strength over a date range by driving the score
// recurrence day by day. Pure: safe for concurrent use.
type History struct {
	frequency float64
}

// NewHistory creates a History for the given decimal frequency.
func NewHistory(frequency float64) (*History, error) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil, fmt.Errorf("%w: decimal frequency %v must be a positive finite number", ErrInvalidFrequency, frequency)
	}
	return &History{frequency: frequency}, nil
}

// ComputeScores walks every calendar day from startDate to endDate inclusive
// and produces one ScorePoint per day, seeding the score at 0 on the day
// before startDate. A date absent from the completions map counts as a miss,
// not as unknown; the output has no gaps.
func (h *History) ComputeScores(completions map[string]bool, startDate, endDate string) ([]contracts.ScorePoint, error) {
	start, err := time.ParseInLocation(contracts.DateLayout, startDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(contracts.DateLayout, endDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date %s must not be after end date %s", startDate, endDate)
	}

	var points []contracts.ScorePoint
	score := 0.0

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dateStr := day.Format(contracts.DateLayout)
		completed := completions[dateStr]

		score, err = Score(h.frequency, score, completed)
		if err != nil {
			return nil, err
		}

		points = append(points, contracts.ScorePoint{
			Date:      dateStr,
			Score:     score,
			Completed: completed,
		})
	}

	return points, nil
}

// CurrentScore returns the most recent score, or 0 for an empty history.
func CurrentScore(points []contracts.ScorePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Score
}

// ToPercentage converts a score to a whole percentage in [0, 100].
func ToPercentage(score float64) int {
	return int(math.Round(score * 100))
}

// Window is a fixed-capacity ring buffer of score points. Pushing beyond
// capacity drops the oldest entry, keeping the persisted history bounded
// without re-slicing an unbounded list on every write.
type Window struct {
	points []contracts.ScorePoint
	head   int
	size   int
}

// NewWindow creates a Window with the given capacity. Capacity defaults to
// HistoryWindowDays when n <= 0.
func NewWindow(n int) *Window {
	if n <= 0 {
		n = HistoryWindowDays
	}
	return &Window{points: make([]contracts.ScorePoint, n)}
}

// Push appends a point, evicting the oldest when full.
func (w *Window) Push(p contracts.ScorePoint) {
	tail := (w.head + w.size) % len(w.points)
	w.points[tail] = p
	if w.size < len(w.points) {
		w.size++
	} else {
		w.head = (w.head + 1) % len(w.points)
	}
}

// Len returns the number of stored points.
func (w *Window) Len() int {
	return w.size
}

// Points returns the stored points in chronological order.
func (w *Window) Points() []contracts.ScorePoint {
	out := make([]contracts.ScorePoint, 0, w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.points[(w.head+i)%len(w.points)])
	}
	return out
}
