package habit

import (
	"fmt"
	"math"
	"testing"

	"github.com/goalconnect/backend/internal/contracts"
)

func TestHistory_ComputeScores(t *testing.T) {
	history, err := NewHistory(1.0)
	if err != nil {
		t.Fatalf("NewHistory failed: %v", err)
	}

	completions := map[string]bool{
		"2025-01-01": true,
		"2025-01-02": true,
		"2025-01-03": true,
		"2025-01-04": false,
	}

	points, err := history.ComputeScores(completions, "2025-01-01", "2025-01-04")
	if err != nil {
		t.Fatalf("ComputeScores failed: %v", err)
	}

	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	// Exact recurrence values for [true, true, true, false] from score 0.
	want := []float64{0.051922, 0.101149, 0.147820, 0.140144}
	for i, w := range want {
		if math.Abs(points[i].Score-w) > 1e-6 {
			t.Errorf("point %d score = %v, want %v", i, points[i].Score, w)
		}
	}

	for i, date := range []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04"} {
		if points[i].Date != date {
			t.Errorf("point %d date = %s, want %s", i, points[i].Date, date)
		}
	}
	if !points[0].Completed || points[3].Completed {
		t.Error("completed flags do not match input")
	}
}

func TestHistory_GapIsAMiss(t *testing.T) {
	history, _ := NewHistory(1.0)

	// Only the first day is present in the map; the rest are gaps.
	completions := map[string]bool{"2025-02-01": true}

	points, err := history.ComputeScores(completions, "2025-02-01", "2025-02-05")
	if err != nil {
		t.Fatalf("ComputeScores failed: %v", err)
	}

	if len(points) != 5 {
		t.Fatalf("got %d points, want 5 (no skipped days)", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Completed {
			t.Errorf("day %s should be a miss", points[i].Date)
		}
		if points[i].Score >= points[i-1].Score {
			t.Errorf("score should decay across gap: %v -> %v", points[i-1].Score, points[i].Score)
		}
	}
}

func TestHistory_SpansMonthBoundary(t *testing.T) {
	history, _ := NewHistory(1.0)

	points, err := history.ComputeScores(map[string]bool{}, "2025-01-30", "2025-02-02")
	if err != nil {
		t.Fatalf("ComputeScores failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
	if points[2].Date != "2025-02-01" {
		t.Errorf("third point date = %s, want 2025-02-01", points[2].Date)
	}
}

func TestHistory_InvalidInput(t *testing.T) {
	if _, err := NewHistory(0); err == nil {
		t.Error("NewHistory(0) should fail")
	}
	if _, err := NewHistory(math.NaN()); err == nil {
		t.Error("NewHistory(NaN) should fail")
	}

	history, _ := NewHistory(1.0)
	if _, err := history.ComputeScores(nil, "not-a-date", "2025-01-04"); err == nil {
		t.Error("invalid start date should fail")
	}
	if _, err := history.ComputeScores(nil, "2025-01-05", "2025-01-04"); err == nil {
		t.Error("start after end should fail")
	}
}

func TestCurrentScore(t *testing.T) {
	if got := CurrentScore(nil); got != 0 {
		t.Errorf("CurrentScore(nil) = %v, want 0", got)
	}

	points := []contracts.ScorePoint{
		{Date: "2025-01-01", Score: 0.3},
		{Date: "2025-01-02", Score: 0.5},
	}
	if got := CurrentScore(points); got != 0.5 {
		t.Errorf("CurrentScore = %v, want 0.5", got)
	}
}

func TestToPercentage(t *testing.T) {
	cases := map[float64]int{0: 0, 0.798: 80, 0.5: 50, 1.0: 100, 0.004: 0}
	for score, want := range cases {
		if got := ToPercentage(score); got != want {
			t.Errorf("ToPercentage(%v) = %d, want %d", score, got, want)
		}
	}
}

func TestWindow_BoundedHistory(t *testing.T) {
	w := NewWindow(HistoryWindowDays)

	for i := 0; i < 45; i++ {
		w.Push(contracts.ScorePoint{Date: fmt.Sprintf("day-%02d", i), Score: float64(i)})
	}

	if w.Len() != HistoryWindowDays {
		t.Fatalf("window length = %d, want %d", w.Len(), HistoryWindowDays)
	}

	points := w.Points()
	if points[0].Date != "day-15" {
		t.Errorf("oldest retained point = %s, want day-15", points[0].Date)
	}
	if points[len(points)-1].Date != "day-44" {
		t.Errorf("newest point = %s, want day-44", points[len(points)-1].Date)
	}

	// Chronological order preserved across wrap-around.
	for i := 1; i < len(points); i++ {
		if points[i].Score <= points[i-1].Score {
			t.Fatalf("points out of order at %d", i)
		}
	}
}

func TestWindow_PartialFill(t *testing.T) {
	w := NewWindow(0) // defaults to HistoryWindowDays

	w.Push(contracts.ScorePoint{Date: "2025-01-01", Score: 0.1})
	w.Push(contracts.ScorePoint{Date: "2025-01-02", Score: 0.2})

	if w.Len() != 2 {
		t.Fatalf("window length = %d, want 2", w.Len())
	}
	points := w.Points()
	if points[0].Date != "2025-01-01" || points[1].Date != "2025-01-02" {
		t.Errorf("unexpected points: %+v", points)
	}
}
