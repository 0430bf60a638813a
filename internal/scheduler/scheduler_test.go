package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/goalconnect/backend/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
}

func (j *stubJob) Name() string                { return j.name }
func (j *stubJob) Schedule() string            { return j.schedule }
func (j *stubJob) Run(_ context.Context) error { return nil }

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(logger.NewNop())

	job := &stubJob{name: "nightly_rescore", schedule: "0 15 0 * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Fatal("expected error adding duplicate job")
	}

	if got := len(s.GetAllJobs()); got != 1 {
		t.Errorf("GetAllJobs() len = %d, want 1", got)
	}
}

func TestAddJobRejectsInvalidSchedule(t *testing.T) {
	s := New(logger.NewNop())

	if err := s.AddJob(&stubJob{name: "bad", schedule: "not a cron spec"}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRunJobUnknownName(t *testing.T) {
	s := New(logger.NewNop())

	if err := s.RunJob("missing"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestJobHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistoryResults+50; i++ {
		h.AddResult(JobResult{JobName: "j", StartTime: time.Now(), Success: i%2 == 0})
	}

	if len(h.Results) != maxHistoryResults {
		t.Errorf("history len = %d, want %d", len(h.Results), maxHistoryResults)
	}
	if rate := h.SuccessRate(); rate < 0.4 || rate > 0.6 {
		t.Errorf("SuccessRate() = %f, want ~0.5", rate)
	}
	if h.LastResult() == nil {
		t.Error("LastResult() = nil after runs")
	}
}
