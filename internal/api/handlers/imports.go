package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/importer"
	"github.com/goalconnect/backend/pkg/logger"
)

// ImportHandler handles import API endpoints. Direct imports carry the
// events in the request body (the Apple Watch companion app pushes its own
// workouts); sync imports pull from a configured provider.
type ImportHandler struct {
	importer *importer.Importer
	strava   importer.WorkoutSource
	kilter   importer.SessionSource
	logger   *logger.Logger
}

// NewImportHandler creates a new import handler. strava and kilter may be
// nil when the provider is not configured.
func NewImportHandler(imp *importer.Importer, strava importer.WorkoutSource, kilter importer.SessionSource, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		importer: imp,
		strava:   strava,
		kilter:   kilter,
		logger:   log,
	}
}

// WorkoutPayload is one pushed workout.
type WorkoutPayload struct {
	ExternalID      int64     `json:"externalId"`
	SourceType      string    `json:"sourceType"`
	WorkoutType     string    `json:"workoutType"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	CaloriesBurned  *int      `json:"caloriesBurned,omitempty"`
}

// ImportWorkoutsRequest carries pushed workouts for one user.
type ImportWorkoutsRequest struct {
	UserID   int64            `json:"userId"`
	Workouts []WorkoutPayload `json:"workouts"`
}

// ImportWorkouts ingests pushed workouts and applies habit matching.
// POST /api/imports/workouts
func (h *ImportHandler) ImportWorkouts(w http.ResponseWriter, r *http.Request) {
	var req ImportWorkoutsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	workouts := make([]*contracts.WorkoutEvent, 0, len(req.Workouts))
	for _, p := range req.Workouts {
		if !validSources[p.SourceType] {
			respondError(w, http.StatusBadRequest, "sourceType must be one of: apple_watch, strava, kilter_board")
			return
		}
		workouts = append(workouts, &contracts.WorkoutEvent{
			ID:              p.ExternalID,
			UserID:          req.UserID,
			SourceType:      p.SourceType,
			WorkoutType:     p.WorkoutType,
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			DurationMinutes: p.DurationMinutes,
			CaloriesBurned:  p.CaloriesBurned,
		})
	}

	summary, err := h.importer.ProcessWorkouts(r.Context(), req.UserID, workouts)
	if err != nil {
		h.logger.WithError(err).Error("Workout import failed")
		respondError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// SessionPayload is one pushed climbing session.
type SessionPayload struct {
	ExternalID        int64  `json:"externalId"`
	SourceType        string `json:"sourceType"`
	SessionDate       string `json:"sessionDate"` // YYYY-MM-DD
	ProblemsAttempted int    `json:"problemsAttempted"`
	ProblemsSent      int    `json:"problemsSent"`
	MaxGrade          string `json:"maxGrade,omitempty"`
	BoardAngle        *int   `json:"boardAngle,omitempty"`
}

// ImportSessionsRequest carries pushed sessions for one user.
type ImportSessionsRequest struct {
	UserID   int64            `json:"userId"`
	Sessions []SessionPayload `json:"sessions"`
}

// ImportSessions ingests pushed climbing sessions and applies habit matching.
// POST /api/imports/sessions
func (h *ImportHandler) ImportSessions(w http.ResponseWriter, r *http.Request) {
	var req ImportSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	sessions := make([]*contracts.ClimbingSession, 0, len(req.Sessions))
	for _, p := range req.Sessions {
		if !validSources[p.SourceType] {
			respondError(w, http.StatusBadRequest, "sourceType must be one of: apple_watch, strava, kilter_board")
			return
		}
		if _, err := time.Parse(contracts.DateLayout, p.SessionDate); err != nil {
			respondError(w, http.StatusBadRequest, "sessionDate must be YYYY-MM-DD")
			return
		}
		sessions = append(sessions, &contracts.ClimbingSession{
			ID:                p.ExternalID,
			UserID:            req.UserID,
			SourceType:        p.SourceType,
			SessionDate:       p.SessionDate,
			ProblemsAttempted: p.ProblemsAttempted,
			ProblemsSent:      p.ProblemsSent,
			MaxGrade:          p.MaxGrade,
			BoardAngle:        p.BoardAngle,
		})
	}

	summary, err := h.importer.ProcessSessions(r.Context(), req.UserID, sessions)
	if err != nil {
		h.logger.WithError(err).Error("Session import failed")
		respondError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// SyncRequest triggers a provider pull for one user.
type SyncRequest struct {
	UserID int64 `json:"userId"`
	// Days bounds how far back to pull; defaults to 7.
	Days int `json:"days"`
}

// SyncStrava pulls recent activities from Strava and applies matching.
// POST /api/imports/strava/sync
func (h *ImportHandler) SyncStrava(w http.ResponseWriter, r *http.Request) {
	if h.strava == nil {
		respondError(w, http.StatusServiceUnavailable, "Strava is not configured")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	after := time.Now().UTC().AddDate(0, 0, -req.Days)
	summary, err := h.importer.SyncWorkouts(r.Context(), h.strava, req.UserID, after)
	if err != nil {
		h.logger.WithError(err).Error("Strava sync failed")
		respondError(w, http.StatusBadGateway, "Strava sync failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// SyncKilter pulls recent sessions from the Kilter Board and applies matching.
// POST /api/imports/kilter/sync
func (h *ImportHandler) SyncKilter(w http.ResponseWriter, r *http.Request) {
	if h.kilter == nil {
		respondError(w, http.StatusServiceUnavailable, "Kilter Board is not configured")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -req.Days).Format(contracts.DateLayout)
	to := now.Format(contracts.DateLayout)
	summary, err := h.importer.SyncSessions(r.Context(), h.kilter, req.UserID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Kilter sync failed")
		respondError(w, http.StatusBadGateway, "Kilter sync failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
