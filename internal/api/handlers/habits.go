package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/internal/scoring"
	"github.com/goalconnect/backend/pkg/logger"
)

// HabitHandler handles habit-related API endpoints.
type HabitHandler struct {
	habits contracts.HabitRepository
	logs   contracts.HabitLogRepository
	scorer *scoring.Service
	logger *logger.Logger
}

// NewHabitHandler creates a new habit handler.
func NewHabitHandler(
	habits contracts.HabitRepository,
	logs contracts.HabitLogRepository,
	scorer *scoring.Service,
	log *logger.Logger,
) *HabitHandler {
	return &HabitHandler{
		habits: habits,
		logs:   logs,
		scorer: scorer,
		logger: log,
	}
}

// List returns all habits for a user.
// GET /api/habits?user_id=N
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	habits, err := h.habits.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list habits")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve habits")
		return
	}

	respondJSON(w, http.StatusOK, habits)
}

// Get returns one habit with its score history.
// GET /api/habits/{id}
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	habitID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	habit, err := h.habits.GetByID(r.Context(), habitID)
	if err != nil {
		if errors.Is(err, contracts.ErrHabitNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get habit")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve habit")
		return
	}

	respondJSON(w, http.StatusOK, habit)
}

// GetScore returns a habit's current strength.
// GET /api/habits/{id}/score
func (h *HabitHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	habitID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	score, err := h.scorer.CurrentScore(r.Context(), habitID)
	if err != nil {
		if errors.Is(err, contracts.ErrHabitNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get habit score")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"habitId": habitID,
		"score":   score,
	})
}

// ToggleLogRequest represents a manual completion toggle.
type ToggleLogRequest struct {
	UserID    int64  `json:"userId"`
	Date      string `json:"date"` // YYYY-MM-DD, defaults to today (UTC)
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
}

// ToggleLog records a manual completion for a day and rescores the habit.
// Manual entries never carry an auto-complete source, so imports will not
// overwrite them afterwards.
// POST /api/habits/{id}/logs
func (h *HabitHandler) ToggleLog(w http.ResponseWriter, r *http.Request) {
	habitID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	var req ToggleLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(contracts.DateLayout)
	}
	if _, err := time.Parse(contracts.DateLayout, req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	existing, err := h.logs.GetByHabitAndDate(ctx, habitID, req.UserID, req.Date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up habit log")
		respondError(w, http.StatusInternalServerError, "Failed to record log")
		return
	}

	if existing != nil {
		existing.Completed = req.Completed
		if req.Note != "" {
			existing.Note = req.Note
		}
		// A manual toggle takes ownership of the day.
		existing.AutoCompleteSource = ""
		existing.LinkedEventID = nil
		err = h.logs.Update(ctx, existing)
	} else {
		err = h.logs.Create(ctx, &contracts.HabitLog{
			HabitID:   habitID,
			UserID:    req.UserID,
			Date:      req.Date,
			Completed: req.Completed,
			Note:      req.Note,
		})
	}
	if err != nil && !errors.Is(err, contracts.ErrLogConflict) {
		h.logger.WithError(err).Error("Failed to persist habit log")
		respondError(w, http.StatusInternalServerError, "Failed to record log")
		return
	}

	update, err := h.scorer.UpdateScore(ctx, habitID, req.Date)
	if err != nil {
		if errors.Is(err, contracts.ErrHabitNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		h.logger.WithError(err).Error("Failed to rescore habit after log")
		respondError(w, http.StatusInternalServerError, "Log recorded but rescore failed")
		return
	}

	respondJSON(w, http.StatusOK, update)
}

// RescoreRequest represents a rescore trigger.
type RescoreRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today (UTC)
}

// Rescore recomputes a habit's strength on demand.
// POST /api/habits/{id}/rescore
func (h *HabitHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	habitID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid habit id")
		return
	}

	var req RescoreRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(contracts.DateLayout)
	}

	update, err := h.scorer.UpdateScore(r.Context(), habitID, req.Date)
	if err != nil {
		if errors.Is(err, contracts.ErrHabitNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		h.logger.WithError(err).Error("Failed to rescore habit")
		respondError(w, http.StatusInternalServerError, "Failed to rescore habit")
		return
	}

	respondJSON(w, http.StatusOK, update)
}
