package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/logger"
)

// MappingHandler handles habit-mapping API endpoints.
type MappingHandler struct {
	mappings contracts.MappingRepository
	habits   contracts.HabitRepository
	logger   *logger.Logger
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(mappings contracts.MappingRepository, habits contracts.HabitRepository, log *logger.Logger) *MappingHandler {
	return &MappingHandler{
		mappings: mappings,
		habits:   habits,
		logger:   log,
	}
}

var validSources = map[string]bool{
	contracts.SourceAppleWatch:  true,
	contracts.SourceStrava:      true,
	contracts.SourceKilterBoard: true,
}

// List returns a user's mappings, optionally filtered by source type.
// GET /api/mappings?user_id=N[&source=strava]
func (h *MappingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	var mappings []*contracts.HabitMapping
	var err error
	if source := r.URL.Query().Get("source"); source != "" {
		mappings, err = h.mappings.ListByUserAndSource(r.Context(), userID, source)
	} else {
		mappings, err = h.mappings.ListByUser(r.Context(), userID)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list mappings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve mappings")
		return
	}

	respondJSON(w, http.StatusOK, mappings)
}

// Get returns one mapping.
// GET /api/mappings/{id}
func (h *MappingHandler) Get(w http.ResponseWriter, r *http.Request) {
	mappingID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid mapping id")
		return
	}

	mapping, err := h.mappings.GetByID(r.Context(), mappingID)
	if err != nil {
		if errors.Is(err, contracts.ErrMappingNotFound) {
			respondError(w, http.StatusNotFound, "Mapping not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get mapping")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve mapping")
		return
	}

	respondJSON(w, http.StatusOK, mapping)
}

// Create creates a new mapping after verifying the target habit exists.
// POST /api/mappings
func (h *MappingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var mapping contracts.HabitMapping
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := h.validate(&mapping); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	habit, err := h.habits.GetByID(r.Context(), mapping.HabitID)
	if err != nil {
		if errors.Is(err, contracts.ErrHabitNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		h.logger.WithError(err).Error("Failed to verify habit for mapping")
		respondError(w, http.StatusInternalServerError, "Failed to create mapping")
		return
	}
	if habit.UserID != mapping.UserID {
		respondError(w, http.StatusForbidden, "Habit belongs to another user")
		return
	}

	if err := h.mappings.Create(r.Context(), &mapping); err != nil {
		h.logger.WithError(err).Error("Failed to create mapping")
		respondError(w, http.StatusInternalServerError, "Failed to create mapping")
		return
	}

	respondJSON(w, http.StatusCreated, mapping)
}

// Update modifies an existing mapping.
// PUT /api/mappings/{id}
func (h *MappingHandler) Update(w http.ResponseWriter, r *http.Request) {
	mappingID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid mapping id")
		return
	}

	existing, err := h.mappings.GetByID(r.Context(), mappingID)
	if err != nil {
		if errors.Is(err, contracts.ErrMappingNotFound) {
			respondError(w, http.StatusNotFound, "Mapping not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load mapping")
		respondError(w, http.StatusInternalServerError, "Failed to update mapping")
		return
	}

	var mapping contracts.HabitMapping
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	mapping.ID = mappingID
	mapping.HabitID = existing.HabitID
	mapping.UserID = existing.UserID
	if msg, ok := h.validate(&mapping); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.mappings.Update(r.Context(), &mapping); err != nil {
		h.logger.WithError(err).Error("Failed to update mapping")
		respondError(w, http.StatusInternalServerError, "Failed to update mapping")
		return
	}

	respondJSON(w, http.StatusOK, mapping)
}

// Delete removes a mapping.
// DELETE /api/mappings/{id}
func (h *MappingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mappingID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid mapping id")
		return
	}

	if err := h.mappings.Delete(r.Context(), mappingID); err != nil {
		if errors.Is(err, contracts.ErrMappingNotFound) {
			respondError(w, http.StatusNotFound, "Mapping not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete mapping")
		respondError(w, http.StatusInternalServerError, "Failed to delete mapping")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MappingHandler) validate(m *contracts.HabitMapping) (string, bool) {
	if m.HabitID <= 0 || m.UserID <= 0 {
		return "habitId and userId are required", false
	}
	if !validSources[m.SourceType] {
		return "sourceType must be one of: apple_watch, strava, kilter_board", false
	}
	return "", true
}
