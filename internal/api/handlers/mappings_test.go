package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/logger"
)

type fakeMappingRepo struct {
	mappings map[int64]*contracts.HabitMapping
	nextID   int64
}

func (r *fakeMappingRepo) GetByID(_ context.Context, id int64) (*contracts.HabitMapping, error) {
	m, ok := r.mappings[id]
	if !ok {
		return nil, contracts.ErrMappingNotFound
	}
	return m, nil
}

func (r *fakeMappingRepo) ListByUserAndSource(_ context.Context, userID int64, sourceType string) ([]*contracts.HabitMapping, error) {
	var out []*contracts.HabitMapping
	for _, m := range r.mappings {
		if m.UserID == userID && m.SourceType == sourceType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) ListByUser(_ context.Context, userID int64) ([]*contracts.HabitMapping, error) {
	var out []*contracts.HabitMapping
	for _, m := range r.mappings {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) Create(_ context.Context, m *contracts.HabitMapping) error {
	r.nextID++
	m.ID = r.nextID
	r.mappings[m.ID] = m
	return nil
}

func (r *fakeMappingRepo) Update(_ context.Context, m *contracts.HabitMapping) error {
	if _, ok := r.mappings[m.ID]; !ok {
		return contracts.ErrMappingNotFound
	}
	r.mappings[m.ID] = m
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.mappings[id]; !ok {
		return contracts.ErrMappingNotFound
	}
	delete(r.mappings, id)
	return nil
}

func newMappingHandler(habits map[int64]*contracts.Habit) (*MappingHandler, *fakeMappingRepo) {
	log := logger.NewNop()
	mappingRepo := &fakeMappingRepo{mappings: map[int64]*contracts.HabitMapping{}}
	return NewMappingHandler(mappingRepo, &fakeHabitRepo{habits: habits}, log), mappingRepo
}

func newMappingRouter(h *MappingHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/mappings", h.List).Methods("GET")
	r.HandleFunc("/api/mappings", h.Create).Methods("POST")
	r.HandleFunc("/api/mappings/{id:[0-9]+}", h.Get).Methods("GET")
	r.HandleFunc("/api/mappings/{id:[0-9]+}", h.Update).Methods("PUT")
	r.HandleFunc("/api/mappings/{id:[0-9]+}", h.Delete).Methods("DELETE")
	return r
}

func TestCreateMappingVerifiesHabitOwnership(t *testing.T) {
	h, repo := newMappingHandler(map[int64]*contracts.Habit{10: testHabit(10, 7)})
	router := newMappingRouter(h)

	// Habit owned by another user is rejected.
	body, _ := json.Marshal(contracts.HabitMapping{
		HabitID: 10, UserID: 99, SourceType: contracts.SourceStrava, AutoComplete: true,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/mappings", bytes.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Matching owner succeeds.
	body, _ = json.Marshal(contracts.HabitMapping{
		HabitID: 10, UserID: 7, SourceType: contracts.SourceStrava, AutoComplete: true,
		MatchCriteria: contracts.MatchCriteria{MinDuration: intPtr(30)},
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/mappings", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, repo.mappings, 1)
}

func TestCreateMappingRejectsUnknownSource(t *testing.T) {
	h, _ := newMappingHandler(map[int64]*contracts.Habit{10: testHabit(10, 7)})
	router := newMappingRouter(h)

	body, _ := json.Marshal(contracts.HabitMapping{
		HabitID: 10, UserID: 7, SourceType: "fitbit",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/mappings", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMappingPreservesOwnership(t *testing.T) {
	h, repo := newMappingHandler(map[int64]*contracts.Habit{10: testHabit(10, 7)})
	router := newMappingRouter(h)

	repo.mappings[1] = &contracts.HabitMapping{
		ID: 1, HabitID: 10, UserID: 7, SourceType: contracts.SourceStrava, AutoComplete: true,
	}
	repo.nextID = 1

	// An update cannot move the mapping to another habit or user.
	body, _ := json.Marshal(contracts.HabitMapping{
		HabitID: 55, UserID: 99, SourceType: contracts.SourceKilterBoard,
		AutoComplete: true, AutoIncrement: true,
	})
	req := httptest.NewRequest("PUT", "/api/mappings/1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := repo.mappings[1]
	assert.Equal(t, int64(10), updated.HabitID)
	assert.Equal(t, int64(7), updated.UserID)
	assert.Equal(t, contracts.SourceKilterBoard, updated.SourceType)
	assert.True(t, updated.AutoIncrement)
}

func TestListMappingsFiltersBySource(t *testing.T) {
	h, repo := newMappingHandler(nil)
	router := newMappingRouter(h)

	repo.mappings[1] = &contracts.HabitMapping{ID: 1, HabitID: 10, UserID: 7, SourceType: contracts.SourceStrava}
	repo.mappings[2] = &contracts.HabitMapping{ID: 2, HabitID: 11, UserID: 7, SourceType: contracts.SourceKilterBoard}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/mappings?user_id=7&source=strava", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var mappings []*contracts.HabitMapping
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mappings))
	require.Len(t, mappings, 1)
	assert.Equal(t, contracts.SourceStrava, mappings[0].SourceType)
}

func TestDeleteMapping(t *testing.T) {
	h, repo := newMappingHandler(nil)
	router := newMappingRouter(h)

	repo.mappings[1] = &contracts.HabitMapping{ID: 1, HabitID: 10, UserID: 7, SourceType: contracts.SourceStrava}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/mappings/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.mappings)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/mappings/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func intPtr(v int) *int { return &v }
