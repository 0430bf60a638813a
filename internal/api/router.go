package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/goalconnect/backend/internal/api/handlers"
	"github.com/goalconnect/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	habitHandler *handlers.HabitHandler,
	mappingHandler *handlers.MappingHandler,
	importHandler *handlers.ImportHandler,
	hub *Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Live score updates
	r.HandleFunc("/ws", hub.HandleConnection).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Habit endpoints
	api.HandleFunc("/habits", habitHandler.List).Methods("GET")
	api.HandleFunc("/habits/{id:[0-9]+}", habitHandler.Get).Methods("GET")
	api.HandleFunc("/habits/{id:[0-9]+}/score", habitHandler.GetScore).Methods("GET")
	api.HandleFunc("/habits/{id:[0-9]+}/logs", habitHandler.ToggleLog).Methods("POST")
	api.HandleFunc("/habits/{id:[0-9]+}/rescore", habitHandler.Rescore).Methods("POST")

	// Mapping endpoints
	api.HandleFunc("/mappings", mappingHandler.List).Methods("GET")
	api.HandleFunc("/mappings", mappingHandler.Create).Methods("POST")
	api.HandleFunc("/mappings/{id:[0-9]+}", mappingHandler.Get).Methods("GET")
	api.HandleFunc("/mappings/{id:[0-9]+}", mappingHandler.Update).Methods("PUT")
	api.HandleFunc("/mappings/{id:[0-9]+}", mappingHandler.Delete).Methods("DELETE")

	// Import endpoints
	api.HandleFunc("/imports/workouts", importHandler.ImportWorkouts).Methods("POST")
	api.HandleFunc("/imports/sessions", importHandler.ImportSessions).Methods("POST")
	api.HandleFunc("/imports/strava/sync", importHandler.SyncStrava).Methods("POST")
	api.HandleFunc("/imports/kilter/sync", importHandler.SyncKilter).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "goalconnect-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
