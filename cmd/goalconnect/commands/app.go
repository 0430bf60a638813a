package commands

import (
	"fmt"

	"github.com/goalconnect/backend/internal/autocomplete"
	"github.com/goalconnect/backend/internal/external/kilter"
	"github.com/goalconnect/backend/internal/external/strava"
	"github.com/goalconnect/backend/internal/importer"
	"github.com/goalconnect/backend/internal/matching"
	"github.com/goalconnect/backend/internal/scoring"
	"github.com/goalconnect/backend/internal/storage"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/database"
	"github.com/goalconnect/backend/pkg/httputil"
	"github.com/goalconnect/backend/pkg/logger"
	"github.com/goalconnect/backend/pkg/redis"
)

// app bundles the wired application components commands run against.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	cache *redis.Cache

	habits   *storage.HabitRepository
	logs     *storage.HabitLogRepository
	mappings *storage.MappingRepository
	workouts *storage.WorkoutRepository
	sessions *storage.SessionRepository
	users    *storage.UserRepository

	scorer   *scoring.Service
	importer *importer.Importer

	// Nil when the provider is not configured.
	strava *strava.Client
	kilter *kilter.Client
}

// newApp loads config and wires the full dependency graph.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, score cache disabled")
		redisClient = nil
	}
	var cache *redis.Cache
	if redisClient != nil && redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "goalconnect")
	}

	habits := storage.NewHabitRepository(db.Pool)
	logs := storage.NewHabitLogRepository(db.Pool)
	mappings := storage.NewMappingRepository(db.Pool)
	workouts := storage.NewWorkoutRepository(db.Pool)
	sessions := storage.NewSessionRepository(db.Pool)
	users := storage.NewUserRepository(db.Pool)

	scorer := scoring.NewService(habits, logs, cache, log)
	matcher := matching.NewEngine(log)
	applier := autocomplete.NewEngine(habits, logs, log)
	imp := importer.New(mappings, workouts, sessions, matcher, applier, scorer, log)

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		cache:    cache,
		habits:   habits,
		logs:     logs,
		mappings: mappings,
		workouts: workouts,
		sessions: sessions,
		users:    users,
		scorer:   scorer,
		importer: imp,
	}

	if cfg.Strava.ClientID != "" && cfg.Strava.RefreshToken != "" {
		// Strava allows 100 requests per 15 minutes; stay well under.
		client := httputil.New(log).WithRateLimit(0.1, 5)
		a.strava = strava.NewClient(cfg.Strava, client, log)
	}
	if cfg.Kilter.Username != "" {
		a.kilter = kilter.NewClient(cfg.Kilter, httputil.New(log), log)
	}

	return a, nil
}

// Close releases database and cache connections.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}

// stravaSource returns the Strava client as an importer source, or nil.
func (a *app) stravaSource() importer.WorkoutSource {
	if a.strava == nil {
		return nil
	}
	return a.strava
}

// kilterSource returns the Kilter client as an importer source, or nil.
func (a *app) kilterSource() importer.SessionSource {
	if a.kilter == nil {
		return nil
	}
	return a.kilter
}
