package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goalconnect/backend/internal/api"
	"github.com/goalconnect/backend/internal/api/handlers"
	"github.com/goalconnect/backend/internal/scheduler"
	"github.com/goalconnect/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server with background jobs.

This command:
- serves habit, mapping and import endpoints
- pushes live score updates over /ws
- runs the nightly rescore and periodic import sync

Endpoints:
  GET  /health                        - Health check
  GET  /ws                            - Live score updates (websocket)
  GET  /api/habits                    - List habits
  POST /api/habits/{id}/logs          - Record a manual completion
  GET  /api/mappings                  - List habit mappings
  POST /api/imports/workouts          - Ingest pushed workouts
  POST /api/imports/strava/sync       - Pull recent Strava activities

Example:
  go run ./cmd/goalconnect api
  go run ./cmd/goalconnect api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// Websocket hub feeds score updates to connected clients.
	hub := api.NewHub(log)
	a.scorer.WithPublisher(hub)

	habitHandler := handlers.NewHabitHandler(a.habits, a.logs, a.scorer, log)
	mappingHandler := handlers.NewMappingHandler(a.mappings, a.habits, log)
	importHandler := handlers.NewImportHandler(a.importer, a.stravaSource(), a.kilterSource(), log)

	router := api.NewRouter(habitHandler, mappingHandler, importHandler, hub, log)
	server := api.New(a.cfg, log, router)

	// Background jobs
	var sched *scheduler.Scheduler
	if a.cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewRescoreJob(a.users, a.scorer, a.cfg, log)); err != nil {
			return fmt.Errorf("add rescore job: %w", err)
		}
		if a.strava != nil || a.kilter != nil {
			job := jobs.NewImportSyncJob(a.users, a.importer, a.stravaSource(), a.kilterSource(), a.cfg, log)
			if err := sched.AddJob(job); err != nil {
				return fmt.Errorf("add import sync job: %w", err)
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
