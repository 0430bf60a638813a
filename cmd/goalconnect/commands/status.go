package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd checks connectivity to the backing services.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database and cache connectivity",
	Long: `Check connectivity to PostgreSQL and Redis and print pool statistics.

Example:
  go run ./cmd/goalconnect status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := a.db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	fmt.Println("=== GoalConnect Status ===")
	fmt.Printf("database: healthy (response %s)\n", status.ResponseTime)
	fmt.Printf("  conns: %d acquired, %d idle, %d/%d total\n",
		status.Stats.AcquiredConns, status.Stats.IdleConns,
		status.Stats.TotalConns, status.Stats.MaxConns)

	if a.redis != nil && a.redis.Enabled() {
		if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
			fmt.Printf("redis: unreachable (%v)\n", err)
		} else {
			fmt.Println("redis: healthy")
		}
	} else {
		fmt.Println("redis: disabled")
	}

	fmt.Printf("strava: configured=%v\n", a.strava != nil)
	fmt.Printf("kilter: configured=%v\n", a.kilter != nil)
	return nil
}
