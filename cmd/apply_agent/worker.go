package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/worker"
)

var workerCount int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the submission worker pool",
	Long:  "Run a pool of workers that claim pending work items and attempt application submissions until interrupted.",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "Number of concurrent workers (overrides config)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workerCount > 0 {
		cfg.Workers = workerCount
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	runner, cleanup, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	pool := worker.NewPool(database, runner, buildNotifier(cfg), worker.Config{
		Workers:           cfg.Workers,
		PollInterval:      time.Duration(cfg.PollIntervalSecs) * time.Second,
		GlobalDailyLimit:  cfg.GlobalDailyLimit,
		PerCandidateLimit: cfg.PerCandidateLimit,
		// A claim older than twice the attempt timeout can only belong to a
		// worker that died without releasing it.
		StaleClaimAfter: 2 * time.Duration(cfg.AttemptTimeoutSecs) * time.Second,
	})
	return pool.Run(ctx)
}
