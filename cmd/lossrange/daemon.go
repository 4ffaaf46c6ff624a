package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lossrange/lossrange/internal/results"
	"github.com/lossrange/lossrange/internal/scheduler"
	"github.com/lossrange/lossrange/internal/watch"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background service",
	Long: `Warms the results cache for every tree in the trees directory, then
keeps it in sync: file changes invalidate and re-resolve the affected
tree, the refresh schedule recomputes expired runs, and the sweep
schedule purges them. Runs until SIGINT or SIGTERM.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Starting lossrange daemon")

	store, err := results.Open(cfg.ResultsDBPath(), log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.HealthCheck(cmd.Context()); err != nil {
		return fmt.Errorf("results database unhealthy: %w", err)
	}

	resolver := results.NewResolver(store, cfg.SimulationConfig(), cfg.CacheTTL, log)
	refresh := scheduler.NewRefreshJob(cfg.TreesDir, resolver, log)
	sweep := scheduler.NewSweepJob(store, log)

	// Warm the cache before settling in behind the schedules.
	sched := scheduler.New(log)
	if err := sched.RunNow(refresh); err != nil {
		log.Warn().Err(err).Msg("Initial refresh failed")
	}

	if cfg.SchedulerEnabled {
		if err := sched.AddJob(cfg.RefreshSchedule, refresh); err != nil {
			return fmt.Errorf("registering refresh job: %w", err)
		}
		if err := sched.AddJob(cfg.SweepSchedule, sweep); err != nil {
			return fmt.Errorf("registering sweep job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	watcher, err := watch.New(cfg.TreesDir, resolver, 0, log)
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	if count, err := store.Count(cmd.Context()); err == nil {
		log.Info().Int64("cached_runs", count).Msg("Daemon ready")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down daemon")
	return nil
}
