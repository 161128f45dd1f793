package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/futureforge/jobengine/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scraping daemon",
	Long:  "Run an immediate session, then keep scraping on the configured cron schedule until SIGINT/SIGTERM.",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"roles", len(cfg.Roles),
		"location_mode", cfg.LocationMode,
		"schedule", cfg.ScheduleSpec,
	)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(cfg, st, logger)
	sched := scheduler.New(orch, cfg.Roles, cfg.ScheduleSpec, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
