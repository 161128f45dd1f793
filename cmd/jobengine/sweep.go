package main

import (
	"fmt"
	"os"

	"github.com/futureforge/jobengine/internal/sweep"
	"github.com/spf13/cobra"
)

var (
	sweepDays   int
	sweepDryRun bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete jobs older than the retention threshold",
	Long:  "Delete jobs whose scraped date is older than the threshold. Use --dry-run to preview without deleting.",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepDays, "days", 0, "age threshold in days (default: retention_days from config)")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report what would be deleted without deleting")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	days := sweepDays
	if days <= 0 {
		days = cfg.RetentionDays
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	result, err := sweep.New(st, logger).Sweep(days, sweepDryRun)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if result.DryRun {
		fmt.Printf("dry run: %d of %d jobs older than %d days would be deleted\n",
			result.WouldDeleteCount, result.TotalBefore, result.DaysThreshold)
		return nil
	}
	fmt.Printf("deleted %d jobs older than %d days (%d -> %d)\n",
		result.DeletedCount, result.DaysThreshold, result.TotalBefore, result.TotalAfter)
	return nil
}
