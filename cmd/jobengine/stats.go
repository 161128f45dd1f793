package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("total jobs:       %d\n", stats.TotalJobs)
	fmt.Printf("added last 7d:    %d\n", stats.RecentJobs7d)
	if !stats.LastUpdated.IsZero() {
		fmt.Printf("last updated:     %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	}
	if len(stats.TopLocations) > 0 {
		fmt.Println("top locations:")
		for _, lc := range stats.TopLocations {
			fmt.Printf("  %-30s %d\n", lc.Location, lc.Count)
		}
	}
	return nil
}
