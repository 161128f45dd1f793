package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scraping session",
	Long:  "Run a single scraping session over all configured roles, then exit.",
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"roles", len(cfg.Roles),
		"location_mode", cfg.LocationMode,
		"max_results", cfg.MaxResultsPerQuery,
		"request_delay", cfg.RequestDelay.String(),
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
	session := orch.ScrapeRoles(ctx, cfg.Roles)

	fmt.Printf("session finished in %s: %d roles, %d api calls, %d jobs saved (%d direct / %d google / %d unresolved links)\n",
		session.Duration.Round(time.Millisecond),
		session.RolesProcessed,
		session.TotalAPICalls,
		session.TotalJobsSaved,
		session.TotalDirectLinks,
		session.TotalGoogleLinks,
		session.TotalNoLinks,
	)
	for _, r := range session.Results {
		if r.Err != "" {
			fmt.Printf("  %s: FAILED (%s)\n", r.Role, r.Err)
			continue
		}
		fmt.Printf("  %s: %d found, %d saved\n", r.Role, r.JobsFound, r.JobsSaved)
	}
	return nil
}
