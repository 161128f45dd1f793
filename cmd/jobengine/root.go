package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/futureforge/jobengine/internal/config"
	"github.com/futureforge/jobengine/internal/normalize"
	"github.com/futureforge/jobengine/internal/pacing"
	"github.com/futureforge/jobengine/internal/retry"
	"github.com/futureforge/jobengine/internal/scrape"
	"github.com/futureforge/jobengine/internal/search"
	"github.com/futureforge/jobengine/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobengine",
	Short: "Job ingestion engine — search, dedupe, store",
	Long:  "JobEngine pulls job postings from the search API, resolves application links, and keeps a deduplicated local database.",
	RunE:  runScrape,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBENGINE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBENGINE_CONFIG env var > "./config.yaml"
// A missing default file is fine: config falls back to env vars and defaults.
func loadConfig(path string) (*config.Config, error) {
	// Best effort: pick up SERPAPI_API_KEY and friends from a local .env.
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("JOBENGINE_CONFIG"); env != "" {
			path = env
		} else if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath, logger)
}

// buildOrchestrator wires the full scrape pipeline: search client with a
// request-level rate limiter, retry decorator, normalizer, and the
// inter-role pacer.
func buildOrchestrator(cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) *scrape.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	client := search.NewClient(search.Options{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		MaxResults: cfg.MaxResultsPerQuery,
	}, limiter, httpClient, logger)

	searcher := retry.NewSearcher(client, retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
	}, logger)

	norm := normalize.New(logger)
	pacer := pacing.NewPacer(cfg.RequestDelay)

	return scrape.NewOrchestrator(searcher, norm, st, cfg.SearchLocations(), cfg.LocationMode, cfg.MaxResultsPerQuery, pacer, logger)
}
