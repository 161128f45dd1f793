// Package config loads the engine configuration from a YAML file with
// environment-variable expansion. Credentials come from the environment
// (optionally via a .env file loaded by the caller).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job engine.
type Config struct {
	APIKey             string        // search provider credential, env-derived
	BaseURL            string        // provider endpoint override, empty for default
	DBPath             string        // SQLite database path
	Roles              []string      // job titles to search
	LocationMode       string        // "india", "australia", or "all"
	MaxResultsPerQuery int           // per-role result cap
	RequestTimeout     time.Duration // per-request HTTP timeout
	RequestDelay       time.Duration // mandatory gap between role searches
	MaxRetries         int           // search attempts per role, including the first
	RetryBaseDelay     time.Duration // backoff before the first retry
	RetentionDays      int           // sweeper age threshold
	ScheduleSpec       string        // cron spec for the schedule daemon
}

// Roles searched when the config file does not override them.
var defaultRoles = []string{
	"Software Engineer",
	"Full Stack Web Developer",
	"Backend Software Developer",
	"Frontend Web Developer",
	"Data Scientist",
	"Machine Learning Engineer",
	"Artificial Intelligence Engineer",
	"Cloud Solutions Architect",
	"DevOps Engineer",
	"Cybersecurity Engineer",
	"Mobile Application Developer",
	"UI UX Designer",
	"Data Engineer",
	"Product Manager",
	"Blockchain Engineer",
}

// Each location mode maps to a fixed search-term set; "Remote" is always
// included.
var locationModes = map[string][]string{
	"india":     {"India", "Remote"},
	"australia": {"Australia", "Remote"},
	"all":       {"India", "Australia", "Remote"},
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	APIKey             string   `yaml:"api_key"`
	BaseURL            string   `yaml:"base_url"`
	DBPath             string   `yaml:"db_path"`
	Roles              []string `yaml:"roles"`
	LocationMode       string   `yaml:"location_mode"`
	MaxResultsPerQuery int      `yaml:"max_results_per_query"`
	RequestTimeout     string   `yaml:"request_timeout"`
	RequestDelay       string   `yaml:"request_delay"`
	MaxRetries         int      `yaml:"max_retries"`
	RetryBaseDelay     string   `yaml:"retry_base_delay"`
	RetentionDays      int      `yaml:"retention_days"`
	ScheduleSpec       string   `yaml:"schedule"`
}

// Load reads and parses the YAML config at path, applies defaults and
// environment fallbacks, validates, and returns the Config. An empty path
// yields a default config driven purely by environment variables.
func Load(path string) (*Config, error) {
	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := &Config{
		APIKey:             raw.APIKey,
		BaseURL:            raw.BaseURL,
		DBPath:             raw.DBPath,
		Roles:              raw.Roles,
		LocationMode:       raw.LocationMode,
		MaxResultsPerQuery: raw.MaxResultsPerQuery,
		MaxRetries:         raw.MaxRetries,
		RetentionDays:      raw.RetentionDays,
		ScheduleSpec:       raw.ScheduleSpec,
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SERPAPI_API_KEY")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "jobs.db"
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = defaultRoles
	}
	if cfg.LocationMode == "" {
		cfg.LocationMode = "india"
	}
	if cfg.MaxResultsPerQuery == 0 {
		cfg.MaxResultsPerQuery = 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 60
	}
	if cfg.ScheduleSpec == "" {
		cfg.ScheduleSpec = "0 6 * * *" // daily at 06:00
	}

	var err error
	cfg.RequestTimeout = 30 * time.Second
	if raw.RequestTimeout != "" {
		cfg.RequestTimeout, err = time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse request_timeout %q: %w", raw.RequestTimeout, err)
		}
	}

	cfg.RequestDelay = 2 * time.Second
	if raw.RequestDelay != "" {
		cfg.RequestDelay, err = time.ParseDuration(raw.RequestDelay)
		if err != nil {
			return nil, fmt.Errorf("parse request_delay %q: %w", raw.RequestDelay, err)
		}
	}

	cfg.RetryBaseDelay = 1 * time.Second
	if raw.RetryBaseDelay != "" {
		cfg.RetryBaseDelay, err = time.ParseDuration(raw.RetryBaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry_base_delay %q: %w", raw.RetryBaseDelay, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate fails fast before any network activity is attempted.
func validate(cfg *Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("api_key is required (set SERPAPI_API_KEY)")
	}
	if _, ok := locationModes[cfg.LocationMode]; !ok {
		return fmt.Errorf("invalid location_mode %q, must be one of india, australia, all", cfg.LocationMode)
	}
	if cfg.MaxResultsPerQuery < 1 {
		return fmt.Errorf("max_results_per_query must be positive, got %d", cfg.MaxResultsPerQuery)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.RequestDelay < 0 {
		return fmt.Errorf("request_delay must not be negative, got %v", cfg.RequestDelay)
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be positive, got %d", cfg.RetentionDays)
	}
	return nil
}

// SearchLocations returns the location search terms for the configured mode.
func (c *Config) SearchLocations() []string {
	return locationModes[c.LocationMode]
}
