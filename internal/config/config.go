// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/metrics"
	"github.com/dvloznov/finance-metrics/internal/report"
)

// Defaults for the reporting window of the shipped dataset.
const (
	DefaultReportStart = "2024-10-01"
	DefaultReportEnd   = "2024-12-31"
)

// Config holds all settings of the API and CLI.
type Config struct {
	// Server
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int

	// Dataset
	DataSource      string
	HTTPTimeout     time.Duration
	GCSAnonymous    bool
	BigQueryProject string

	// Reporting
	ReportStart       string
	ReportEnd         string
	ReportCacheTTL    time.Duration
	ReportParallelism int
	CountryNamesFile  string

	// Reloads
	ReloadQueueSize  int
	ReloadMaxRetries int

	// Logging
	LogLevel  string
	LogFormat string

	problems []string
}

// Load reads the configuration. envFiles are loaded first when present;
// variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{}
	c.Port = getEnv("PORT", "8080")
	c.RateLimitRPS = c.getFloat("RATE_LIMIT_RPS", 10)
	c.RateLimitBurst = c.getInt("RATE_LIMIT_BURST", 30)

	c.DataSource = getEnv("DATA_SOURCE", "")
	c.HTTPTimeout = c.getDuration("HTTP_TIMEOUT", 60*time.Second)
	c.GCSAnonymous = c.getBool("GCS_ANONYMOUS", false)
	c.BigQueryProject = getEnv("BIGQUERY_PROJECT", "")

	c.ReportStart = getEnv("REPORT_START", DefaultReportStart)
	c.ReportEnd = getEnv("REPORT_END", DefaultReportEnd)
	c.ReportCacheTTL = c.getDuration("REPORT_CACHE_TTL", report.DefaultCacheTTL)
	c.ReportParallelism = c.getInt("REPORT_PARALLELISM", report.DefaultParallelism)
	c.CountryNamesFile = getEnv("COUNTRY_NAMES_FILE", "")

	c.ReloadQueueSize = c.getInt("RELOAD_QUEUE_SIZE", 16)
	c.ReloadMaxRetries = c.getInt("RELOAD_MAX_RETRIES", 2)

	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.LogFormat = getEnv("LOG_FORMAT", logger.FormatConsole)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid setting in a single error.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.problems...)

	if _, err := c.ReportWindow(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.LogFormat) {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be %s or %s, got %q", logger.FormatConsole, logger.FormatJSON, c.LogFormat))
	}
	if c.ReportParallelism <= 0 {
		problems = append(problems, "REPORT_PARALLELISM must be positive")
	}
	if c.ReloadQueueSize < 0 {
		problems = append(problems, "RELOAD_QUEUE_SIZE must not be negative")
	}
	if c.ReloadMaxRetries < 0 {
		problems = append(problems, "RELOAD_MAX_RETRIES must not be negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ReportWindow parses the configured reporting window.
func (c *Config) ReportWindow() (report.Window, error) {
	w, err := report.ParseWindow(c.ReportStart, c.ReportEnd)
	if err != nil {
		return report.Window{}, fmt.Errorf("REPORT_START/REPORT_END: %w", err)
	}
	return w, nil
}

// CountryNames returns the default country names extended by
// CountryNamesFile, a YAML map of code to name.
func (c *Config) CountryNames() (metrics.CountryNames, error) {
	if c.CountryNamesFile == "" {
		return metrics.DefaultCountryNames, nil
	}
	data, err := os.ReadFile(c.CountryNamesFile)
	if err != nil {
		return nil, fmt.Errorf("CountryNames: %w", err)
	}
	extra := map[string]string{}
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("CountryNames: parse %s: %w", c.CountryNamesFile, err)
	}
	return metrics.DefaultCountryNames.Merge(extra), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (c *Config) getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return v
}

func (c *Config) getFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: invalid number %q", key, raw))
		return fallback
	}
	return v
}

func (c *Config) getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: invalid boolean %q", key, raw))
		return fallback
	}
	return v
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return v
}
