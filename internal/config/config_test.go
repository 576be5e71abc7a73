package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"PORT", "DATA_SOURCE", "REPORT_START", "REPORT_END", "LOG_LEVEL", "LOG_FORMAT",
	"REPORT_CACHE_TTL", "REPORT_PARALLELISM", "RELOAD_QUEUE_SIZE", "RELOAD_MAX_RETRIES",
	"HTTP_TIMEOUT", "GCS_ANONYMOUS", "BIGQUERY_PROJECT", "COUNTRY_NAMES_FILE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.HTTPTimeout != 60*time.Second || cfg.ReloadMaxRetries != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	w, err := cfg.ReportWindow()
	if err != nil {
		t.Fatalf("ReportWindow() error = %v", err)
	}
	if !w.Start.Equal(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", w.Start)
	}
	if !w.End.Equal(time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC)) {
		t.Errorf("End = %v", w.End)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_SOURCE", "gs://bucket/q4.csv")
	t.Setenv("GCS_ANONYMOUS", "true")
	t.Setenv("REPORT_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" || cfg.DataSource != "gs://bucket/q4.csv" || !cfg.GCSAnonymous {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.ReportCacheTTL != 30*time.Second || cfg.RateLimitRPS != 2.5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("BIGQUERY_PROJECT")
	t.Cleanup(func() { os.Unsetenv("BIGQUERY_PROJECT") })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BIGQUERY_PROJECT=finance-prod\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BigQueryProject != "finance-prod" {
		t.Errorf("BigQueryProject = %q", cfg.BigQueryProject)
	}
}

func TestLoad_CollectsProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_PARALLELISM", "many")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("REPORT_START", "2025-01-01")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"REPORT_PARALLELISM", "loud", "REPORT_START"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestCountryNames(t *testing.T) {
	cfg := &Config{}
	names, err := cfg.CountryNames()
	if err != nil {
		t.Fatal(err)
	}
	if names.Name("AU") != "Australia" {
		t.Errorf("default name = %q", names.Name("AU"))
	}

	path := filepath.Join(t.TempDir(), "countries.yaml")
	if err := os.WriteFile(path, []byte("JP: Japan\nAU: Commonwealth of Australia\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.CountryNamesFile = path

	names, err = cfg.CountryNames()
	if err != nil {
		t.Fatalf("CountryNames() error = %v", err)
	}
	if names.Name("JP") != "Japan" || names.Name("AU") != "Commonwealth of Australia" || names.Name("SG") != "Singapore" {
		t.Errorf("merged names = %v", names)
	}

	if err := os.WriteFile(path, []byte("- not a map\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.CountryNames(); err == nil {
		t.Error("expected parse error")
	}
}
