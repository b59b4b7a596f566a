package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CSVPath         string
	CatalogPath     string // optional; empty means the embedded catalog
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DefaultYear     int
	ReportCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	defaultYear, err := parseIntEnv("DEFAULT_YEAR", 2024)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseIntEnv("REPORT_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CSVPath:         os.Getenv("CSV_PATH"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DefaultYear:     defaultYear,
		ReportCacheSize: cacheSize,
	}

	if cfg.CSVPath == "" {
		return nil, errors.New("CSV_PATH is required")
	}
	if cfg.ReportCacheSize <= 0 {
		return nil, errors.New("REPORT_CACHE_SIZE must be positive")
	}
	if cfg.DefaultYear < 0 {
		return nil, errors.New("DEFAULT_YEAR must not be negative")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
