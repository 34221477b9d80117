// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sheet source kinds
const (
	SourceGoogle = "google"
	SourceCSV    = "csv"
)

// Snapshot backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the snapshot database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Sheet    SheetConfig
	Cache    CacheConfig
	Snapshot SnapshotConfig
	Display  DisplayConfig

	MetricsEnabled bool
}

// SheetConfig describes where deal rows come from
type SheetConfig struct {
	Source          string // google or csv
	URLOrKey        string // Google Sheet URL or spreadsheet key
	Worksheet       string // empty = first worksheet
	CredentialsJSON string // service account JSON (takes precedence over the file)
	CredentialsFile string // path to a service account JSON file
	CSVLocation     string // CSV export URL or local file path
}

// CacheConfig controls memoisation of the fetched batch
type CacheConfig struct {
	TTL             time.Duration
	FetchTimeout    time.Duration
	RefreshSchedule string // cron spec for background refresh, empty disables
}

// SnapshotConfig controls persistence of the last good batch
type SnapshotConfig struct {
	Backend             string // sqlite, redis or none
	RedisURL            string
	TTL                 time.Duration
	CleanupSchedule     string
	MaintenanceSchedule string // sqlite integrity check and WAL checkpoint
}

// DisplayConfig controls card formatting
type DisplayConfig struct {
	Locale         string
	CurrencySymbol string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Sheet: SheetConfig{
			Source:          strings.ToLower(getEnv("SHEET_SOURCE", SourceGoogle)),
			URLOrKey:        getEnv("GOOGLE_SHEET_URL", ""),
			Worksheet:       getEnv("SHEET_WORKSHEET", ""),
			CredentialsJSON: getEnv("GCP_SERVICE_ACCOUNT", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			CSVLocation:     getEnv("SHEET_CSV_URL", ""),
		},
		Cache: CacheConfig{
			TTL:             getEnvAsDuration("CACHE_TTL", 5*time.Minute),
			FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second),
			RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		},
		Snapshot: SnapshotConfig{
			Backend:             strings.ToLower(getEnv("SNAPSHOT_BACKEND", BackendSQLite)),
			RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:                 getEnvAsDuration("SNAPSHOT_TTL", 24*time.Hour),
			CleanupSchedule:     getEnv("SNAPSHOT_CLEANUP_SCHEDULE", "@daily"),
			MaintenanceSchedule: getEnv("SNAPSHOT_MAINTENANCE_SCHEDULE", "0 30 3 * * *"),
		},
		Display: DisplayConfig{
			Locale:         getEnv("LOCALE", "en-US"),
			CurrencySymbol: getEnv("CURRENCY_SYMBOL", "$"),
		},
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// REFRESH_SCHEDULE set to an empty string disables the background refresh;
	// unset means the default schedule.
	if _, set := os.LookupEnv("REFRESH_SCHEDULE"); !set {
		cfg.Cache.RefreshSchedule = "@every 5m"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Snapshot.Backend == BackendSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Sheet.Source {
	case SourceGoogle:
		if c.Sheet.URLOrKey == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required when SHEET_SOURCE=%s", SourceGoogle)
		}
	case SourceCSV:
		if c.Sheet.CSVLocation == "" {
			return fmt.Errorf("SHEET_CSV_URL is required when SHEET_SOURCE=%s", SourceCSV)
		}
	default:
		return fmt.Errorf("unknown SHEET_SOURCE %q (must be %s or %s)", c.Sheet.Source, SourceGoogle, SourceCSV)
	}

	switch c.Snapshot.Backend {
	case BackendSQLite, BackendNone:
	case BackendRedis:
		if c.Snapshot.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SNAPSHOT_BACKEND=%s", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.Snapshot.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.Cache.FetchTimeout)
	}

	return nil
}

// SnapshotDBPath returns the path of the SQLite snapshot database
func (c *Config) SnapshotDBPath() string {
	return filepath.Join(c.DataDir, "snapshots.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
