// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir               string // Directory for the history database, always absolute
	LogLevel              string
	Port                  int
	DevMode               bool
	ConstantsFile         string   // Optional YAML override of the production constants
	AllowedOrigins        []string // Origins allowed to call the API and open the host stream
	HistoryRetentionHours int
	PruneSchedule         string // cron spec for the history prune job
	CheckpointSchedule    string // cron spec for the history WAL checkpoint
	MilestoneFraction     float64
	BatchTarget           int
}

// Load reads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("COMPTROLLER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("COMPTROLLER_PORT", 8010),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ConstantsFile:         getEnv("COMPTROLLER_CONSTANTS_FILE", ""),
		AllowedOrigins:        getEnvAsList("COMPTROLLER_ALLOWED_ORIGINS", []string{"orteil.dashnet.org"}),
		HistoryRetentionHours: getEnvAsInt("HISTORY_RETENTION_HOURS", 24),
		PruneSchedule:         getEnv("HISTORY_PRUNE_SCHEDULE", "@every 10m"),
		CheckpointSchedule:    getEnv("HISTORY_CHECKPOINT_SCHEDULE", "@every 1h"),
		MilestoneFraction:     getEnvAsFloat("MILESTONE_FRACTION", 0.15),
		BatchTarget:           getEnvAsInt("BATCH_TARGET", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is in range
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HistoryRetentionHours <= 0 {
		return fmt.Errorf("history retention must be positive, got %d hours", c.HistoryRetentionHours)
	}
	if c.MilestoneFraction <= 0 {
		return fmt.Errorf("milestone fraction must be positive, got %v", c.MilestoneFraction)
	}
	if c.BatchTarget < 0 {
		return fmt.Errorf("batch target cannot be negative, got %d", c.BatchTarget)
	}
	if c.PruneSchedule == "" {
		return fmt.Errorf("history prune schedule is required")
	}
	if c.CheckpointSchedule == "" {
		return fmt.Errorf("history checkpoint schedule is required")
	}
	return nil
}

// HistoryDBPath is the location of the CPS history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
