// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config represents the application configuration
type Config struct {
	// Data locations
	RawDataDir   string
	CleanDataDir string

	// Warehouse loading
	LoadWarehouse bool
	Warehouse     *WarehouseConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RawDataDir:    getEnv("RAW_DATA_DIR", "data/raw"),
		CleanDataDir:  getEnv("CLEAN_DATA_DIR", "data/clean"),
		LoadWarehouse: getEnvAsBool("LOAD_WAREHOUSE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	// The warehouse connection is only required when the star schema
	// load is enabled
	if cfg.LoadWarehouse {
		whConfig, err := LoadWarehouseConfig()
		if err != nil {
			return nil, errors.New("failed to load warehouse configuration: " + err.Error())
		}
		cfg.Warehouse = whConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.RawDataDir == "" {
		return errors.New("raw data directory is required")
	}

	if c.CleanDataDir == "" {
		return errors.New("clean data directory is required")
	}

	if c.RawDataDir == c.CleanDataDir {
		return errors.New("raw and clean data directories must differ")
	}

	if c.LoadWarehouse && c.Warehouse == nil {
		return errors.New("warehouse configuration is required when LOAD_WAREHOUSE is set")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
