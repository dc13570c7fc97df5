package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"testdesk/internal/errors"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultDatabasePath is the SQLite file used when DATABASE_URL is unset.
const DefaultDatabasePath = "data/scenarios.db"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Import   ImportConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string
	URL    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	UploadLimitMB int
	ReadTimeout   time.Duration
}

// ImportConfig holds workbook import settings
type ImportConfig struct {
	// ProfilePath points to an optional YAML import profile
	ProfilePath    string
	CommitPerSheet bool
	// Overwrite is the default conflict policy for callers that do not choose
	Overwrite bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = *loadServerConfig()
	config.Import = *loadImportConfig()
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite))
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		if driver != DriverSQLite {
			return nil, errors.ConfigInvalid("DATABASE_URL is required for the postgres driver")
		}
		url = DefaultDatabasePath
	}

	return &DatabaseConfig{
		Driver: driver,
		URL:    url,
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		UploadLimitMB: getEnvIntOrDefault("UPLOAD_LIMIT_MB", 32),
		ReadTimeout:   getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
	}
}

func loadImportConfig() *ImportConfig {
	return &ImportConfig{
		ProfilePath:    getEnvOrDefault("IMPORT_PROFILE", ""),
		CommitPerSheet: getEnvBoolOrDefault("IMPORT_COMMIT_PER_SHEET", false),
		Overwrite:      getEnvBoolOrDefault("IMPORT_OVERWRITE", true),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be sqlite or postgres, got " + config.Database.Driver)
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Server.UploadLimitMB <= 0 {
		return errors.ConfigInvalid("UPLOAD_LIMIT_MB must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
