package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Sentinel placement policies for the ranker
const (
	SentinelFirst = "first"
	SentinelLast  = "last"
)

// DateLayout is the layout of every date-valued setting
const DateLayout = "2006-01-02"

// Config holds the application configuration
type Config struct {
	// Calculation
	PercentageDecimals int
	SentinelPolicy     string // "first" or "last"

	// Input extracts
	CalcTablePath string
	RawTablePath  string
	CalcSheet     string
	RawSheet      string

	// Output workbook
	OutputDir        string
	OutputFilename   string
	OutputDatePrefix bool

	// Extraction storage
	StorageType  string // "sqlite" or "postgres"
	SQLitePath   string
	PostgresURL  string
	SchemaPrefix string
	SchemaDate   string // YYYYMMDD or YYYY-MM-DD, empty means this week's Monday
	StartDate    string // YYYY-MM-DD, empty means last week
	EndDate      string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	LogLevel string
}

// Load loads the configuration from environment variables. When envFile is
// empty a .env file in the working directory is used if it exists.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	} else {
		// Load .env file if it exists (ignore error if not found)
		_ = godotenv.Load()
	}

	decimals, err := getEnvInt("PERCENTAGE_DECIMALS", 2)
	if err != nil {
		return nil, err
	}
	datePrefix, err := getEnvBool("OUTPUT_DATE_PREFIX", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		PercentageDecimals: decimals,
		SentinelPolicy:     strings.ToLower(getEnv("SENTINEL_POLICY", SentinelFirst)),
		CalcTablePath:      getEnv("CALC_TABLE_PATH", "data/calculation.xlsx"),
		RawTablePath:       getEnv("RAW_TABLE_PATH", "data/raw.xlsx"),
		CalcSheet:          getEnv("CALC_SHEET", "Result 1"),
		RawSheet:           getEnv("RAW_SHEET", "Result 1"),
		OutputDir:          getEnv("OUTPUT_DIR", "output"),
		OutputFilename:     getEnv("OUTPUT_FILENAME", "delivery_scorecard.xlsx"),
		OutputDatePrefix:   datePrefix,
		StorageType:        getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:         getEnv("SQLITE_PATH", "./extracts.db"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		SchemaPrefix:       getEnv("SCHEMA_PREFIX", "yxwtzb_"),
		SchemaDate:         getEnv("SCHEMA_DATE", ""),
		StartDate:          getEnv("START_DATE", ""),
		EndDate:            getEnv("END_DATE", ""),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "localhost"),
		APIEndpoint:        getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", value)}
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ConfigError{Field: key, Message: fmt.Sprintf("must be a boolean, got %q", value)}
	}
	return b, nil
}

// Validate validates the calculation settings
func (c *Config) Validate() error {
	if c.PercentageDecimals < 0 || c.PercentageDecimals > 10 {
		return &ConfigError{Field: "PERCENTAGE_DECIMALS", Message: "must be between 0 and 10"}
	}
	if c.SentinelPolicy != SentinelFirst && c.SentinelPolicy != SentinelLast {
		return &ConfigError{Field: "SENTINEL_POLICY", Message: "must be 'first' or 'last'"}
	}
	return nil
}

// ValidateStorage validates the settings needed by the extraction commands
func (c *Config) ValidateStorage() error {
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if c.SchemaPrefix == "" {
		return &ConfigError{Field: "SCHEMA_PREFIX", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
