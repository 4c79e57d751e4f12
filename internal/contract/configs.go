package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/careai/careai/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit   = 0 // no limit
	MaxResultLimit       = 10000
	DefaultPrecision     = 3
	DefaultMinRecords    = 5
	DefaultMinFitSamples = 10
	DefaultTrees         = 200
	DefaultContamination = 0.12
	DefaultSeed          = 42
	DefaultListen        = "127.0.0.1:8080"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateFormat is the calendar date representation used in reports.
const DateFormat = "2006-01-02"

// Config holds the runtime configuration for triage and assessment.
// This struct remains the "final, validated" config.
type Config struct {
	DataPath    string
	PatientID   string
	ResultLimit int
	Workers     int
	Detail      bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	MinRecords    int
	MinFitSamples int
	Trees         int
	Contamination float64
	Seed          uint64

	Thresholds Thresholds

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string
	Listen    string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	PatientID string

	// --- Fields from rootCmd.PersistentFlags() ---
	Data           string `mapstructure:"data"`
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`

	// --- Model parameters ---
	MinRecords    int     `mapstructure:"min-records"`
	MinFitSamples int     `mapstructure:"min-fit-samples"`
	Trees         int     `mapstructure:"trees"`
	Contamination float64 `mapstructure:"contamination"`
	Seed          uint64  `mapstructure:"seed"`

	// --- Fields from assessCmd.Flags() ---
	Detail bool `mapstructure:"detail"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`

	// --- Clinical thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateModelInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	th, err := ProcessThresholdsRawInput(input.Thresholds)
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	cfg.Thresholds = th
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with 'redis://' or 'rediss://'")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Store Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// Cache and store must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		storeDBPath := cfg.StoreDBConnect
		if storeDBPath == "" {
			storeDBPath = GetStoreDBFilePath()
		}
		if cacheDBPath == storeDBPath {
			return fmt.Errorf("cache and assessment storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the reporting fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.DataPath = strings.TrimSpace(input.Data)
	cfg.PatientID = strings.TrimSpace(input.PatientID)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 1 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Logging ---
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, ok := validLogLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}

	return nil
}

// validateModelInputs validates the batch and isolation forest parameters.
func validateModelInputs(cfg *Config, input *ConfigRawInput) error {
	if input.MinRecords < 1 {
		return fmt.Errorf("min-records must be at least 1 (received %d)", input.MinRecords)
	}
	cfg.MinRecords = input.MinRecords

	if input.MinFitSamples < 2 {
		return fmt.Errorf("min-fit-samples must be at least 2 (received %d)", input.MinFitSamples)
	}
	cfg.MinFitSamples = input.MinFitSamples

	if input.Trees < 1 {
		return fmt.Errorf("trees must be at least 1 (received %d)", input.Trees)
	}
	cfg.Trees = input.Trees

	if input.Contamination <= 0 || input.Contamination > 0.5 {
		return fmt.Errorf("contamination must be in (0, 0.5] (received %.3f)", input.Contamination)
	}
	cfg.Contamination = input.Contamination
	cfg.Seed = input.Seed

	return nil
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// DefaultConfig returns a validated config built from the default values.
func DefaultConfig() *Config {
	return &Config{
		Workers:       DefaultWorkers,
		ResultLimit:   DefaultResultLimit,
		Precision:     DefaultPrecision,
		Output:        schema.TextOut,
		MinRecords:    DefaultMinRecords,
		MinFitSamples: DefaultMinFitSamples,
		Trees:         DefaultTrees,
		Contamination: DefaultContamination,
		Seed:          DefaultSeed,
		Thresholds:    DefaultThresholds(),
		CacheBackend:  schema.NoneBackend,
		StoreBackend:  schema.NoneBackend,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Listen:        DefaultListen,
	}
}

// GetCacheDBFilePath returns the path to the SQLite DB file for score cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".careai_cache.db"
	}
	return filepath.Join(homeDir, ".careai_cache.db")
}

// GetStoreDBFilePath returns the path to the SQLite DB file for assessment history.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".careai_history.db"
	}
	return filepath.Join(homeDir, ".careai_history.db")
}
