// =============================================================================
// Retail Schema Loader - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration.
//
// LOAD ORDER (later wins):
//   1. Built-in defaults
//   2. The YAML config file, after ${VAR} / ${VAR:-default} expansion
//   3. Environment (MONGO_URI), with .env loaded first and overriding the
//      shell so a stale exported URI never leaks into a run
//   4. CLI flags (applied by the commands, not here)
//
// A missing config file is not an error; the defaults describe a local
// MongoDB and the dataset file in the working directory, which is the whole
// setup for a typical run.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "config.yaml"

// envFile sits in the working directory and overrides the shell environment,
// matching how the reference scripts were driven.
const envFile = ".env"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	Mongo     MongoConfig     `yaml:"mongo"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Load      LoadConfig      `yaml:"load"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Log       LogConfig       `yaml:"log"`
}

// MongoConfig describes the MongoDB connection and collection names.
type MongoConfig struct {
	// URI is the connection string. The MONGO_URI environment variable
	// (including one from .env) overrides it.
	// Default: "mongodb://localhost:27017/retail"
	URI string `yaml:"uri"`

	// Database overrides the database name. Empty takes the name from the
	// URI path, falling back to "retail".
	Database string `yaml:"database"`

	// InvoiceCollection is the transaction-centric collection.
	// Default: "invoices_txn"
	InvoiceCollection string `yaml:"invoice_collection"`

	// CustomerCollection is the customer-centric collection.
	// Default: "customers_centric"
	CustomerCollection string `yaml:"customer_collection"`
}

// DatasetConfig describes the input dataset.
type DatasetConfig struct {
	// File is the dataset path, CSV or XLSX by extension.
	// Default: "Online Retail.xlsx"
	File string `yaml:"file"`

	// MaxRows caps how many data rows are read. Unset falls back to the
	// default; reading the whole dataset is a CLI decision (--max-rows 0).
	// Default: 20000
	MaxRows int `yaml:"max_rows"`

	// ChunkSize streams the load in chunks of roughly this many rows.
	// 0 loads the dataset in a single pass.
	// Default: 0
	ChunkSize int `yaml:"chunk_size"`
}

// SQLiteConfig describes the relational normalization target.
type SQLiteConfig struct {
	// Path is the SQLite database file.
	// Default: "retail.db"
	Path string `yaml:"path"`

	// MaxRows caps how many data rows the normalize run reads.
	// Default: 10000
	MaxRows int `yaml:"max_rows"`
}

// LoadConfig holds load-pass policies.
type LoadConfig struct {
	// DedupeEmbedded appends embedded invoices with set semantics, so
	// re-running a load does not duplicate them.
	// Default: false (reference behavior)
	DedupeEmbedded bool `yaml:"dedupe_embedded"`

	// CreateIndexes builds the secondary indexes at the start of a load.
	// Default: true
	CreateIndexes *bool `yaml:"create_indexes"`
}

// BenchmarkConfig holds benchmark parameters.
type BenchmarkConfig struct {
	// Iterations is the number of timed repetitions per operation.
	// Default: 5
	Iterations int `yaml:"iterations"`

	// ReadLimit caps the transaction-centric read benchmark.
	// Default: 200
	ReadLimit int `yaml:"read_limit"`

	// Explain also captures executionStats for the two read patterns.
	// Default: true
	Explain *bool `yaml:"explain"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "console" for human-readable output or "json".
	// Default: "console"
	Format string `yaml:"format"`
}

// =============================================================================
// LOADING
// =============================================================================

// envPattern matches ${VAR} and ${VAR:-default} in the raw config bytes.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// Load builds the configuration from a YAML file and the environment.
//
// PARAMETERS:
//   - path: The config file path. A nonexistent file yields the defaults.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file exists but cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	// .env first, overriding the shell, so the later MONGO_URI lookup sees
	// the project-local value.
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	config := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(expandEnv(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(config)

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandEnv substitutes ${VAR} and ${VAR:-default} against the environment.
// An unset or empty variable resolves to the default, or to "" without one.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		groups := envPattern.FindSubmatch(match)
		name, fallback := string(groups[1]), groups[3]

		if value := os.Getenv(name); value != "" {
			return []byte(value)
		}
		return fallback
	})
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.Mongo.URI == "" {
		config.Mongo.URI = "mongodb://localhost:27017/retail"
	}
	if config.Mongo.InvoiceCollection == "" {
		config.Mongo.InvoiceCollection = "invoices_txn"
	}
	if config.Mongo.CustomerCollection == "" {
		config.Mongo.CustomerCollection = "customers_centric"
	}
	if config.Dataset.File == "" {
		config.Dataset.File = "Online Retail.xlsx"
	}
	if config.Dataset.MaxRows == 0 {
		config.Dataset.MaxRows = 20000
	}
	if config.SQLite.Path == "" {
		config.SQLite.Path = "retail.db"
	}
	if config.SQLite.MaxRows == 0 {
		config.SQLite.MaxRows = 10000
	}
	if config.Load.CreateIndexes == nil {
		config.Load.CreateIndexes = boolPtr(true)
	}
	if config.Benchmark.Iterations == 0 {
		config.Benchmark.Iterations = 5
	}
	if config.Benchmark.ReadLimit == 0 {
		config.Benchmark.ReadLimit = 200
	}
	if config.Benchmark.Explain == nil {
		config.Benchmark.Explain = boolPtr(true)
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

// validate rejects values no command could run with. Errors name the
// offending key.
func validate(config *Config) error {
	if config.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri: must not be empty")
	}
	if config.Mongo.InvoiceCollection == "" {
		return fmt.Errorf("mongo.invoice_collection: must not be empty")
	}
	if config.Mongo.CustomerCollection == "" {
		return fmt.Errorf("mongo.customer_collection: must not be empty")
	}
	if config.Mongo.InvoiceCollection == config.Mongo.CustomerCollection {
		return fmt.Errorf("mongo.customer_collection: must differ from mongo.invoice_collection")
	}
	if config.Dataset.MaxRows < 0 {
		return fmt.Errorf("dataset.max_rows: must not be negative")
	}
	if config.Dataset.ChunkSize < 0 {
		return fmt.Errorf("dataset.chunk_size: must not be negative")
	}
	if config.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path: must not be empty")
	}
	if config.SQLite.MaxRows < 0 {
		return fmt.Errorf("sqlite.max_rows: must not be negative")
	}
	if config.Benchmark.Iterations < 1 {
		return fmt.Errorf("benchmark.iterations: must be at least 1")
	}
	if config.Benchmark.ReadLimit < 1 {
		return fmt.Errorf("benchmark.read_limit: must be at least 1")
	}

	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q", config.Log.Level)
	}

	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported format %q", config.Log.Format)
	}

	return nil
}

func boolPtr(v bool) *bool { return &v }
