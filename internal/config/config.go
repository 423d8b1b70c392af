// Package config provides unified configuration for pipebench.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	benchErrors "github.com/arkilian/pipebench/internal/errors"
)

// Report format names.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPB   = "pb"
)

// Storage type names.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the unified configuration for a benchmark run.
type Config struct {
	// DataDir is the base directory for reports and the results catalog
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`
	Bench   BenchConfig   `json:"bench" yaml:"bench"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// DatasetConfig controls synthetic dataset generation.
type DatasetConfig struct {
	// Size is the number of records to generate (default 1,000,000)
	Size int `json:"size" yaml:"size"`

	// Seed seeds the generator's pseudo-random source (default 42)
	Seed int64 `json:"seed" yaml:"seed"`

	// Parallel splits generation across Workers goroutines. The resulting
	// dataset differs from the sequential one for the same seed.
	Parallel bool `json:"parallel" yaml:"parallel"`

	// Workers is the number of generator goroutines when Parallel is set
	Workers int `json:"workers" yaml:"workers"`
}

// BenchConfig controls the measurement harness.
type BenchConfig struct {
	// Iterations is the number of timed runs per operation (default 5)
	Iterations int `json:"iterations" yaml:"iterations"`

	// WarmupRuns is the number of unmeasured runs before timing (default 1)
	WarmupRuns int `json:"warmup_runs" yaml:"warmup_runs"`

	// GlobalWarmup runs the first operation once over a small prefix of the
	// dataset before any operation is measured
	GlobalWarmup bool `json:"global_warmup" yaml:"global_warmup"`

	// GlobalWarmupSize is the prefix length used by GlobalWarmup (default 1000)
	GlobalWarmupSize int `json:"global_warmup_size" yaml:"global_warmup_size"`

	// GCBetweenRuns forces a collection before every timed run
	GCBetweenRuns bool `json:"gc_between_runs" yaml:"gc_between_runs"`

	// VerifyOutputs compares every timed run's output fingerprint with the
	// first warm-up run's
	VerifyOutputs bool `json:"verify_outputs" yaml:"verify_outputs"`

	// Operations restricts the run to the named operations. Empty means all.
	Operations []string `json:"operations" yaml:"operations"`
}

// ReportConfig controls report export.
type ReportConfig struct {
	// Dir is the output directory for report files
	Dir string `json:"dir" yaml:"dir"`

	// Formats lists the report formats to write: text, json, csv, pb
	Formats []string `json:"formats" yaml:"formats"`

	// Compress writes snappy-compressed report files (.sz)
	Compress bool `json:"compress" yaml:"compress"`
}

// CatalogConfig controls the SQLite results catalog.
type CatalogConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// StorageConfig holds report publishing configuration.
type StorageConfig struct {
	// Type is the storage type: none, local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to every published object key
	Prefix string `json:"prefix" yaml:"prefix"`

	// Retain keeps only the newest Retain published runs under Prefix and
	// deletes older ones after each publish. 0 keeps everything.
	Retain int `json:"retain" yaml:"retain"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing (MinIO and friends)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/pipebench",
		Dataset: DatasetConfig{
			Size:    1_000_000,
			Seed:    42,
			Workers: 4,
		},
		Bench: BenchConfig{
			Iterations:       5,
			WarmupRuns:       1,
			GlobalWarmup:     true,
			GlobalWarmupSize: 1000,
			GCBetweenRuns:    true,
			VerifyOutputs:    true,
		},
		Report: ReportConfig{
			Formats: []string{FormatText},
		},
		Catalog: CatalogConfig{
			Enabled: false,
		},
		Storage: StorageConfig{
			Type: StorageNone,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/pipebench"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = filepath.Join(c.DataDir, "reports")
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(c.DataDir, "results.db")
	}
	if c.Storage.Type == StorageLocal && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "published")
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{FormatText}
	}
}

// Validate validates the configuration. Every failure is a
// VALIDATION/INVALID_CONFIG error.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return benchErrors.NewValidationError(benchErrors.CodeInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Dataset.Size < 1 {
		return invalid("dataset.size must be at least 1, got %d", c.Dataset.Size)
	}
	if c.Dataset.Parallel && c.Dataset.Workers < 1 {
		return invalid("dataset.workers must be at least 1 when parallel generation is enabled, got %d", c.Dataset.Workers)
	}
	if c.Bench.Iterations < 1 {
		return invalid("bench.iterations must be at least 1, got %d", c.Bench.Iterations)
	}
	if c.Bench.WarmupRuns < 0 {
		return invalid("bench.warmup_runs must not be negative, got %d", c.Bench.WarmupRuns)
	}
	if c.Bench.GlobalWarmup && c.Bench.GlobalWarmupSize < 1 {
		return invalid("bench.global_warmup_size must be at least 1, got %d", c.Bench.GlobalWarmupSize)
	}
	if c.Bench.VerifyOutputs && c.Bench.WarmupRuns < 1 {
		return invalid("bench.verify_outputs requires at least one warm-up run")
	}

	for _, f := range c.Report.Formats {
		switch f {
		case FormatText, FormatJSON, FormatCSV, FormatPB:
		default:
			return invalid("invalid report format: %s (must be text, json, csv, or pb)", f)
		}
	}

	switch c.Storage.Type {
	case StorageNone, StorageLocal, StorageS3:
	default:
		return invalid("invalid storage type: %s (must be none, local, or s3)", c.Storage.Type)
	}
	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return invalid("s3.bucket is required when storage type is s3")
	}
	if c.Storage.Retain < 0 {
		return invalid("storage.retain must not be negative, got %d", c.Storage.Retain)
	}

	return nil
}

// ReportFiles reports whether any file-based report format is configured.
func (c *Config) ReportFiles() bool {
	for _, f := range c.Report.Formats {
		if f != FormatText {
			return true
		}
	}
	return false
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PIPEBENCH_ prefix. A malformed number is an
// INVALID_CONFIG error naming the variable.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("PIPEBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Dataset configuration
	if err := envInt("PIPEBENCH_DATASET_SIZE", &cfg.Dataset.Size); err != nil {
		return err
	}
	if v := os.Getenv("PIPEBENCH_DATASET_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return invalidEnv("PIPEBENCH_DATASET_SEED", v)
		}
		cfg.Dataset.Seed = n
	}
	if v := os.Getenv("PIPEBENCH_DATASET_PARALLEL"); v != "" {
		cfg.Dataset.Parallel = parseBool(v)
	}
	if err := envInt("PIPEBENCH_DATASET_WORKERS", &cfg.Dataset.Workers); err != nil {
		return err
	}

	// Bench configuration
	if err := envInt("PIPEBENCH_BENCH_ITERATIONS", &cfg.Bench.Iterations); err != nil {
		return err
	}
	if err := envInt("PIPEBENCH_BENCH_WARMUP_RUNS", &cfg.Bench.WarmupRuns); err != nil {
		return err
	}
	if v := os.Getenv("PIPEBENCH_BENCH_GLOBAL_WARMUP"); v != "" {
		cfg.Bench.GlobalWarmup = parseBool(v)
	}
	if err := envInt("PIPEBENCH_BENCH_GLOBAL_WARMUP_SIZE", &cfg.Bench.GlobalWarmupSize); err != nil {
		return err
	}
	if v := os.Getenv("PIPEBENCH_BENCH_GC_BETWEEN_RUNS"); v != "" {
		cfg.Bench.GCBetweenRuns = parseBool(v)
	}
	if v := os.Getenv("PIPEBENCH_BENCH_VERIFY_OUTPUTS"); v != "" {
		cfg.Bench.VerifyOutputs = parseBool(v)
	}
	if v := os.Getenv("PIPEBENCH_BENCH_OPERATIONS"); v != "" {
		cfg.Bench.Operations = splitList(v)
	}

	// Report configuration
	if v := os.Getenv("PIPEBENCH_REPORT_DIR"); v != "" {
		cfg.Report.Dir = v
	}
	if v := os.Getenv("PIPEBENCH_REPORT_FORMATS"); v != "" {
		cfg.Report.Formats = splitList(v)
	}
	if v := os.Getenv("PIPEBENCH_REPORT_COMPRESS"); v != "" {
		cfg.Report.Compress = parseBool(v)
	}

	// Catalog configuration
	if v := os.Getenv("PIPEBENCH_CATALOG_ENABLED"); v != "" {
		cfg.Catalog.Enabled = parseBool(v)
	}
	if v := os.Getenv("PIPEBENCH_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// Storage configuration
	if v := os.Getenv("PIPEBENCH_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PIPEBENCH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PIPEBENCH_STORAGE_PREFIX"); v != "" {
		cfg.Storage.Prefix = v
	}
	if v := os.Getenv("PIPEBENCH_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("PIPEBENCH_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("PIPEBENCH_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("PIPEBENCH_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = parseBool(v)
	}
	if err := envInt("PIPEBENCH_STORAGE_RETAIN", &cfg.Storage.Retain); err != nil {
		return err
	}

	return nil
}

// envInt sets *dst from the named variable when it is set.
func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return invalidEnv(name, v)
	}
	*dst = n
	return nil
}

func invalidEnv(name, value string) error {
	return benchErrors.NewValidationError(benchErrors.CodeInvalidConfig,
		fmt.Sprintf("%s: %q is not an integer", name, value))
}

// EnsureDirectories creates the directories the configured outputs write
// to. A stdout-only run creates nothing.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.ReportFiles() {
		dirs = append(dirs, c.Report.Dir)
	}
	if c.Catalog.Enabled {
		dirs = append(dirs, filepath.Dir(c.Catalog.Path))
	}
	if c.Storage.Type == StorageLocal {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
