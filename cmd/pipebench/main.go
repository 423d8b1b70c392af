// Package main implements the pipebench binary: it generates the synthetic
// dataset, times every pipeline and prints one result line per operation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arkilian/pipebench/internal/app"
	"github.com/arkilian/pipebench/internal/config"
	benchErrors "github.com/arkilian/pipebench/internal/errors"
)

var (
	version = "dev"
	commit  = "unknown"
)

// cliFlags holds the parsed command line. set records which flags were given
// explicitly so that only those override file and environment values.
type cliFlags struct {
	configFile string
	dataDir    string
	size       int
	seed       int64
	iterations int
	warmup     int
	parallel   bool
	workers    int
	noGC       bool
	noVerify   bool
	operations string
	reportDir  string
	formats    string
	compress   bool
	catalog    bool
	retain     int
	history    int

	set map[string]bool
}

func main() {
	var (
		f           cliFlags
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&f.dataDir, "data-dir", "", "Base directory for reports and the results catalog")
	flag.IntVar(&f.size, "size", 1_000_000, "Number of records to generate")
	flag.Int64Var(&f.seed, "seed", 42, "Seed for the dataset generator")
	flag.IntVar(&f.iterations, "iterations", 5, "Timed runs per operation")
	flag.IntVar(&f.warmup, "warmup", 1, "Unmeasured warm-up runs per operation")
	flag.BoolVar(&f.parallel, "parallel", false, "Generate the dataset with parallel workers (changes the dataset)")
	flag.IntVar(&f.workers, "workers", 4, "Generator workers when -parallel is set")
	flag.BoolVar(&f.noGC, "no-gc", false, "Do not force a GC before each timed run")
	flag.BoolVar(&f.noVerify, "no-verify", false, "Do not verify that repeated runs produce identical output")
	flag.StringVar(&f.operations, "operations", "", "Comma-separated operation labels to run (default all)")
	flag.StringVar(&f.reportDir, "report-dir", "", "Directory for report files")
	flag.StringVar(&f.formats, "format", "", "Comma-separated report formats: text, json, csv, pb")
	flag.BoolVar(&f.compress, "compress", false, "Snappy-compress report files")
	flag.BoolVar(&f.catalog, "catalog", false, "Record the run in the SQLite results catalog")
	flag.IntVar(&f.retain, "retain", 0, "Keep only the newest N published runs (0 keeps all)")
	flag.IntVar(&f.history, "history", 0, "Print the newest N catalog runs and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pipebench - data pipeline micro-benchmark\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pipebench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pipebench\n")
		fmt.Fprintf(os.Stderr, "  pipebench -size 100000 -iterations 10\n")
		fmt.Fprintf(os.Stderr, "  pipebench -operations \"Nested Queries\" -format json,csv -catalog\n")
		fmt.Fprintf(os.Stderr, "  pipebench -history 10\n")
		fmt.Fprintf(os.Stderr, "  pipebench -config /etc/pipebench/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PIPEBENCH_DATASET_SIZE      Number of records\n")
		fmt.Fprintf(os.Stderr, "  PIPEBENCH_DATASET_SEED      Generator seed\n")
		fmt.Fprintf(os.Stderr, "  PIPEBENCH_BENCH_ITERATIONS  Timed runs per operation\n")
		fmt.Fprintf(os.Stderr, "  PIPEBENCH_REPORT_FORMATS    Report formats\n")
		fmt.Fprintf(os.Stderr, "  PIPEBENCH_STORAGE_TYPE      Publish storage (none, local, s3)\n")
		fmt.Fprintf(os.Stderr, "  A .env file in the working directory is loaded first.\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("pipebench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if err := run(f); err != nil {
		log.Printf("pipebench: %v", err)
		if benchErrors.IsRetryable(err) {
			log.Printf("pipebench: %s failure is transient, rerunning may succeed", benchErrors.GetCategory(err))
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: 2 for configuration
// errors, 1 for everything else.
func exitCode(err error) int {
	if benchErrors.GetCategory(err) == benchErrors.ErrCategoryValidation {
		return 2
	}
	return 1
}

func run(f cliFlags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := application.Stop(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if f.history > 0 {
		return application.PrintHistory(ctx, os.Stdout, f.history)
	}

	_, err = application.Run(ctx, os.Stdout)
	return err
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(f cliFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Start with defaults or load from file
	if f.configFile != "" {
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	// Apply command line flags (highest priority)
	if f.set["data-dir"] {
		cfg.DataDir = f.dataDir
	}
	if f.set["size"] {
		cfg.Dataset.Size = f.size
	}
	if f.set["seed"] {
		cfg.Dataset.Seed = f.seed
	}
	if f.set["iterations"] {
		cfg.Bench.Iterations = f.iterations
	}
	if f.set["warmup"] {
		cfg.Bench.WarmupRuns = f.warmup
	}
	if f.set["parallel"] {
		cfg.Dataset.Parallel = f.parallel
	}
	if f.set["workers"] {
		cfg.Dataset.Workers = f.workers
	}
	if f.set["no-gc"] {
		cfg.Bench.GCBetweenRuns = !f.noGC
	}
	if f.set["no-verify"] {
		cfg.Bench.VerifyOutputs = !f.noVerify
	}
	if f.set["operations"] {
		cfg.Bench.Operations = splitFlagList(f.operations)
	}
	if f.set["report-dir"] {
		cfg.Report.Dir = f.reportDir
	}
	if f.set["format"] {
		cfg.Report.Formats = splitFlagList(f.formats)
	}
	if f.set["compress"] {
		cfg.Report.Compress = f.compress
	}
	if f.set["catalog"] {
		cfg.Catalog.Enabled = f.catalog
	}
	if f.set["retain"] {
		cfg.Storage.Retain = f.retain
	}
	if f.history > 0 {
		cfg.Catalog.Enabled = true
	}

	return cfg, nil
}

func splitFlagList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
