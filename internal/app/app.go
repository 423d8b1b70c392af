// Package app provides the benchmark run lifecycle for pipebench.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/arkilian/pipebench/internal/bench"
	"github.com/arkilian/pipebench/internal/catalog"
	"github.com/arkilian/pipebench/internal/config"
	"github.com/arkilian/pipebench/internal/dataset"
	benchErrors "github.com/arkilian/pipebench/internal/errors"
	"github.com/arkilian/pipebench/internal/report"
	"github.com/arkilian/pipebench/internal/storage"
	"github.com/arkilian/pipebench/internal/workload"
	"github.com/arkilian/pipebench/pkg/types"
)

// publishConcurrency bounds parallel report uploads.
const publishConcurrency = 4

// noFingerprint is the catalog value of a run recorded without verification.
const noFingerprint = "0000000000000000"

// App manages one benchmark process: shared resources plus any number of runs.
type App struct {
	cfg   *config.Config
	clock func() time.Time

	workload *workload.Workload
	harness  *bench.Harness
	ops      []workload.Operation

	// Shared resources, created by Start
	storage storage.ObjectStorage
	catalog catalog.Catalog

	// Lifecycle
	mu      sync.Mutex
	running bool
}

// Option configures an App.
type Option func(*App)

// WithClock sets the clock used for the generation instant, the pipelines'
// "now" and the run timestamps.
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// New creates a new App with the given configuration.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	a.workload = workload.New(workload.WithClock(a.clock))
	ops, err := workload.Select(a.workload.Operations(), cfg.Bench.Operations)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	a.ops = ops

	a.harness = bench.NewHarness(bench.Options{
		Iterations:    cfg.Bench.Iterations,
		WarmupRuns:    cfg.Bench.WarmupRuns,
		GCBetweenRuns: cfg.Bench.GCBetweenRuns,
		VerifyOutputs: cfg.Bench.VerifyOutputs,
	})

	return a, nil
}

// Start creates directories and initializes the shared resources.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("app is already running")
	}

	// Ensure directories exist
	if err := a.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := a.initSharedResources(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	a.running = true
	return nil
}

// initSharedResources initializes publish storage and the results catalog.
func (a *App) initSharedResources(ctx context.Context) error {
	var (
		store storage.ObjectStorage
		err   error
	)

	switch a.cfg.Storage.Type {
	case config.StorageNone:
	case config.StorageLocal:
		store, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case config.StorageS3:
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		store, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store != nil {
		a.storage = storage.WithPrefix(store, a.cfg.Storage.Prefix)
		log.Printf("Storage initialized: type=%s prefix=%q", a.cfg.Storage.Type, a.cfg.Storage.Prefix)
		if a.cfg.Storage.Type == config.StorageS3 {
			log.Printf("S3 Config: Bucket=%s, Region=%s, Endpoint=%s",
				a.cfg.Storage.S3.Bucket, a.cfg.Storage.S3.Region, a.cfg.Storage.S3.Endpoint)
		}
	}

	if a.cfg.Catalog.Enabled {
		cat, err := catalog.NewCatalog(a.cfg.Catalog.Path)
		if err != nil {
			return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed, "failed to open results catalog", err)
		}
		a.catalog = cat
		log.Printf("Results catalog initialized: %s", a.cfg.Catalog.Path)
	}

	return nil
}

// Operations returns the operations this app measures, in reporting order.
func (a *App) Operations() []workload.Operation {
	return a.ops
}

// Run generates the dataset, measures every selected operation and writes
// the result table to stdout. Reports, the catalog record and publishing
// follow when configured.
func (a *App) Run(ctx context.Context, stdout io.Writer) (*report.Report, error) {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("app is not running")
	}

	runID := catalog.NewRunID()
	startedAt := a.clock()

	people, err := a.generate(ctx)
	if err != nil {
		return nil, err
	}

	if a.cfg.Bench.GlobalWarmup && len(a.ops) > 0 {
		warm := dataset.Head(people, a.cfg.Bench.GlobalWarmupSize)
		if err := a.harness.Warmup(a.ops[0], warm); err != nil {
			return nil, err
		}
		log.Printf("Global warm-up: %s over %s records", a.ops[0].Label, humanize.Comma(int64(len(warm))))
	}

	if err := bench.WriteHeader(stdout); err != nil {
		return nil, benchErrors.NewInternalError("write result header", err)
	}
	measurements := make([]*bench.Measurement, 0, len(a.ops))
	for _, op := range a.ops {
		m, err := a.harness.Measure(ctx, op, people)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintln(stdout, bench.FormatLine(m)); err != nil {
			return nil, benchErrors.NewInternalError("write result line", err)
		}
		log.Printf("%s: %d rows, %s allocated per run, median %.2fms, p95 %.2fms",
			m.Label, m.ResultRows, humanize.Bytes(m.AllocBytesPerRun), m.MedianMs, m.P95Ms)
		measurements = append(measurements, m)
	}

	rep := report.New(runID, a.cfg, startedAt, a.clock(), measurements)

	a.logDeltas(ctx, rep)

	paths, err := a.writeReports(rep)
	if err != nil {
		return rep, err
	}
	if err := a.publish(ctx, rep, paths); err != nil {
		return rep, err
	}
	if err := a.record(ctx, rep); err != nil {
		return rep, err
	}

	return rep, nil
}

func (a *App) generate(ctx context.Context) ([]types.Person, error) {
	opts := dataset.Options{Seed: a.cfg.Dataset.Seed, Clock: a.clock}
	size := a.cfg.Dataset.Size

	log.Printf("Generating %s records (seed=%d, parallel=%v)", humanize.Comma(int64(size)), opts.Seed, a.cfg.Dataset.Parallel)
	start := time.Now()

	var people []types.Person
	if a.cfg.Dataset.Parallel {
		var err error
		people, err = dataset.GenerateParallel(ctx, size, opts, a.cfg.Dataset.Workers)
		if err != nil {
			return nil, err
		}
	} else {
		people = dataset.Generate(size, opts)
	}

	log.Printf("Generated %s records in %v", humanize.Comma(int64(len(people))), time.Since(start).Round(time.Millisecond))
	return people, nil
}

// logDeltas logs each measurement against the previous run of the same
// operation and dataset size. Lookup failures are logged, not returned.
func (a *App) logDeltas(ctx context.Context, rep *report.Report) {
	if a.catalog == nil {
		return
	}
	for _, m := range rep.Measurements {
		prev, err := a.catalog.PreviousMeasurement(ctx, m.Label, rep.DatasetSize, rep.RunID)
		if err != nil {
			log.Printf("Previous measurement lookup failed for %s: %v", m.Label, err)
			continue
		}
		if prev == nil || prev.AvgMs == 0 {
			continue
		}
		change := (m.AvgMs - prev.AvgMs) / prev.AvgMs * 100
		log.Printf("%s: avg %.2fms vs %.2fms in run %s (%+.1f%%)", m.Label, m.AvgMs, prev.AvgMs, prev.RunID, change)
		if m.Fingerprint != 0 && prev.Fingerprint != noFingerprint && prev.Fingerprint != fmt.Sprintf("%016x", m.Fingerprint) {
			log.Printf("%s: output fingerprint differs from run %s", m.Label, prev.RunID)
		}
	}
}

func (a *App) writeReports(rep *report.Report) ([]string, error) {
	if !a.cfg.ReportFiles() {
		return nil, nil
	}
	paths, err := report.NewWriter(a.cfg.Report.Dir, a.cfg.Report.Compress).Write(rep, a.cfg.Report.Formats)
	if err != nil {
		return paths, benchErrors.NewInternalError("write reports", err)
	}
	for _, p := range paths {
		log.Printf("Report written: %s", p)
	}
	return paths, nil
}

// publish uploads the written report files under <prefix>/<run id>/.
func (a *App) publish(ctx context.Context, rep *report.Report, paths []string) error {
	if a.storage == nil || len(paths) == 0 {
		return nil
	}

	result, err := storage.NewBatchUploader(a.storage, publishConcurrency).Upload(ctx, rep.RunID, paths)
	if err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeUploadFailed, "publish reports", err)
	}
	if len(result.Errors) > 0 {
		failed := make([]string, 0, len(result.Errors))
		for local := range result.Errors {
			failed = append(failed, local)
		}
		sort.Strings(failed)
		first := result.Errors[failed[0]]
		return benchErrors.NewStorageError(benchErrors.CodeUploadFailed,
			fmt.Sprintf("%d of %d reports failed to publish", len(failed), len(paths)), first).
			WithDetails(map[string]interface{}{"failed": failed})
	}

	for _, obj := range result.Uploaded() {
		exists, err := a.storage.Exists(ctx, obj)
		if err != nil {
			return benchErrors.NewStorageError(benchErrors.CodeUploadFailed, "verify published report "+obj, err)
		}
		if !exists {
			return benchErrors.NewStorageError(benchErrors.CodeObjectNotFound, "published report missing: "+obj, nil)
		}
		log.Printf("Report published: %s", obj)
	}

	return a.prune(ctx, rep.RunID)
}

// prune deletes published runs beyond the newest storage.retain. Run IDs are
// time ordered, so the newest runs sort last. Top-level entries that are not
// run IDs are left alone, and keep is never deleted.
func (a *App) prune(ctx context.Context, keep string) error {
	retain := a.cfg.Storage.Retain
	if retain <= 0 {
		return nil
	}

	objects, err := a.storage.ListObjects(ctx, "")
	if err != nil {
		return benchErrors.NewStorageError(benchErrors.CodeDeleteFailed, "list published runs", err)
	}
	byRun := make(map[string][]string)
	for _, obj := range objects {
		run, _, ok := strings.Cut(obj, "/")
		if !ok {
			continue
		}
		if _, err := uuid.Parse(run); err != nil {
			continue
		}
		byRun[run] = append(byRun[run], obj)
	}
	if len(byRun) <= retain {
		return nil
	}

	runs := make([]string, 0, len(byRun))
	for run := range byRun {
		runs = append(runs, run)
	}
	sort.Strings(runs)

	for _, run := range runs[:len(runs)-retain] {
		if run == keep {
			continue
		}
		for _, obj := range byRun[run] {
			if err := a.storage.Delete(ctx, obj); err != nil {
				return benchErrors.NewStorageError(benchErrors.CodeDeleteFailed, "prune published run "+run, err)
			}
		}
		log.Printf("Pruned published run %s (%d objects)", run, len(byRun[run]))
	}
	return nil
}

func (a *App) record(ctx context.Context, rep *report.Report) error {
	if a.catalog == nil {
		return nil
	}
	snapshot, err := json.Marshal(a.cfg)
	if err != nil {
		return benchErrors.NewInternalError("encode config snapshot", err)
	}
	if err := a.catalog.RecordRun(ctx, rep, snapshot); err != nil {
		return err
	}
	log.Printf("Run %s recorded in %s", rep.RunID, a.cfg.Catalog.Path)
	return nil
}

// PrintHistory writes the n most recent catalog runs to w, newest first.
func (a *App) PrintHistory(ctx context.Context, w io.Writer, n int) error {
	a.mu.Lock()
	cat := a.catalog
	a.mu.Unlock()
	if cat == nil {
		return benchErrors.NewValidationError(benchErrors.CodeInvalidConfig, "history requires the results catalog")
	}

	runs, err := cat.ListRuns(ctx, n)
	if err != nil {
		return err
	}
	for _, run := range runs {
		_, err := fmt.Fprintf(w, "%s  %s  size=%s seed=%d iterations=%d warmup=%d parallel=%v  %v\n",
			run.RunID, run.StartedAt.Format(time.RFC3339), humanize.Comma(int64(run.DatasetSize)), run.Seed,
			run.Iterations, run.WarmupRuns, run.Parallel, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		if err != nil {
			return benchErrors.NewInternalError("write history", err)
		}
	}
	return nil
}

// Stop releases shared resources.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	return a.cleanup()
}

// cleanup releases all shared resources.
func (a *App) cleanup() error {
	var err error
	if a.catalog != nil {
		err = a.catalog.Close()
		a.catalog = nil
	}
	a.storage = nil
	return err
}
