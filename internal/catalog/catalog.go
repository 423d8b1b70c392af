// Package catalog stores benchmark runs and their measurements in a SQLite
// results database so later runs can be compared against earlier ones.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	benchErrors "github.com/arkilian/pipebench/internal/errors"
	"github.com/arkilian/pipebench/internal/report"
)

// Catalog records benchmark runs.
type Catalog interface {
	// RecordRun stores a run and all of its measurements atomically.
	RecordRun(ctx context.Context, r *report.Report, configJSON []byte) error

	// PreviousMeasurement returns the most recent measurement of label from a
	// run over the same dataset size, excluding excludeRunID. It returns nil
	// when there is none.
	PreviousMeasurement(ctx context.Context, label string, datasetSize int, excludeRunID string) (*MeasurementRecord, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)

	// Close closes the catalog database connections.
	Close() error
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	DatasetSize int
	Seed        int64
	Parallel    bool
	Iterations  int
	WarmupRuns  int
	ConfigJSON  string
}

// MeasurementRecord is one row of the measurements table.
type MeasurementRecord struct {
	RunID            string
	StartedAt        time.Time
	Label            string
	Iterations       int
	AvgMs            float64
	MinMs            float64
	MaxMs            float64
	MedianMs         float64
	StdDevMs         float64
	P95Ms            float64
	AllocBytesPerRun uint64
	ResultRows       int
	Fingerprint      string
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool
	dbPath string
	mu     sync.Mutex // Write-only lock
}

// NewRunID returns a new time-ordered run identifier.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewCatalog opens (creating if needed) the results database at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	// Write connection: single writer with WAL mode
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	catalog := &SQLiteCatalog{db: db, dbPath: dbPath}

	// Initialize schema before the read pool touches the file
	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to initialize schema: %w", err)
	}

	// mode=ro only takes effect on a file: URI
	readDB, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	catalog.readDB = readDB

	return catalog, nil
}

func (c *SQLiteCatalog) initSchema() error {
	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores a run and its measurements in one transaction.
func (c *SQLiteCatalog) RecordRun(ctx context.Context, r *report.Report, configJSON []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed, "begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, started_at, finished_at, dataset_size, seed,
			parallel, iterations, warmup_runs, config_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(), r.DatasetSize, r.Seed,
		boolToInt(r.Parallel), r.Iterations, r.WarmupRuns, string(configJSON))
	if err != nil {
		return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed,
			fmt.Sprintf("insert run %s", r.RunID), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (
			run_id, label, iterations, avg_ms, min_ms, max_ms, median_ms,
			stddev_ms, p95_ms, alloc_bytes_per_run, result_rows, fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed, "prepare measurement insert", err)
	}
	defer stmt.Close()

	for _, m := range r.Measurements {
		_, err := stmt.ExecContext(ctx,
			r.RunID, m.Label, m.Iterations, m.AvgMs, m.MinMs, m.MaxMs, m.MedianMs,
			m.StdDevMs, m.P95Ms, int64(m.AllocBytesPerRun), m.ResultRows,
			fmt.Sprintf("%016x", m.Fingerprint))
		if err != nil {
			return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed,
				fmt.Sprintf("insert measurement %s", m.Label), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return benchErrors.NewCatalogError(benchErrors.CodeCatalogWriteFailed, "commit run", err)
	}
	return nil
}

// PreviousMeasurement returns the latest earlier measurement for label.
func (c *SQLiteCatalog) PreviousMeasurement(ctx context.Context, label string, datasetSize int, excludeRunID string) (*MeasurementRecord, error) {
	row := c.readDB.QueryRowContext(ctx, `
		SELECT m.run_id, r.started_at, m.label, m.iterations, m.avg_ms, m.min_ms, m.max_ms,
		       m.median_ms, m.stddev_ms, m.p95_ms, m.alloc_bytes_per_run, m.result_rows, m.fingerprint
		FROM measurements m
		JOIN runs r ON r.run_id = m.run_id
		WHERE m.label = ? AND r.dataset_size = ? AND r.run_id != ?
		ORDER BY r.started_at DESC
		LIMIT 1`, label, datasetSize, excludeRunID)

	var (
		rec       MeasurementRecord
		startedAt int64
		alloc     int64
	)
	err := row.Scan(&rec.RunID, &startedAt, &rec.Label, &rec.Iterations, &rec.AvgMs, &rec.MinMs, &rec.MaxMs,
		&rec.MedianMs, &rec.StdDevMs, &rec.P95Ms, &alloc, &rec.ResultRows, &rec.Fingerprint)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, benchErrors.NewCatalogError(benchErrors.CodeCatalogReadFailed,
			fmt.Sprintf("previous measurement for %s", label), err)
	}
	rec.StartedAt = time.Unix(0, startedAt).UTC()
	rec.AllocBytesPerRun = uint64(alloc)
	return &rec, nil
}

// ListRuns returns up to limit runs, newest first.
func (c *SQLiteCatalog) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	rows, err := c.readDB.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, dataset_size, seed, parallel,
		       iterations, warmup_runs, config_json
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, benchErrors.NewCatalogError(benchErrors.CodeCatalogReadFailed, "list runs", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var (
			run               RunRecord
			started, finished int64
			parallel          int
		)
		if err := rows.Scan(&run.RunID, &started, &finished, &run.DatasetSize, &run.Seed, &parallel,
			&run.Iterations, &run.WarmupRuns, &run.ConfigJSON); err != nil {
			return nil, benchErrors.NewCatalogError(benchErrors.CodeCatalogReadFailed, "scan run", err)
		}
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
		run.Parallel = parallel != 0
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, benchErrors.NewCatalogError(benchErrors.CodeCatalogReadFailed, "list runs", err)
	}
	return runs, nil
}

// Close closes both database connections.
func (c *SQLiteCatalog) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
