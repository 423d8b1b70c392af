package catalog

// CreateRunsTableSQL creates the runs table: one row per benchmark run.
const CreateRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    dataset_size INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    parallel INTEGER NOT NULL DEFAULT 0,
    iterations INTEGER NOT NULL,
    warmup_runs INTEGER NOT NULL,
    config_json TEXT NOT NULL
)`

// CreateMeasurementsTableSQL creates the measurements table: one row per
// operation per run.
const CreateMeasurementsTableSQL = `
CREATE TABLE IF NOT EXISTS measurements (
    run_id TEXT NOT NULL,
    label TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    avg_ms REAL NOT NULL,
    min_ms REAL NOT NULL,
    max_ms REAL NOT NULL,
    median_ms REAL NOT NULL,
    stddev_ms REAL NOT NULL,
    p95_ms REAL NOT NULL,
    alloc_bytes_per_run INTEGER NOT NULL,
    result_rows INTEGER NOT NULL,
    fingerprint TEXT NOT NULL,
    PRIMARY KEY (run_id, label),
    FOREIGN KEY (run_id) REFERENCES runs(run_id)
)`

// CreateIndexesSQL creates indexes for previous-run lookups.
var CreateIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_size_started ON runs(dataset_size, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_measurements_label ON measurements(label)`,
}

// AllSchemaSQL returns all schema statements in execution order.
func AllSchemaSQL() []string {
	stmts := []string{CreateRunsTableSQL, CreateMeasurementsTableSQL}
	return append(stmts, CreateIndexesSQL...)
}
