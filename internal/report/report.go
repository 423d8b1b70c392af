// Package report exports benchmark results as text, JSON, CSV or protobuf
// files, optionally snappy-compressed.
package report

import (
	"time"

	"github.com/arkilian/pipebench/internal/bench"
	"github.com/arkilian/pipebench/internal/config"
)

// Report is everything recorded about one benchmark run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	DatasetSize int   `json:"dataset_size"`
	Seed        int64 `json:"seed"`
	Parallel    bool  `json:"parallel"`
	Workers     int   `json:"workers,omitempty"`

	Iterations int `json:"iterations"`
	WarmupRuns int `json:"warmup_runs"`

	Measurements []*bench.Measurement `json:"measurements"`
}

// New builds a report from the run configuration and its measurements.
func New(runID string, cfg *config.Config, startedAt, finishedAt time.Time, measurements []*bench.Measurement) *Report {
	r := &Report{
		RunID:        runID,
		StartedAt:    startedAt.UTC(),
		FinishedAt:   finishedAt.UTC(),
		DatasetSize:  cfg.Dataset.Size,
		Seed:         cfg.Dataset.Seed,
		Parallel:     cfg.Dataset.Parallel,
		Iterations:   cfg.Bench.Iterations,
		WarmupRuns:   cfg.Bench.WarmupRuns,
		Measurements: measurements,
	}
	if cfg.Dataset.Parallel {
		r.Workers = cfg.Dataset.Workers
	}
	return r
}
