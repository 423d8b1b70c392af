// Package bench times workload operations: warm-up runs, a fixed number of
// measured runs, and summary statistics per operation.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	benchErrors "github.com/arkilian/pipebench/internal/errors"
	"github.com/arkilian/pipebench/internal/workload"
	"github.com/arkilian/pipebench/pkg/types"
)

// Options controls how each operation is measured.
type Options struct {
	// Iterations is the number of timed runs
	Iterations int

	// WarmupRuns is the number of unmeasured runs before timing
	WarmupRuns int

	// GCBetweenRuns forces a collection before each timed run, outside the
	// timed window
	GCBetweenRuns bool

	// VerifyOutputs fails the measurement if any timed run's output differs
	// from the reference run's
	VerifyOutputs bool
}

// DefaultOptions returns one warm-up run, five timed runs, GC between runs
// and output verification.
func DefaultOptions() Options {
	return Options{
		Iterations:    5,
		WarmupRuns:    1,
		GCBetweenRuns: true,
		VerifyOutputs: true,
	}
}

// Measurement is the outcome of timing one operation.
type Measurement struct {
	Label      string          `json:"label"`
	Iterations int             `json:"iterations"`
	Samples    []time.Duration `json:"-"`
	Stats

	// AllocBytesPerRun is the mean heap allocation of one timed run
	AllocBytesPerRun uint64 `json:"alloc_bytes_per_run"`

	// ResultRows is the output row count of the last timed run
	ResultRows int `json:"result_rows"`

	// Fingerprint identifies the output of the timed runs
	Fingerprint uint64 `json:"fingerprint"`
}

// Harness measures operations against a shared dataset snapshot.
type Harness struct {
	opts Options
}

// NewHarness creates a harness. Iterations below 1 are raised to 1.
func NewHarness(opts Options) *Harness {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if opts.WarmupRuns < 0 {
		opts.WarmupRuns = 0
	}
	return &Harness{opts: opts}
}

// Options returns the effective options.
func (h *Harness) Options() Options {
	return h.opts
}

// Warmup runs op once over people without measuring it.
func (h *Harness) Warmup(op workload.Operation, people []types.Person) error {
	_, err := runOnce(op, people)
	return err
}

// Measure runs op WarmupRuns times unmeasured and then Iterations times
// measured. ctx is only checked between runs; a run in progress is never
// interrupted.
func (h *Harness) Measure(ctx context.Context, op workload.Operation, people []types.Person) (*Measurement, error) {
	var (
		reference uint64
		haveRef   bool
	)

	for i := 0; i < h.opts.WarmupRuns; i++ {
		if err := checkContext(ctx, op.Label); err != nil {
			return nil, err
		}
		res, err := runOnce(op, people)
		if err != nil {
			return nil, err
		}
		if h.opts.VerifyOutputs && !haveRef {
			reference, haveRef = res.Fingerprint(), true
		}
	}

	m := &Measurement{
		Label:      op.Label,
		Iterations: h.opts.Iterations,
		Samples:    make([]time.Duration, 0, h.opts.Iterations),
	}

	var totalAlloc uint64
	var before, after runtime.MemStats
	for i := 0; i < h.opts.Iterations; i++ {
		if err := checkContext(ctx, op.Label); err != nil {
			return nil, err
		}
		if h.opts.GCBetweenRuns {
			runtime.GC()
		}

		runtime.ReadMemStats(&before)
		start := time.Now()
		res, err := runOnce(op, people)
		elapsed := time.Since(start)
		runtime.ReadMemStats(&after)
		if err != nil {
			return nil, err
		}

		m.Samples = append(m.Samples, elapsed)
		totalAlloc += after.TotalAlloc - before.TotalAlloc
		m.ResultRows = res.Len()

		if h.opts.VerifyOutputs {
			fp := res.Fingerprint()
			if !haveRef {
				reference, haveRef = fp, true
			}
			if fp != reference {
				return nil, benchErrors.New(benchErrors.ErrCategoryExecution, benchErrors.CodeNondeterministicOutput,
					fmt.Sprintf("%s produced different output on timed run %d", op.Label, i+1)).
					WithDetails(map[string]interface{}{
						"run":      i + 1,
						"expected": reference,
						"actual":   fp,
					})
			}
			m.Fingerprint = fp
		}
	}

	m.Stats = ComputeStats(m.Samples)
	m.AllocBytesPerRun = totalAlloc / uint64(len(m.Samples))
	return m, nil
}

// MeasureAll measures every operation in order and stops at the first error.
func (h *Harness) MeasureAll(ctx context.Context, ops []workload.Operation, people []types.Person) ([]*Measurement, error) {
	results := make([]*Measurement, 0, len(ops))
	for _, op := range ops {
		m, err := h.Measure(ctx, op, people)
		if err != nil {
			return results, err
		}
		results = append(results, m)
	}
	return results, nil
}

// runOnce executes op and converts a panic into an execution error.
func runOnce(op workload.Operation, people []types.Person) (res workload.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = benchErrors.NewExecutionError(benchErrors.CodeOperationFailed,
				fmt.Sprintf("%s failed", op.Label), fmt.Errorf("panic: %v", r))
		}
	}()
	return op.Run(people), nil
}

func checkContext(ctx context.Context, label string) error {
	if err := ctx.Err(); err != nil {
		return benchErrors.NewExecutionError(benchErrors.CodeCancelled,
			fmt.Sprintf("measurement of %s cancelled", label), err)
	}
	return nil
}
