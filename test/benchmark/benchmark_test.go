// Package benchmark provides go test benchmarks for the pipebench pipelines
// and their supporting layers.
package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/arkilian/pipebench/internal/bench"
	"github.com/arkilian/pipebench/internal/catalog"
	"github.com/arkilian/pipebench/internal/config"
	"github.com/arkilian/pipebench/internal/dataset"
	"github.com/arkilian/pipebench/internal/report"
	"github.com/arkilian/pipebench/internal/storage"
	"github.com/arkilian/pipebench/internal/workload"
)

// BenchmarkGenerate measures sequential dataset generation throughput.
func BenchmarkGenerate(b *testing.B) {
	size := benchSize()
	opts := dataset.Options{Seed: dataset.DefaultSeed, Clock: fixedClock}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		people := dataset.Generate(size, opts)
		if len(people) != size {
			b.Fatalf("expected %d records, got %d", size, len(people))
		}
	}

	b.ReportMetric(float64(size*b.N)/b.Elapsed().Seconds(), "records/sec")
}

// BenchmarkGenerateParallel measures chunked generation across workers.
func BenchmarkGenerateParallel(b *testing.B) {
	size := benchSize()
	opts := dataset.Options{Seed: dataset.DefaultSeed, Clock: fixedClock}
	ctx := context.Background()

	for _, workers := range []int{2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := dataset.GenerateParallel(ctx, size, opts, workers); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(float64(size*b.N)/b.Elapsed().Seconds(), "records/sec")
		})
	}
}

// BenchmarkOperations times every pipeline over the shared dataset.
func BenchmarkOperations(b *testing.B) {
	people := benchDataset(b)
	w := workload.New(workload.WithClock(fixedClock))

	for _, op := range w.Operations() {
		b.Run(op.Label, func(b *testing.B) {
			b.ReportAllocs()
			var rows int
			for i := 0; i < b.N; i++ {
				rows = op.Run(people).Len()
			}
			b.ReportMetric(float64(rows), "rows")
			b.ReportMetric(float64(len(people)*b.N)/b.Elapsed().Seconds(), "records/sec")
		})
	}
}

// BenchmarkFingerprint measures output fingerprinting, which the harness
// performs outside the timed window.
func BenchmarkFingerprint(b *testing.B) {
	people := benchDataset(b)
	w := workload.New(workload.WithClock(fixedClock))

	for _, op := range w.Operations() {
		res := op.Run(people)
		b.Run(op.Label, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				res.Fingerprint()
			}
		})
	}
}

// BenchmarkHarnessMeasureAll measures a full harness pass: one warm-up and
// one timed run per operation, with verification.
func BenchmarkHarnessMeasureAll(b *testing.B) {
	people := benchDataset(b)
	ops := workload.New(workload.WithClock(fixedClock)).Operations()
	h := bench.NewHarness(bench.Options{Iterations: 1, WarmupRuns: 1, VerifyOutputs: true})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.MeasureAll(ctx, ops, people); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkReportEncode measures report encoding per format.
func BenchmarkReportEncode(b *testing.B) {
	rep := sampleReport()
	for _, format := range []string{config.FormatText, config.FormatJSON, config.FormatCSV, config.FormatPB} {
		b.Run(format, func(b *testing.B) {
			b.ReportAllocs()
			var size int
			for i := 0; i < b.N; i++ {
				data, err := report.Encode(rep, format)
				if err != nil {
					b.Fatal(err)
				}
				size = len(data)
			}
			b.ReportMetric(float64(size), "bytes")
		})
	}
}

// BenchmarkCatalogRecordRun measures recording a run in the results catalog.
func BenchmarkCatalogRecordRun(b *testing.B) {
	cat, err := catalog.NewCatalog(filepath.Join(b.TempDir(), "results.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer cat.Close()

	ctx := context.Background()
	rep := sampleReport()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rep.RunID = catalog.NewRunID()
		if err := cat.RecordRun(ctx, rep, []byte(`{}`)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLocalPublish measures publishing a set of report files to local
// storage through the batch uploader.
func BenchmarkLocalPublish(b *testing.B) {
	tmpDir := b.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(tmpDir, "published"))
	if err != nil {
		b.Fatal(err)
	}

	paths, err := report.NewWriter(filepath.Join(tmpDir, "reports"), true).
		Write(sampleReport(), []string{config.FormatJSON, config.FormatCSV, config.FormatPB})
	if err != nil {
		b.Fatal(err)
	}

	uploader := storage.NewBatchUploader(store, 4)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := uploader.Upload(ctx, fmt.Sprintf("run_%d", i), paths)
		if err != nil {
			b.Fatal(err)
		}
		if len(result.Errors) > 0 {
			b.Fatalf("upload errors: %v", result.Errors)
		}
	}
}

func sampleReport() *report.Report {
	cfg := config.DefaultConfig()
	measurements := make([]*bench.Measurement, 0, 5)
	for i, label := range []string{
		workload.LabelComplexStreamChain,
		workload.LabelGroupByAggregation,
		workload.LabelStringOperations,
		workload.LabelNestedQueries,
		workload.LabelProjectionWithFilter,
	} {
		ms := float64(10 * (i + 1))
		measurements = append(measurements, &bench.Measurement{
			Label:       label,
			Iterations:  5,
			Stats:       bench.Stats{AvgMs: ms, MinMs: ms - 1, MaxMs: ms + 1, MedianMs: ms},
			ResultRows:  i + 1,
			Fingerprint: uint64(i + 1),
		})
	}
	return report.New(catalog.NewRunID(), cfg, benchNow, benchNow.Add(time.Minute), measurements)
}
