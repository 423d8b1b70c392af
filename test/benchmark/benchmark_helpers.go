package benchmark

import (
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/arkilian/pipebench/internal/dataset"
	"github.com/arkilian/pipebench/pkg/types"
)

// defaultBenchSize is the dataset size used when PIPEBENCH_BENCH_SIZE is unset.
const defaultBenchSize = 100_000

// benchNow is the fixed generation instant for every benchmark dataset.
var benchNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var (
	datasetOnce sync.Once
	benchPeople []types.Person
)

// benchSize reads PIPEBENCH_BENCH_SIZE, loading a .env file first if present.
func benchSize() int {
	_ = godotenv.Load()
	if v := os.Getenv("PIPEBENCH_BENCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultBenchSize
}

func fixedClock() time.Time { return benchNow }

// benchDataset returns the shared benchmark dataset, generating it once.
func benchDataset(b *testing.B) []types.Person {
	b.Helper()
	datasetOnce.Do(func() {
		benchPeople = dataset.Generate(benchSize(), dataset.Options{Seed: dataset.DefaultSeed, Clock: fixedClock})
	})
	return benchPeople
}
