// Package dataset generates the synthetic person records every workload
// operation runs against.
package dataset

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	benchErrors "github.com/arkilian/pipebench/internal/errors"
	"github.com/arkilian/pipebench/pkg/types"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed int64 = 42

// Generation parameters.
const (
	minAge        = 22
	ageSpan       = 43 // ages 22..64
	minSalary     = 30000.0
	salarySpan    = 120000.0 // salaries [30000, 150000)
	maxHireOffset = 3650     // hire dates 1..3650 days before now
)

// Options controls a generation call.
type Options struct {
	// Seed seeds the pseudo-random source
	Seed int64

	// Clock returns the generation instant. It is called once per call.
	// Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns options with the default seed and the wall clock.
func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, Clock: time.Now}
}

func (o Options) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}

// Generate returns count records drawn from a single source seeded with
// opts.Seed. IDs are dense from 1 in generation order. A non-positive count
// yields an empty, non-nil slice.
func Generate(count int, opts Options) []types.Person {
	if count <= 0 {
		return []types.Person{}
	}

	people := make([]types.Person, count)
	rng := rand.New(rand.NewSource(opts.Seed))
	fill(people, 1, rng, opts.now())
	return people
}

// GenerateParallel splits the ID range into workers contiguous chunks and
// fills each from its own source seeded with Seed+chunkIndex. The result is
// reproducible for a fixed (seed, workers) pair but differs from Generate's
// draw order.
func GenerateParallel(ctx context.Context, count int, opts Options, workers int) ([]types.Person, error) {
	if count <= 0 {
		return []types.Person{}, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	people := make([]types.Person, count)
	now := opts.now()
	chunk := (count + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= count {
			break
		}
		end := start + chunk
		if end > count {
			end = count
		}
		seed := opts.Seed + int64(w)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed))
			fill(people[start:end], start+1, rng, now)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, benchErrors.NewSetupError(benchErrors.CodeGenerationFailed, "parallel generation failed", err)
	}
	return people, nil
}

// fill populates dst in place. firstID is the ID of dst[0].
// Draw order per record: name, age, department, salary, hire offset.
func fill(dst []types.Person, firstID int, rng *rand.Rand, now time.Time) {
	for i := range dst {
		id := firstID + i
		name := types.NameTokens[rng.Intn(len(types.NameTokens))]
		age := minAge + rng.Intn(ageSpan)
		dept := types.Departments[rng.Intn(len(types.Departments))]
		salary := minSalary + rng.Float64()*salarySpan
		offset := 1 + rng.Intn(maxHireOffset)

		dst[i] = types.Person{
			ID:         id,
			Name:       name + strconv.Itoa(id),
			Age:        age,
			Department: dept,
			Salary:     salary,
			HireDate:   now.Add(-time.Duration(offset) * 24 * time.Hour),
		}
	}
}

// Head returns the first n records of people, or all of them when n exceeds
// the length. The result shares the backing array.
func Head(people []types.Person, n int) []types.Person {
	if n < 0 {
		n = 0
	}
	if n > len(people) {
		n = len(people)
	}
	return people[:n]
}
