package bench

import (
	"math"
	"sort"
	"time"
)

// Stats summarises the timed runs of one operation. All values are in
// milliseconds.
type Stats struct {
	AvgMs    float64 `json:"avg_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	MedianMs float64 `json:"median_ms"`
	StdDevMs float64 `json:"stddev_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// ComputeStats derives Stats from raw samples. No samples yields zero Stats.
func ComputeStats(samples []time.Duration) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	min, max := samples[0], samples[0]
	var total time.Duration
	for _, s := range samples {
		total += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	avg := toMillis(total) / float64(len(samples))

	var sq float64
	for _, s := range samples {
		d := toMillis(s) - avg
		sq += d * d
	}

	return Stats{
		AvgMs:    avg,
		MinMs:    toMillis(min),
		MaxMs:    toMillis(max),
		MedianMs: toMillis(quantile(samples, 0.5)),
		StdDevMs: math.Sqrt(sq / float64(len(samples))),
		P95Ms:    toMillis(quantile(samples, 0.95)),
	}
}

// quantile returns the nearest-rank q-quantile of samples.
func quantile(samples []time.Duration, q float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	pos := int(math.Ceil(q*float64(len(sorted)))) - 1
	if pos < 0 {
		pos = 0
	}
	if pos >= len(sorted) {
		pos = len(sorted) - 1
	}
	return sorted[pos]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
