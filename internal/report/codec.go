package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var csvHeader = []string{
	"run_id", "label", "iterations", "avg_ms", "min_ms", "max_ms", "median_ms",
	"stddev_ms", "p95_ms", "alloc_bytes_per_run", "result_rows", "fingerprint",
}

func encodeJSON(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("write json: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range r.Measurements {
		row := []string{
			r.RunID,
			m.Label,
			strconv.Itoa(m.Iterations),
			formatFloat(m.AvgMs),
			formatFloat(m.MinMs),
			formatFloat(m.MaxMs),
			formatFloat(m.MedianMs),
			formatFloat(m.StdDevMs),
			formatFloat(m.P95Ms),
			strconv.FormatUint(m.AllocBytesPerRun, 10),
			strconv.Itoa(m.ResultRows),
			formatFingerprint(m.Fingerprint),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePB encodes r as a google.protobuf.Struct.
func encodePB(r *Report) ([]byte, error) {
	msg, err := toStruct(r)
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal pb: %w", err)
	}
	return data, nil
}

// toStruct converts r to a protobuf Struct. Fingerprints are hex strings so
// they survive the float64 number representation.
func toStruct(r *Report) (*structpb.Struct, error) {
	measurements := make([]interface{}, 0, len(r.Measurements))
	for _, m := range r.Measurements {
		measurements = append(measurements, map[string]interface{}{
			"label":               m.Label,
			"iterations":          m.Iterations,
			"avg_ms":              m.AvgMs,
			"min_ms":              m.MinMs,
			"max_ms":              m.MaxMs,
			"median_ms":           m.MedianMs,
			"stddev_ms":           m.StdDevMs,
			"p95_ms":              m.P95Ms,
			"alloc_bytes_per_run": m.AllocBytesPerRun,
			"result_rows":         m.ResultRows,
			"fingerprint":         formatFingerprint(m.Fingerprint),
		})
	}

	fields := map[string]interface{}{
		"run_id":       r.RunID,
		"started_at":   r.StartedAt.Format(time.RFC3339Nano),
		"finished_at":  r.FinishedAt.Format(time.RFC3339Nano),
		"dataset_size": r.DatasetSize,
		"seed":         r.Seed,
		"parallel":     r.Parallel,
		"workers":      r.Workers,
		"iterations":   r.Iterations,
		"warmup_runs":  r.WarmupRuns,
		"measurements": measurements,
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build pb struct: %w", err)
	}
	return msg, nil
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%.4f", value)
}

func formatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
