package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/arkilian/pipebench/internal/bench"
	"github.com/arkilian/pipebench/internal/config"
)

// readReport reads a report file back, decompressing .sz files.
func readReport(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == CompressedExt {
		return snappy.Decode(nil, data)
	}
	return data, nil
}

func decodePB(data []byte) (*structpb.Struct, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func sampleReport() *Report {
	cfg := config.DefaultConfig()
	cfg.Dataset.Size = 1000
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	measurements := []*bench.Measurement{
		{
			Label:            "Complex Stream Chain",
			Iterations:       5,
			Stats:            bench.Stats{AvgMs: 12.5, MinMs: 11, MaxMs: 14.25, MedianMs: 12, StdDevMs: 1.1, P95Ms: 14.25},
			AllocBytesPerRun: 4096,
			ResultRows:       5,
			Fingerprint:      0xfeedfacecafebeef,
		},
		{
			Label:      "Nested Queries",
			Iterations: 5,
			Stats:      bench.Stats{AvgMs: 40, MinMs: 38, MaxMs: 45},
			ResultRows: 5,
		},
	}
	return New("0190f7a2-1234-7abc-8def-000000000000", cfg, started, started.Add(time.Minute), measurements)
}

func TestFileName(t *testing.T) {
	r := sampleReport()
	if got := FileName(r, config.FormatJSON); got != "bench_20250601T120000Z_0190f7a2.json" {
		t.Errorf("got %q", got)
	}
	if got := FileName(r, config.FormatText); !strings.HasSuffix(got, ".txt") {
		t.Errorf("got %q", got)
	}
}

func TestWriter_AllFormats(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()
	formats := []string{config.FormatText, config.FormatJSON, config.FormatCSV, config.FormatPB}

	paths, err := NewWriter(dir, false).Write(r, formats)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(paths) != len(formats) {
		t.Fatalf("expected %d files, got %d", len(formats), len(paths))
	}
	for i, p := range paths {
		if filepath.Dir(p) != dir || filepath.Base(p) != FileName(r, formats[i]) {
			t.Errorf("unexpected path %s", p)
		}
	}

	// text
	text, err := readReport(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(text)), "\n")
	if len(lines) != 4 || lines[0] != bench.HeaderTitle {
		t.Errorf("unexpected text report:\n%s", text)
	}
	if lines[2] != "Complex Stream Chain     : Avg: 12.50ms, Min: 11.00ms, Max: 14.25ms" {
		t.Errorf("unexpected line %q", lines[2])
	}

	// json
	raw, err := readReport(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.RunID != r.RunID || decoded.DatasetSize != 1000 || len(decoded.Measurements) != 2 {
		t.Errorf("unexpected json report: %+v", decoded)
	}
	if decoded.Measurements[0].AvgMs != 12.5 || decoded.Measurements[0].Fingerprint != 0xfeedfacecafebeef {
		t.Errorf("unexpected measurement: %+v", decoded.Measurements[0])
	}

	// csv
	raw, err = readReport(paths[2])
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "label" || rows[1][1] != "Complex Stream Chain" {
		t.Errorf("unexpected csv rows: %v", rows)
	}
	if rows[1][3] != "12.5000" || rows[1][11] != "feedfacecafebeef" {
		t.Errorf("unexpected csv values: %v", rows[1])
	}

	// pb
	raw, err = readReport(paths[3])
	if err != nil {
		t.Fatal(err)
	}
	msg, err := decodePB(raw)
	if err != nil {
		t.Fatal(err)
	}
	fields := msg.AsMap()
	if fields["run_id"] != r.RunID || fields["dataset_size"] != float64(1000) {
		t.Errorf("unexpected pb fields: %v", fields)
	}
	ms, ok := fields["measurements"].([]interface{})
	if !ok || len(ms) != 2 {
		t.Fatalf("unexpected pb measurements: %v", fields["measurements"])
	}
	first := ms[0].(map[string]interface{})
	if first["label"] != "Complex Stream Chain" || first["fingerprint"] != "feedfacecafebeef" {
		t.Errorf("unexpected pb measurement: %v", first)
	}
}

func TestWriter_Compressed(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	paths, err := NewWriter(dir, true).Write(r, []string{config.FormatJSON})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasSuffix(paths[0], ".json"+CompressedExt) {
		t.Fatalf("expected compressed file name, got %s", paths[0])
	}

	raw, err := readReport(paths[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	plain, err := Encode(r, config.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, plain) {
		t.Error("decompressed report differs from the plain encoding")
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	if _, err := Encode(sampleReport(), "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
