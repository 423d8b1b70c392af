package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/arkilian/pipebench/internal/bench"
	"github.com/arkilian/pipebench/internal/config"
)

// CompressedExt is appended to the name of snappy-compressed reports.
const CompressedExt = ".sz"

var extensions = map[string]string{
	config.FormatText: ".txt",
	config.FormatJSON: ".json",
	config.FormatCSV:  ".csv",
	config.FormatPB:   ".pb",
}

// Writer writes report files into a directory.
type Writer struct {
	dir      string
	compress bool
}

// NewWriter creates a writer for dir.
func NewWriter(dir string, compress bool) *Writer {
	return &Writer{dir: dir, compress: compress}
}

// FileName returns the base name used for a report in the given format,
// e.g. bench_20250601T120000Z_0190f7a2.json.
func FileName(r *Report, format string) string {
	stamp := r.StartedAt.UTC().Format("20060102T150405Z")
	id := r.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("bench_%s_%s%s", stamp, id, extensions[format])
}

// Write writes r once per format and returns the written paths in format
// order.
func (w *Writer) Write(r *Report, formats []string) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, err := Encode(r, format)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(w.dir, FileName(r, format))
		if w.compress {
			data = snappy.Encode(nil, data)
			path += CompressedExt
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Encode renders r in the given format.
func Encode(r *Report, format string) ([]byte, error) {
	switch format {
	case config.FormatText:
		var buf bytes.Buffer
		if err := bench.WriteTable(&buf, r.Measurements); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case config.FormatJSON:
		return encodeJSON(r)
	case config.FormatCSV:
		return encodeCSV(r)
	case config.FormatPB:
		return encodePB(r)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}
