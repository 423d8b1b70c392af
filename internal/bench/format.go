package bench

import (
	"fmt"
	"io"
)

// Table header lines.
const (
	HeaderTitle = "Performance Test Results:"
	HeaderRule  = "========================"
)

// FormatLine renders one result line: the label padded (or cut) to 25
// columns followed by average, minimum and maximum in milliseconds.
func FormatLine(m *Measurement) string {
	return fmt.Sprintf("%-25.25s: Avg: %.2fms, Min: %.2fms, Max: %.2fms", m.Label, m.AvgMs, m.MinMs, m.MaxMs)
}

// WriteHeader writes the two header lines.
func WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", HeaderTitle, HeaderRule)
	return err
}

// WriteTable writes the header followed by one line per measurement.
func WriteTable(w io.Writer, measurements []*Measurement) error {
	if err := WriteHeader(w); err != nil {
		return err
	}
	for _, m := range measurements {
		if _, err := fmt.Fprintln(w, FormatLine(m)); err != nil {
			return err
		}
	}
	return nil
}
