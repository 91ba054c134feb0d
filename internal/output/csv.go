package output

import (
	"encoding/csv"
	"io"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// CSVWriter writes tables as CSV, header row first. Consecutive tables are
// separated by an empty line.
type CSVWriter struct {
	w       io.Writer
	csv     *csv.Writer
	written int
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w, csv: csv.NewWriter(w)}
}

// Write writes a single table.
func (w *CSVWriter) Write(_ int, t table.Table) error {
	if w.written > 0 {
		w.csv.Flush()
		if _, err := io.WriteString(w.w, "\n"); err != nil {
			return err
		}
	}
	w.written++

	if err := w.csv.WriteAll(t.Records()); err != nil {
		return err
	}
	return w.csv.Error()
}

// Flush flushes the buffer.
func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
