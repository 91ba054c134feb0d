package output

import (
	"io"

	"github.com/jmylchreest/tabscrape/pkg/export"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// XLSXWriter collects tables and writes them as one workbook on Flush, one
// sheet per table named after its position.
type XLSXWriter struct {
	w      io.Writer
	sheets []export.Sheet
}

// NewXLSXWriter creates an xlsx writer.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

// Write buffers a single table.
func (w *XLSXWriter) Write(index int, t table.Table) error {
	w.sheets = append(w.sheets, export.Sheet{Index: index, Label: export.SheetName(index), Table: t})
	return nil
}

// Flush writes the workbook. Without any table nothing is written.
func (w *XLSXWriter) Flush() error {
	if len(w.sheets) == 0 {
		return nil
	}
	err := export.Write(w.w, w.sheets)
	w.sheets = nil
	return err
}

// Close flushes and closes the writer.
func (w *XLSXWriter) Close() error {
	return w.Flush()
}
