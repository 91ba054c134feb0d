package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// DefaultPreviewRows is the number of rows shown per table.
const DefaultPreviewRows = 10

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// PreviewWriter renders the first rows of each table for a terminal.
type PreviewWriter struct {
	w    io.Writer
	rows int
}

// NewPreviewWriter creates a preview writer showing up to rows rows per
// table. rows <= 0 uses DefaultPreviewRows.
func NewPreviewWriter(w io.Writer, rows int) *PreviewWriter {
	if rows <= 0 {
		rows = DefaultPreviewRows
	}
	return &PreviewWriter{w: w, rows: rows}
}

// Heading returns the summary line for a table, e.g.
// "Table 2 - 14 rows × 3 columns".
func Heading(index int, t table.Table) string {
	return fmt.Sprintf("Table %d - %d rows × %d columns", index, t.NumRows(), t.NumCols())
}

// Write renders a single table.
func (w *PreviewWriter) Write(index int, t table.Table) error {
	head := t.Head(w.rows)
	rows := make([][]string, len(head.Rows))
	for i, r := range head.Rows {
		rows[i] = r
	}

	rendered := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(head.Columns...).
		Rows(rows...).
		String()

	if _, err := fmt.Fprintln(w.w, headingStyle.Render(Heading(index, t))); err != nil {
		return err
	}
	if t.Source != "" {
		if _, err := fmt.Fprintln(w.w, mutedStyle.Render("from "+t.Source)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w.w, rendered); err != nil {
		return err
	}
	if more := t.NumRows() - head.NumRows(); more > 0 {
		if _, err := fmt.Fprintln(w.w, mutedStyle.Render(fmt.Sprintf("… %d more rows", more))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w.w)
	return err
}

// Flush is a no-op; tables are rendered as they are written.
func (w *PreviewWriter) Flush() error {
	return nil
}

// Close flushes the writer.
func (w *PreviewWriter) Close() error {
	return w.Flush()
}
