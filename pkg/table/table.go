package table

// Table is a clean rectangular table: unique column labels and rows with one
// cell per column. A Table produced by Build is never empty.
type Table struct {
	// Source describes where the table came from, e.g. "table 2" or
	// "page 3 table 1".
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Build promotes the header of g and cleans the result. It reports false when
// the grid yields an empty table, which callers drop.
func Build(g Grid) (Table, bool) {
	columns, rows := PromoteHeader(g)
	return Clean(columns, rows)
}

// NumRows returns the number of data rows.
func (t Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t Table) NumCols() int {
	return len(t.Columns)
}

// Records returns the header row followed by the data rows, the layout used
// by spreadsheet and CSV exports.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// Head returns a copy of t limited to its first n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Source: t.Source, Columns: t.Columns, Rows: t.Rows[:n]}
}
