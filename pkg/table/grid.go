package table

// Row is an ordered sequence of cells.
type Row []string

// Empty reports whether every cell in the row is empty.
func (r Row) Empty() bool {
	for _, c := range r {
		if c != "" {
			return false
		}
	}
	return true
}

// Grid is the raw output of a source adapter for one table: rows of
// normalized cells, not yet rectangular.
type Grid struct {
	Rows []Row

	// HasHeader is set when the source marks row 0 as the header
	// structurally, so header promotion skips the numeric heuristic.
	HasHeader bool
}

// Width returns the cell count of the widest row.
func (g Grid) Width() int {
	w := 0
	for _, r := range g.Rows {
		w = max(w, len(r))
	}
	return w
}

// Builder groups extracted cell tokens into ordered rows. Cells are
// normalized as they are added and rows without any cell are discarded.
type Builder struct {
	rows   []Row
	header bool
}

// NewBuilder creates an empty row builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends one row built from cells. A call with no cells is a no-op.
func (b *Builder) Add(cells ...string) {
	if len(cells) == 0 {
		return
	}
	row := make(Row, len(cells))
	for i, c := range cells {
		row[i] = NormalizeCell(c)
	}
	b.rows = append(b.rows, row)
}

// MarkHeader flags the first row as a structural header.
func (b *Builder) MarkHeader() {
	b.header = true
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int {
	return len(b.rows)
}

// Grid returns the accumulated rows.
func (b *Builder) Grid() Grid {
	return Grid{Rows: b.rows, HasHeader: b.header}
}
