package table

// Clean drops duplicate columns (first occurrence of a label wins) and rows
// whose cells are all empty, padding short rows so that every row has one
// cell per column. It reports false when no row or no column survives.
//
// Columns are deduplicated before the empty-row check so that a row whose
// only content sat in a dropped duplicate column is removed too.
func Clean(columns []string, rows []Row) (Table, bool) {
	labels := NewLabels()
	keep := make([]int, 0, len(columns))
	for i, c := range columns {
		if labels.Add(c) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return Table{}, false
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		projected := make(Row, len(keep))
		for j, i := range keep {
			if i < len(r) {
				projected[j] = r[i]
			}
		}
		if projected.Empty() {
			continue
		}
		out = append(out, projected)
	}
	if len(out) == 0 {
		return Table{}, false
	}

	return Table{Columns: labels.Slice(), Rows: out}, true
}
