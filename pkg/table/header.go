package table

import "strconv"

// LooksLikeHeader reports whether every non-empty cell of row is non-numeric
// text. A row with no non-empty cells qualifies.
func LooksLikeHeader(row Row) bool {
	for _, c := range row {
		if c != "" && IsNumeric(c) {
			return false
		}
	}
	return true
}

// PromoteHeader splits g into column labels and data rows.
//
// With at least two rows, row 0 becomes the labels when the grid carries a
// structural header or when row 0 passes LooksLikeHeader. Otherwise every row
// is data and columns get positional labels "0", "1", ... Header positions
// missing from a short header row also get their positional label.
func PromoteHeader(g Grid) ([]string, []Row) {
	width := g.Width()
	if len(g.Rows) < 2 || !(g.HasHeader || LooksLikeHeader(g.Rows[0])) {
		return positional(width, nil), g.Rows
	}
	return positional(width, g.Rows[0]), g.Rows[1:]
}

// positional returns width labels taken from header where present and
// from the column index elsewhere.
func positional(width int, header Row) []string {
	labels := make([]string, width)
	for i := range labels {
		if i < len(header) {
			labels[i] = header[i]
			continue
		}
		labels[i] = strconv.Itoa(i)
	}
	return labels
}
