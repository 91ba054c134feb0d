package table

// Labels is an ordered set of column labels. Insertion order is preserved and
// the first occurrence of a label wins; later duplicates are rejected.
type Labels struct {
	order []string
	seen  map[string]bool
}

// NewLabels creates an empty label set.
func NewLabels() *Labels {
	return &Labels{seen: make(map[string]bool)}
}

// Add appends label and reports whether it was new.
func (l *Labels) Add(label string) bool {
	if l.seen[label] {
		return false
	}
	l.seen[label] = true
	l.order = append(l.order, label)
	return true
}

// Slice returns a copy of the labels in insertion order.
func (l *Labels) Slice() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}
