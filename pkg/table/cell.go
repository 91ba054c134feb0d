// Package table holds the normalized table model and the stages that turn raw
// rows into clean rectangular tables: row building, header promotion and
// cleaning. Every source adapter feeds the same stages.
package table

import (
	"strings"
	"unicode"
)

var numericStripper = strings.NewReplacer(".", "", "-", "")

// NormalizeCell collapses runs of whitespace to a single space and trims the
// result.
func NormalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsNumeric reports whether s reads as a number: once every '.' and '-' is
// removed, what remains is non-empty and made only of digits.
//
// This is a heuristic. Labels such as "2023-24" or "1.5" count as numeric.
func IsNumeric(s string) bool {
	stripped := numericStripper.Replace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
