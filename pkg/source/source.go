// Package source defines the contract between source adapters and the
// extraction orchestrator.
//
// An adapter turns a document (HTML page, PDF) into an ordered list of
// regions. Each region is a candidate table location that is extracted on
// demand, independently of every other region, so that one failing region
// never affects the rest.
package source

import (
	"fmt"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// Region is a candidate table location: an HTML table element, or a PDF page.
type Region interface {
	// Name identifies the region in diagnostics, e.g. "table 2" or "page 3".
	Name() string

	// Extract returns the raw grids found in the region. A region may
	// legitimately yield no grid.
	Extract() ([]table.Grid, error)
}

// RegionFunc adapts a function to the Region interface.
type RegionFunc struct {
	Label string
	Fn    func() ([]table.Grid, error)
}

// Name returns the region label.
func (r RegionFunc) Name() string {
	return r.Label
}

// Extract calls the wrapped function.
func (r RegionFunc) Extract() ([]table.Grid, error) {
	return r.Fn()
}

// Guard runs fn and turns a panic into an error. PDF libraries panic on
// malformed input; adapters call them through Guard.
func Guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn()
}
