// Package htmltable extracts raw table grids from HTML documents.
package htmltable

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/pkg/source"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// Parse reads an HTML document. r must yield UTF-8.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Regions returns one region per table element of doc, in document order.
func Regions(doc *goquery.Document) []source.Region {
	tables := doc.Find("table")
	logger.Debug("html tables located", "count", tables.Length())

	regions := make([]source.Region, 0, tables.Length())
	tables.Each(func(i int, s *goquery.Selection) {
		regions = append(regions, &region{index: i + 1, sel: s})
	})
	return regions
}

// region is a single table element.
type region struct {
	index int
	sel   *goquery.Selection
}

func (r *region) Name() string {
	return fmt.Sprintf("table %d", r.index)
}

func (r *region) Extract() ([]table.Grid, error) {
	g := Rows(r.sel)
	if len(g.Rows) == 0 {
		return nil, nil
	}
	return []table.Grid{g}, nil
}

// Rows reads the rows of one table selection. Rows are the tr elements in
// document order and cells the th/td elements of each row; rows without any
// cell are dropped.
func Rows(tbl *goquery.Selection) table.Grid {
	b := table.NewBuilder()
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		b.Add(cells...)
	})
	return b.Grid()
}
