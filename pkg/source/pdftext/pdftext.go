// Package pdftext is the fallback PDF adapter. It rebuilds the text lines of
// each page and keeps the ones that look like delimiter-separated table rows.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jmylchreest/tabscrape/pkg/source"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// minCells is the fewest cells a line needs to count as a table row.
const minCells = 2

const (
	// lineTolerance is the baseline distance, in points, within which glyphs
	// share a line.
	lineTolerance = 2.0
	// wordGap and columnGap are horizontal gaps, as a share of the font size,
	// rendered as one and two spaces.
	wordGap   = 0.3
	columnGap = 1.5
)

var spaceRun = regexp.MustCompile(` {2,}`)

// ErrEmptyInput is returned by Open for zero-length input.
var ErrEmptyInput = errors.New("empty PDF content")

// Document is a PDF opened for plain-text extraction.
type Document struct {
	reader *pdf.Reader
}

// Open opens PDF bytes without structural validation.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	r, err := source.Guard(func() (*pdf.Reader, error) {
		return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	})
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{reader: r}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Regions returns one region per page.
func (d *Document) Regions() []source.Region {
	n := d.reader.NumPage()
	regions := make([]source.Region, 0, n)
	for i := 1; i <= n; i++ {
		regions = append(regions, &page{index: i, text: d.pageText(i)})
	}
	return regions
}

func (d *Document) pageText(n int) func() (string, error) {
	return func() (string, error) {
		return source.Guard(func() (string, error) {
			p := d.reader.Page(n)
			if p.V.IsNull() {
				return "", nil
			}
			return strings.Join(Lines(p.Content().Text), "\n"), nil
		})
	}
}

// Lines rebuilds text lines from positioned glyphs, top to bottom. Glyphs
// whose baselines lie within a small tolerance form one line, ordered left
// to right; gaps between glyphs become spaces.
func Lines(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var out []string
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && math.Abs(sorted[i].Y-sorted[start].Y) <= lineTolerance {
			continue
		}
		out = append(out, joinLine(sorted[start:i]))
		start = i
	}
	return out
}

func joinLine(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var sb strings.Builder
	var prev *pdf.Text
	for i := range glyphs {
		g := &glyphs[i]
		if prev != nil && prev.S != " " && g.S != " " {
			size := g.FontSize
			if size <= 0 {
				size = 10
			}
			switch gap := g.X - (prev.X + prev.W); {
			case gap > size*columnGap:
				sb.WriteString("  ")
			case gap > size*wordGap:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
		prev = g
	}
	return sb.String()
}

// FromText returns one region per page text, for text obtained elsewhere.
func FromText(pages ...string) []source.Region {
	regions := make([]source.Region, 0, len(pages))
	for i, text := range pages {
		regions = append(regions, &page{index: i + 1, text: func() (string, error) { return text, nil }})
	}
	return regions
}

// page is a single page of text.
type page struct {
	index int
	text  func() (string, error)
}

func (p *page) Name() string {
	return fmt.Sprintf("page %d", p.index)
}

func (p *page) Extract() ([]table.Grid, error) {
	text, err := p.text()
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	g, ok := ParsePage(text)
	if !ok {
		return nil, nil
	}
	return []table.Grid{g}, nil
}

// ParsePage turns page text into a grid of its qualifying lines. It reports
// false unless at least two lines qualify, so that a header and one data row
// can exist.
func ParsePage(text string) (table.Grid, bool) {
	b := table.NewBuilder()
	for _, line := range strings.Split(text, "\n") {
		if cells, ok := SplitLine(strings.TrimSuffix(line, "\r")); ok {
			b.Add(cells...)
		}
	}
	if b.Len() < 2 {
		return table.Grid{}, false
	}
	return b.Grid(), true
}

// SplitLine splits a candidate table row into trimmed cells.
//
// The delimiter is chosen per line by priority: a pipe, then a tab, then
// runs of two or more spaces when the line has at least three double-space
// occurrences. Lines with no delimiter or fewer than two cells are rejected.
func SplitLine(line string) ([]string, bool) {
	var cells []string
	switch {
	case strings.Contains(line, "|"):
		cells = strings.Split(line, "|")
	case strings.Contains(line, "\t"):
		cells = strings.Split(line, "\t")
	case strings.Count(line, "  ") >= 3:
		cells = spaceRun.Split(line, -1)
	default:
		return nil, false
	}
	if len(cells) < minCells {
		return nil, false
	}
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells, true
}
