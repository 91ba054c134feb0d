// Package pdflayout is the structure-aware PDF adapter. It validates the
// document with pdfcpu, reads positioned text with ledongthuc/pdf and detects
// tables from the alignment of words on each page.
package pdflayout

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/pkg/source"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

// ErrEmptyInput is returned by Open for zero-length input.
var ErrEmptyInput = errors.New("empty PDF content")

// wordGap is the horizontal gap, as a share of the font size, above which
// two glyphs belong to different words.
const wordGap = 0.3

// Document is a validated PDF ready for table detection.
type Document struct {
	reader *pdf.Reader
	config Config
}

// Open validates and opens PDF bytes. Any failure here means the document
// cannot be read structurally and the caller should fall back to plain text.
func Open(data []byte, cfg Config) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	conf := model.NewDefaultConfiguration()
	if _, err := source.Guard(func() (struct{}, error) {
		return struct{}{}, api.Validate(bytes.NewReader(data), conf)
	}); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	r, err := source.Guard(func() (*pdf.Reader, error) {
		return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	})
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	logger.Debug("pdf opened for layout detection", "pages", r.NumPage())
	return &Document{reader: r, config: cfg}, nil
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
		regions = append(regions, &page{doc: d, index: i})
	}
	return regions
}

type page struct {
	doc   *Document
	index int
}

func (p *page) Name() string {
	return fmt.Sprintf("page %d", p.index)
}

func (p *page) Extract() ([]table.Grid, error) {
	texts, err := source.Guard(func() ([]pdf.Text, error) {
		pg := p.doc.reader.Page(p.index)
		if pg.V.IsNull() {
			return nil, nil
		}
		return pg.Content().Text, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return Detect(Words(texts), p.doc.config), nil
}

// Words merges positioned glyph runs into words. A new word starts at
// whitespace, on a baseline change, at a horizontal gap wider than a share
// of the font size, or when the pen moves backwards.
func Words(texts []pdf.Text) []Word {
	var words []Word
	var cur *Word
	var sb strings.Builder

	flush := func() {
		if cur != nil && sb.Len() > 0 {
			cur.Text = sb.String()
			words = append(words, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, t := range texts {
		runes := []rune(t.S)
		if len(runes) == 0 {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		step := t.W / float64(len(runes))
		for i, r := range runes {
			x := t.X + float64(i)*step
			if unicode.IsSpace(r) {
				flush()
				continue
			}
			if cur != nil {
				gap := x - cur.X1
				if math.Abs(t.Y-cur.Y) > 1 || gap > size*wordGap || gap < -size {
					flush()
				}
			}
			if cur == nil {
				cur = &Word{X0: x, X1: x, Y: t.Y, Height: size}
			}
			sb.WriteRune(r)
			cur.X1 = x + step
			cur.Height = max(cur.Height, size)
		}
	}
	flush()
	return words
}
