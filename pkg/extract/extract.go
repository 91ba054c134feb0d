// Package extract turns web pages and PDF files into clean tables.
//
// An Extractor acquires a document, hands it to a source adapter and runs
// every region the adapter yields through the table pipeline:
//
//	region -> grid -> header promotion -> cleaning -> table
//
// Acquisition failures are returned as errors. A region that fails becomes a
// Warning on the Result and never stops the remaining regions.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
	"github.com/jmylchreest/tabscrape/pkg/source"
	"github.com/jmylchreest/tabscrape/pkg/source/htmltable"
	"github.com/jmylchreest/tabscrape/pkg/source/pdflayout"
	"github.com/jmylchreest/tabscrape/pkg/source/pdftext"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// Extraction methods reported in Result.Method.
const (
	MethodHTML   = "html"
	MethodLayout = "layout"
	MethodText   = "text"
)

// Result is the outcome of one extraction. Tables keep document order.
type Result struct {
	Source   string        `json:"source" yaml:"source"`
	Method   string        `json:"method" yaml:"method"`
	Tables   []table.Table `json:"tables" yaml:"tables"`
	Warnings []Warning     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration time.Duration `json:"-" yaml:"-"`
}

// Empty reports whether no table survived extraction.
func (r *Result) Empty() bool {
	return len(r.Tables) == 0
}

// Extractor runs extractions. It is safe for concurrent use as long as the
// fetcher is.
type Extractor struct {
	fetcher     fetcher.Fetcher
	ownsFetcher bool
	config      Config
}

// New creates an Extractor.
func New(opts ...Option) (*Extractor, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Fetcher != nil {
		return &Extractor{fetcher: cfg.Fetcher, config: cfg}, nil
	}

	f, err := fetcher.New(cfg.FetchMode, fetcher.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return &Extractor{fetcher: f, ownsFetcher: true, config: cfg}, nil
}

// Close releases the fetcher if the Extractor created it.
func (e *Extractor) Close() error {
	if e.ownsFetcher {
		return e.fetcher.Close()
	}
	return nil
}

// FromURL fetches rawURL and extracts every HTML table on the page. A URL
// without an http:// or https:// scheme is fetched over https.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*Result, error) {
	url := fetcher.NormalizeURL(rawURL)
	start := time.Now()

	content, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.DebugContext(ctx, "fetch failed", "url", url, "error", err)
		return nil, &FetchError{URL: url, StatusCode: statusOf(content, err), Err: err}
	}
	logger.InfoContext(ctx, "fetched page",
		"url", url,
		"size", humanize.Bytes(uint64(len(content.Body))),
		"fetcher", e.fetcher.Type())

	result, err := e.FromHTML(ctx, url, bytes.NewReader(content.Body))
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// FromHTML extracts the tables of an HTML document read from r. name labels
// the document in the result.
func (e *Extractor) FromHTML(ctx context.Context, name string, r io.Reader) (*Result, error) {
	start := time.Now()
	doc, err := htmltable.Parse(r)
	if err != nil {
		return nil, &SourceOpenError{Err: err}
	}

	result := Collect(name, htmltable.Regions(doc))
	result.Method = MethodHTML
	result.Duration = time.Since(start)
	logSummary(ctx, result)
	return result, nil
}

// FromPDF extracts the tables of a PDF document. The layout detector is
// used when the document opens cleanly. Otherwise the plain-text heuristic
// takes over, and only when both fail is an error returned.
func (e *Extractor) FromPDF(ctx context.Context, data []byte) (*Result, error) {
	return e.FromPDFNamed(ctx, "pdf", data)
}

// FromPDFNamed is FromPDF with a source name, usually the file name.
func (e *Extractor) FromPDFNamed(ctx context.Context, name string, data []byte) (*Result, error) {
	start := time.Now()
	logger.InfoContext(ctx, "reading pdf", "source", name, "size", humanize.Bytes(uint64(len(data))))

	var (
		regions []source.Region
		method  string
		pages   int
	)

	layoutDoc, layoutErr := pdflayout.Open(data, e.config.Layout)
	if layoutErr == nil {
		regions, method, pages = layoutDoc.Regions(), MethodLayout, layoutDoc.PageCount()
	} else {
		textDoc, textErr := pdftext.Open(data)
		if textErr != nil {
			return nil, &SourceOpenError{Err: fmt.Errorf("layout: %w; text: %w", layoutErr, textErr)}
		}
		regions, method, pages = textDoc.Regions(), MethodText, textDoc.PageCount()

		logger.WarnContext(ctx, "layout extraction unavailable, using text heuristic",
			"source", name, "pages", pages, "error", layoutErr)
	}
	logger.DebugContext(ctx, "extracting pdf pages", "source", name, "method", method, "pages", pages)

	result := Collect(name, regions)
	result.Method = method
	result.Duration = time.Since(start)
	logSummary(ctx, result)
	return result, nil
}

// Collect extracts every region in order. Each grid a region yields is
// built into a table; grids that clean down to nothing are dropped. A
// failing region is recorded as a warning and skipped.
func Collect(sourceName string, regions []source.Region) *Result {
	result := &Result{Source: sourceName, Tables: []table.Table{}}

	for _, region := range regions {
		grids, err := extractRegion(region)
		if err != nil {
			w := Warning{Region: region.Name(), Err: err}
			result.Warnings = append(result.Warnings, w)
			logger.Warn("skipping region", "source", sourceName, "region", w.Region, "error", err)
			continue
		}

		for i, g := range grids {
			t, ok := table.Build(g)
			if !ok {
				logger.Debug("region produced an empty table", "region", region.Name())
				continue
			}
			t.Source = region.Name()
			if len(grids) > 1 {
				t.Source = fmt.Sprintf("%s table %d", region.Name(), i+1)
			}
			result.Tables = append(result.Tables, t)
		}
	}
	return result
}

// extractRegion runs one region, converting panics from parsers into errors.
func extractRegion(region source.Region) ([]table.Grid, error) {
	return source.Guard(region.Extract)
}

func statusOf(content fetcher.Content, err error) int {
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return content.StatusCode
}

func logSummary(ctx context.Context, r *Result) {
	logger.InfoContext(ctx, "extraction complete",
		"source", r.Source,
		"method", r.Method,
		"tables", len(r.Tables),
		"warnings", len(r.Warnings),
		"duration", r.Duration)
}
