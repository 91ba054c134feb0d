package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/internal/pdftest"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
	"github.com/jmylchreest/tabscrape/pkg/source"
	"github.com/jmylchreest/tabscrape/pkg/source/htmltable"
	"github.com/jmylchreest/tabscrape/pkg/source/pdflayout"
	"github.com/jmylchreest/tabscrape/pkg/source/pdftext"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

const nameAge = `<table><tr><th>Name</th><th>Age</th></tr><tr><td>Ann</td><td>30</td></tr></table>`

func newExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// htmlTable renders a table whose first row is a text header.
func htmlTable(id string, rows, cols int) string {
	var b strings.Builder
	b.WriteString("<table><tr>")
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&b, "<th>%s col %d</th>", id, c)
	}
	b.WriteString("</tr>")
	for r := 1; r < rows; r++ {
		b.WriteString("<tr>")
		for c := 0; c < cols; c++ {
			fmt.Fprintf(&b, "<td>%s %d.%d</td>", id, r, c)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// --- FromURL Tests ---

func TestFromURL_NameAge(t *testing.T) {
	url := serve(t, "<html><body>"+nameAge+"</body></html>")

	result, err := newExtractor(t).FromURL(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	got := result.Tables[0]
	assert.Equal(t, []string{"Name", "Age"}, got.Columns)
	assert.Equal(t, []table.Row{{"Ann", "30"}}, got.Rows)
	assert.Equal(t, "table 1", got.Source)
	assert.Equal(t, MethodHTML, result.Method)
	assert.Equal(t, url, result.Source)
	assert.Empty(t, result.Warnings)
}

func TestFromURL_NTables(t *testing.T) {
	shapes := []struct{ rows, cols int }{{3, 2}, {5, 4}, {2, 1}}
	var page strings.Builder
	page.WriteString("<html><body>")
	for i, s := range shapes {
		fmt.Fprintf(&page, "<h2>Section %d</h2>", i)
		page.WriteString(htmlTable(fmt.Sprintf("t%d", i), s.rows, s.cols))
	}
	page.WriteString("</body></html>")

	result, err := newExtractor(t).FromURL(context.Background(), serve(t, page.String()))
	require.NoError(t, err)
	require.Len(t, result.Tables, len(shapes))

	for i, s := range shapes {
		got := result.Tables[i]
		assert.Equal(t, s.rows-1, got.NumRows(), "table %d rows", i)
		assert.Equal(t, s.cols, got.NumCols(), "table %d cols", i)
		assert.Equal(t, fmt.Sprintf("t%d col 0", i), got.Columns[0])
	}
}

func TestFromURL_Idempotent(t *testing.T) {
	url := serve(t, htmlTable("a", 4, 3)+nameAge)
	e := newExtractor(t)

	first, err := e.FromURL(context.Background(), url)
	require.NoError(t, err)
	second, err := e.FromURL(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, first.Tables, second.Tables)
}

func TestFromURL_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	result, err := newExtractor(t).FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrFetch)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, srv.URL, fetchErr.URL)
	assert.ErrorIs(t, err, fetcher.ErrStatus)
}

func TestFromURL_NoTables(t *testing.T) {
	url := serve(t, "<html><body><p>Nothing tabular here.</p></body></html>")

	result, err := newExtractor(t).FromURL(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.NotNil(t, result.Tables)
}

type recordingFetcher struct {
	url string
}

func (f *recordingFetcher) Fetch(ctx context.Context, url string) (fetcher.Content, error) {
	f.url = url
	return fetcher.Content{URL: url, Body: []byte(nameAge), StatusCode: 200}, nil
}
func (f *recordingFetcher) Close() error { return nil }
func (f *recordingFetcher) Type() string { return "recording" }

func TestFromURL_SchemeAdded(t *testing.T) {
	rf := &recordingFetcher{}
	result, err := newExtractor(t, WithFetcher(rf)).FromURL(context.Background(), "example.com/stats")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/stats", rf.url)
	assert.Len(t, result.Tables, 1)
}

// --- FromHTML Tests ---

func TestFromHTML_EmptyAndDuplicateHandling(t *testing.T) {
	html := `
<table>
  <tr><th>Team</th><th>Score</th><th>Team</th></tr>
  <tr><td>Red</td><td>3</td><td>ignored</td></tr>
  <tr><td> </td><td></td><td></td></tr>
  <tr><td>Blue</td><td>5</td><td>ignored</td></tr>
</table>
<table><tr><td>1</td><td>2</td><td>3</td></tr><tr><td>4</td><td>5</td><td>6</td></tr></table>
<table><tr><th>Only header</th></tr></table>`

	result, err := newExtractor(t).FromHTML(context.Background(), "local.html", strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, result.Tables, 3)

	scores := result.Tables[0]
	assert.Equal(t, []string{"Team", "Score"}, scores.Columns)
	assert.Equal(t, []table.Row{{"Red", "3"}, {"Blue", "5"}}, scores.Rows)

	numeric := result.Tables[1]
	assert.Equal(t, []string{"0", "1", "2"}, numeric.Columns)
	assert.Equal(t, 2, numeric.NumRows())
	assert.Equal(t, "table 2", numeric.Source)

	// A lone row is data, never a header.
	lone := result.Tables[2]
	assert.Equal(t, []string{"0"}, lone.Columns)
	assert.Equal(t, []table.Row{{"Only header"}}, lone.Rows)
}

// --- Collect Tests ---

func grids(rows ...table.Row) []table.Grid {
	return []table.Grid{{Rows: rows}}
}

func TestCollect_PartialFailure(t *testing.T) {
	doc, err := htmltable.Parse(strings.NewReader(htmlTable("a", 2, 2) + htmlTable("b", 2, 2) + htmlTable("c", 2, 2)))
	require.NoError(t, err)
	regions := htmltable.Regions(doc)
	require.Len(t, regions, 3)

	regions[1] = source.RegionFunc{
		Label: regions[1].Name(),
		Fn:    func() ([]table.Grid, error) { return nil, errors.New("malformed row") },
	}

	result := Collect("page", regions)
	require.Len(t, result.Tables, 2)
	assert.Equal(t, "a col 0", result.Tables[0].Columns[0])
	assert.Equal(t, "c col 0", result.Tables[1].Columns[0])

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "table 2", result.Warnings[0].Region)
	assert.EqualError(t, result.Warnings[0].Err, "malformed row")
}

func TestCollect_PanicBecomesWarning(t *testing.T) {
	regions := []source.Region{
		source.RegionFunc{Label: "page 1", Fn: func() ([]table.Grid, error) { panic("bad xref") }},
		source.RegionFunc{Label: "page 2", Fn: func() ([]table.Grid, error) {
			return grids(table.Row{"Item", "Qty"}, table.Row{"Bolt", "4"}), nil
		}},
	}

	result := Collect("doc.pdf", regions)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, "page 2", result.Tables[0].Source)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].String(), "page 1: parser panic: bad xref")
}

func TestCollect_SeveralGridsPerRegion(t *testing.T) {
	regions := []source.Region{
		source.RegionFunc{Label: "page 3", Fn: func() ([]table.Grid, error) {
			return []table.Grid{
				{Rows: []table.Row{{"A", "B"}, {"1", "2"}}, HasHeader: true},
				{Rows: []table.Row{{"only"}}},
				{Rows: []table.Row{{"C", "D"}, {"3", "4"}}, HasHeader: true},
			}, nil
		}},
	}

	result := Collect("doc.pdf", regions)
	require.Len(t, result.Tables, 3)
	assert.Equal(t, "page 3 table 1", result.Tables[0].Source)
	assert.Equal(t, []string{"0"}, result.Tables[1].Columns)
	assert.Equal(t, "page 3 table 3", result.Tables[2].Source)
}

func TestCollect_TextHeuristicNameAge(t *testing.T) {
	result := Collect("doc.pdf", pdftext.FromText("Name\tAge\nAnn\t30\n"))
	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"Name", "Age"}, result.Tables[0].Columns)
	assert.Equal(t, []table.Row{{"Ann", "30"}}, result.Tables[0].Rows)
	assert.Equal(t, "page 1", result.Tables[0].Source)
}

// --- FromPDF Tests ---

func TestFromPDF_LayoutTable(t *testing.T) {
	data := pdftest.Document(pdftest.Cells([][]string{
		{"Name", "Age", "City"},
		{"Ann", "30", "Paris"},
		{"Bob", "41", "Rome"},
	}))

	result, err := newExtractor(t).FromPDFNamed(context.Background(), "people.pdf", data)
	require.NoError(t, err)

	assert.Equal(t, MethodLayout, result.Method)
	assert.Equal(t, "people.pdf", result.Source)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"Name", "Age", "City"}, result.Tables[0].Columns)
	assert.Equal(t, []table.Row{{"Ann", "30", "Paris"}, {"Bob", "41", "Rome"}}, result.Tables[0].Rows)
	assert.Equal(t, "page 1", result.Tables[0].Source)
}

func TestFromPDF_FallsBackToText(t *testing.T) {
	var logs bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { logger.Init(logger.Options{}) })

	data := pdftest.Malformed(pdftest.Lines("Name|Age", "Ann|30"))

	result, err := newExtractor(t).FromPDF(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, MethodText, result.Method)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, []string{"Name", "Age"}, result.Tables[0].Columns)
	assert.Equal(t, []table.Row{{"Ann", "30"}}, result.Tables[0].Rows)

	assert.Contains(t, logs.String(), "layout extraction unavailable")
	assert.Contains(t, logs.String(), "pages=1")
	assert.Contains(t, logs.String(), "validate pdf")
}

func TestFromPDF_UnreadableIsSourceOpenError(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a pdf at all"),
	} {
		t.Run(name, func(t *testing.T) {
			result, err := newExtractor(t).FromPDF(context.Background(), data)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrSourceOpen)

			var openErr *SourceOpenError
			assert.True(t, errors.As(err, &openErr))
			assert.Contains(t, err.Error(), "layout:")
			assert.Contains(t, err.Error(), "text:")
		})
	}
}

// --- Error Tests ---

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "https://x", StatusCode: 500, Err: errors.New("boom")}
	assert.Equal(t, "fetch https://x: status 500: boom", err.Error())

	err = &FetchError{URL: "https://x", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "fetch https://x: context deadline exceeded", err.Error())
}

func TestNew_Options(t *testing.T) {
	layout := pdflayout.DefaultConfig()
	layout.MinColumns = 3

	e := newExtractor(t,
		WithUserAgent("tabscrape-test"),
		WithTimeout(5*time.Second),
		WithLayoutConfig(layout),
	)

	assert.Equal(t, "tabscrape-test", e.config.UserAgent)
	assert.Equal(t, 5*time.Second, e.config.Timeout)
	assert.Equal(t, 3, e.config.Layout.MinColumns)
	assert.Equal(t, fetcher.ModeStatic, e.config.FetchMode)
}

func TestNew_UnknownFetchMode(t *testing.T) {
	_, err := New(WithFetchMode("teleport"))
	assert.Error(t, err)
}
