package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jmylchreest/tabscrape/pkg/export"
	"github.com/jmylchreest/tabscrape/pkg/extract"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

type fakeExtractor struct {
	result  *extract.Result
	err     error
	gotURL  string
	gotName string
	gotData []byte
}

func (f *fakeExtractor) FromURL(ctx context.Context, url string) (*extract.Result, error) {
	f.gotURL = url
	return f.result, f.err
}

func (f *fakeExtractor) FromPDFNamed(ctx context.Context, name string, data []byte) (*extract.Result, error) {
	f.gotName, f.gotData = name, data
	return f.result, f.err
}

func nameAgeResult(source string) *extract.Result {
	return &extract.Result{
		Source: source,
		Method: extract.MethodHTML,
		Tables: []table.Table{{Source: "table 1", Columns: []string{"Name", "Age"}, Rows: []table.Row{{"Ann", "30"}}}},
		Warnings: []extract.Warning{
			{Region: "table 2", Err: errors.New("malformed row")},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type extractResponse struct {
	Source   string        `json:"source"`
	Method   string        `json:"method"`
	Tables   []table.Table `json:"tables"`
	Warnings []string      `json:"warnings"`
	Error    string        `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// --- Extraction Tests ---

func TestHealthz(t *testing.T) {
	rec := do(t, New(&fakeExtractor{}, time.Minute).Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExtractURL(t *testing.T) {
	fx := &fakeExtractor{result: nameAgeResult("https://example.com")}
	rec := do(t, New(fx, time.Minute).Handler(), http.MethodPost, "/api/extract/url", "application/json",
		[]byte(`{"url":"example.com"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "example.com", fx.gotURL)

	var resp extractResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, []string{"Name", "Age"}, resp.Tables[0].Columns)
	assert.Equal(t, []string{"table 2: malformed row"}, resp.Warnings)
	assert.Equal(t, "html", resp.Method)
}

func TestExtractURL_BadRequests(t *testing.T) {
	h := New(&fakeExtractor{}, time.Minute).Handler()

	for name, body := range map[string]string{
		"not json":    `url=example.com`,
		"missing url": `{"url":"  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/extract/url", "application/json", []byte(body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestExtractURL_FetchErrorIsBadGateway(t *testing.T) {
	fx := &fakeExtractor{err: &extract.FetchError{URL: "https://example.com", StatusCode: 404, Err: errors.New("not found")}}
	rec := do(t, New(fx, time.Minute).Handler(), http.MethodPost, "/api/extract/url", "application/json",
		[]byte(`{"url":"https://example.com"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp extractResponse
	decode(t, rec, &resp)
	assert.Contains(t, resp.Error, "status 404")
}

func TestExtractURL_EndToEnd(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<table><tr><th>Name</th><th>Age</th></tr><tr><td>Ann</td><td>30</td></tr></table>`))
	}))
	defer page.Close()

	ext, err := extract.New(extract.WithFetcher(fetcher.NewStatic(fetcher.Config{})))
	require.NoError(t, err)

	body, _ := json.Marshal(extractURLRequest{URL: page.URL})
	rec := do(t, New(ext, time.Minute).Handler(), http.MethodPost, "/api/extract/url", "application/json", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp extractResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, []table.Row{{"Ann", "30"}}, resp.Tables[0].Rows)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	fx := &fakeExtractor{result: nameAgeResult("report.pdf")}
	ct, body := multipartBody(t, "file", "../../report.pdf", []byte("%PDF-1.4 fake"))

	rec := do(t, New(fx, time.Minute).Handler(), http.MethodPost, "/api/extract/pdf", ct, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "report.pdf", fx.gotName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), fx.gotData)
}

func TestExtractPDF_MissingField(t *testing.T) {
	ct, body := multipartBody(t, "document", "report.pdf", []byte("x"))
	rec := do(t, New(&fakeExtractor{}, time.Minute).Handler(), http.MethodPost, "/api/extract/pdf", ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractPDF_UnreadableIsUnprocessable(t *testing.T) {
	ext, err := extract.New()
	require.NoError(t, err)
	defer ext.Close()

	ct, body := multipartBody(t, "file", "broken.pdf", []byte("not a pdf"))
	rec := do(t, New(ext, time.Minute).Handler(), http.MethodPost, "/api/extract/pdf", ct, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// --- Export Tests ---

func createExport(t *testing.T, h http.Handler, req exportRequest) (*httptest.ResponseRecorder, exportResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := do(t, h, http.MethodPost, "/api/export", "application/json", body)
	var resp exportResponse
	if rec.Code == http.StatusCreated {
		decode(t, rec, &resp)
	}
	return rec, resp
}

func TestExport_CreateAndDownload(t *testing.T) {
	h := New(&fakeExtractor{}, time.Minute).Handler()
	tables := []table.Table{
		{Columns: []string{"Name", "Age"}, Rows: []table.Row{{"Ann", "30"}}},
		{Columns: []string{"City"}, Rows: []table.Row{{"Oslo"}}},
	}

	rec, resp := createExport(t, h, exportRequest{Tables: tables, Select: []int{2}, Source: "example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "scraped_tables_example_com.xlsx", resp.Filename)
	assert.Equal(t, []string{"Table_2"}, resp.Sheets)
	assert.Equal(t, "/api/export/"+resp.ID, resp.URL)

	dl := do(t, h, http.MethodGet, resp.URL, "", nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, export.ContentType, dl.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="scraped_tables_example_com.xlsx"`, dl.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(dl.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Table_2")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"City"}, {"Oslo"}}, rows)
}

func TestExport_CustomFilename(t *testing.T) {
	h := New(&fakeExtractor{}, time.Minute).Handler()
	tables := []table.Table{{Columns: []string{"a"}, Rows: []table.Row{{"1"}}}}

	_, resp := createExport(t, h, exportRequest{Tables: tables, Filename: "../q3 figures"})
	assert.Equal(t, "q3 figures.xlsx", resp.Filename)
}

func TestExport_BadSelections(t *testing.T) {
	h := New(&fakeExtractor{}, time.Minute).Handler()
	tables := []table.Table{{Columns: []string{"a"}, Rows: []table.Row{{"1"}}}}

	rec, _ := createExport(t, h, exportRequest{Tables: tables, Select: []int{5}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = createExport(t, h, exportRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_Unknown(t *testing.T) {
	rec := do(t, New(&fakeExtractor{}, time.Minute).Handler(), http.MethodGet, "/api/export/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Store Tests ---

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(15 * time.Minute)
	s.now = func() time.Time { return now }

	id, e := s.Put("a.xlsx", []byte("data"))
	assert.Equal(t, now.Add(15*time.Minute), e.ExpiresAt)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "a.xlsx", got.Filename)

	now = now.Add(15 * time.Minute)
	_, ok = s.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_PutSweeps(t *testing.T) {
	now := time.Now()
	s := NewStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Put("old.xlsx", nil)
	now = now.Add(2 * time.Minute)
	s.Put("new.xlsx", nil)
	assert.Equal(t, 1, s.Len())
}

// --- Lifecycle Tests ---

func TestServe_ShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeExtractor{}, time.Minute).Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"report":          "report.xlsx",
		"report.XLSX":     "report.XLSX",
		`..\evil\x.xlsx`:  "x.xlsx",
		`a"b`:             "a_b.xlsx",
		"  spaced  ":      "spaced.xlsx",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
	assert.True(t, strings.HasSuffix(sanitizeFilename("x.csv"), ".xlsx"))
}
