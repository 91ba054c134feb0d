package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/pkg/export"
	"github.com/jmylchreest/tabscrape/pkg/extract"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to a temp file. It is not a size limit.
const multipartMemory = 32 << 20

type extractURLRequest struct {
	URL string `json:"url"`
}

type exportRequest struct {
	Tables   []table.Table `json:"tables"`
	Select   []int         `json:"select"`
	Filename string        `json:"filename"`
	Source   string        `json:"source"`
}

type exportResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Sheets    []string  `json:"sheets"`
	Size      string    `json:"size"`
	ExpiresAt time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtractURL(w http.ResponseWriter, r *http.Request) {
	var req extractURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	result, err := s.extractor.FromURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExtractPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	logger.Debug("pdf uploaded", "filename", header.Filename, "size", humanize.Bytes(uint64(len(data))))

	result, err := s.extractor.FromPDFNamed(r.Context(), filepath.Base(header.Filename), data)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	sheets, err := export.Select(req.Tables, req.Select)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := export.Bytes(sheets)
	if err != nil {
		if errors.Is(err, export.ErrNoSheets) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := sanitizeFilename(req.Filename)
	if filename == "" {
		filename = export.DefaultFilename(req.Source)
	}

	id, e := s.store.Put(filename, data)
	names := make([]string, len(sheets))
	for i, sh := range sheets {
		names[i] = sh.Label
	}

	writeJSON(w, http.StatusCreated, exportResponse{
		ID:        id,
		Filename:  filename,
		URL:       "/api/export/" + id,
		Sheets:    names,
		Size:      humanize.Bytes(uint64(len(data))),
		ExpiresAt: e.ExpiresAt,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("export not found or expired"))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Data)
}

// statusFor maps extraction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, extract.ErrSourceOpen):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeFilename keeps the base name and forces the .xlsx extension.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
