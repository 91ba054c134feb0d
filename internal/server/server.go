// Package server exposes table extraction over HTTP.
//
// Routes:
//
//	POST /api/extract/url   {"url": "..."}
//	POST /api/extract/pdf   multipart form, field "file"
//	POST /api/export        {"tables": [...], "select": [1, 3], "filename": "..."}
//	GET  /api/export/{id}   xlsx download
//	GET  /healthz
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/pkg/extract"
)

// Extractor is the part of extract.Extractor the server needs.
type Extractor interface {
	FromURL(ctx context.Context, url string) (*extract.Result, error)
	FromPDFNamed(ctx context.Context, name string, data []byte) (*extract.Result, error)
}

// Server serves the extraction API.
type Server struct {
	extractor Extractor
	store     *Store
	mux       *http.ServeMux
}

// New creates a server. Exports are kept for exportTTL.
func New(ext Extractor, exportTTL time.Duration) *Server {
	s := &Server{
		extractor: ext,
		store:     NewStore(exportTTL),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/extract/url", s.handleExtractURL)
	s.mux.HandleFunc("POST /api/extract/pdf", s.handleExtractPDF)
	s.mux.HandleFunc("POST /api/export", s.handleCreateExport)
	s.mux.HandleFunc("GET /api/export/{id}", s.handleDownload)
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
