package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"github.com/jmylchreest/tabscrape/internal/logger"
)

// StaticFetcher uses Colly for static HTML fetching.
type StaticFetcher struct {
	config Config
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg Config) *StaticFetcher {
	return &StaticFetcher{config: cfg.withDefaults()}
}

// Fetch retrieves the document at targetURL using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	// A new collector per request: colly refuses to revisit URLs.
	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.StdlibContext(ctx),
		colly.MaxBodySize(0),
	)
	c.SetRequestTimeout(f.config.Timeout)
	// Deliver every response to OnResponse so the status check below sees
	// 3xx leftovers and 203-299 as well.
	c.ParseHTTPErrorResponse = true

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.Body = r.Body
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
		logger.Debug("static fetch error", "status", result.StatusCode, "error", err)
	})

	if err := c.Visit(targetURL); err != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return result, fetchErr
	}

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}

	body, err := toUTF8(result.Body, result.ContentType)
	if err != nil {
		return result, fmt.Errorf("failed to decode body: %w", err)
	}
	result.Body = body

	logger.Debug("static fetch complete", "url", targetURL)
	return result, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

// toUTF8 decodes body using its meta charset. Colly already converts bodies
// whose Content-Type header names a charset.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if len(body) == 0 || strings.Contains(strings.ToLower(contentType), "charset=") {
		return body, nil
	}
	enc, name, _ := charset.DetermineEncoding(body, "text/html")
	// windows-1252 is also the fallback when the first KiB is plain ASCII.
	if name == "utf-8" || (name == "windows-1252" && utf8.Valid(body)) {
		return body, nil
	}
	logger.Debug("decoding body", "charset", name)
	return enc.NewDecoder().Bytes(body)
}
