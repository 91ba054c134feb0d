// Package fetcher retrieves HTML documents over HTTP.
//
// Two strategies are provided: a static fetcher backed by colly, and a
// dynamic fetcher that renders the page in headless Chrome for sites that
// build their tables with JavaScript. The auto fetcher tries static first.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent is a desktop Chrome user agent. Several table-heavy sites
// refuse the default Go client.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves the document at url. Any response outside 2xx is an error.
	Fetch(ctx context.Context, url string) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Config holds the settings shared by all fetchers.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Content is a fetched document. Body is UTF-8.
type Content struct {
	URL         string
	Body        []byte
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Mode selects a fetch strategy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// New creates the fetcher for mode.
func New(mode Mode, cfg Config) (Fetcher, error) {
	switch mode {
	case ModeStatic, "":
		return NewStatic(cfg), nil
	case ModeDynamic:
		return NewDynamic(cfg), nil
	case ModeAuto:
		return NewAuto(cfg), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", mode)
	}
}

// ErrStatus is matched by every StatusError.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// NormalizeURL prefixes https:// when raw carries neither an http:// nor an
// https:// scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
