package fetcher

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/tabscrape/internal/logger"
)

// AutoFetcher fetches statically and re-fetches with a browser when the page
// has no table and looks like a JavaScript application shell.
type AutoFetcher struct {
	static  Fetcher
	dynamic Fetcher
}

// NewAuto creates an auto-detecting fetcher.
func NewAuto(cfg Config) *AutoFetcher {
	return &AutoFetcher{
		static:  NewStatic(cfg),
		dynamic: NewDynamic(cfg),
	}
}

// Fetch tries static first, then falls back to dynamic if needed.
func (f *AutoFetcher) Fetch(ctx context.Context, url string) (Content, error) {
	content, err := f.static.Fetch(ctx, url)
	if err != nil {
		// A definite HTTP answer will not improve in a browser.
		if errors.Is(err, ErrStatus) {
			return content, err
		}
		logger.Debug("static fetch failed, trying browser", "url", url, "error", err)
		return f.dynamic.Fetch(ctx, url)
	}

	if NeedsJavaScript(content.Body) {
		logger.Debug("page needs javascript, trying browser", "url", url)
		return f.dynamic.Fetch(ctx, url)
	}
	return content, nil
}

// Close releases all fetcher resources.
func (f *AutoFetcher) Close() error {
	return errors.Join(f.static.Close(), f.dynamic.Close())
}

// Type returns the fetcher type.
func (f *AutoFetcher) Type() string {
	return "auto"
}

var spaMarkers = []string{
	`<div id="root"></div>`,   // React
	`<div id="app"></div>`,    // Vue
	`<app-root></app-root>`,   // Angular
	`<div id="__next"></div>`, // Next.js
	`<div id="__nuxt"></div>`, // Nuxt.js
	`<div data-reactroot`,
	`ng-app`,
	`v-cloak`,
}

var jsIndicators = []string{
	"loading",
	"please wait",
	"javascript required",
	"enable javascript",
}

// NeedsJavaScript reports whether an HTML document without any table looks
// like it renders its content client-side.
func NeedsJavaScript(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	if doc.Find("table").Length() > 0 {
		return false
	}

	html := strings.ToLower(string(body))
	for _, marker := range spaMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}

	noscript := strings.ToLower(doc.Find("noscript").Text())
	if strings.Contains(noscript, "javascript") {
		return true
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	if len(text) < 100 {
		for _, indicator := range jsIndicators {
			if strings.Contains(text, indicator) {
				return true
			}
		}
	}
	return false
}
