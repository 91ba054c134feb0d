package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/tabscrape/internal/logger"
)

// DynamicFetcher renders pages in headless Chrome via chromedp. The browser
// is started lazily on the first Fetch.
type DynamicFetcher struct {
	config      Config
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewDynamic creates a dynamic fetcher.
func NewDynamic(cfg Config) *DynamicFetcher {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created", "user_agent", cfg.UserAgent, "timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:      cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
	}
}

// Fetch loads targetURL in a fresh browser tab and returns the rendered DOM.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string) (Content, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL)

	result := Content{
		URL:         targetURL,
		ContentType: "text/html; charset=utf-8",
		FetchedAt:   time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, f.config.Timeout)
	defer cancelTimeout()

	// Stop the browser tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	resp, err := chromedp.RunResponse(timeoutCtx, chromedp.Navigate(targetURL))
	if err != nil {
		logger.Debug("dynamic fetch navigation failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("browser navigation failed: %w", err)
	}
	if resp != nil {
		result.StatusCode = int(resp.Status)
	}
	if result.StatusCode != 0 && (result.StatusCode < 200 || result.StatusCode > 299) {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}

	if err := chromedp.Run(timeoutCtx,
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		logger.Debug("dynamic fetch browser automation failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("browser automation failed: %w", err)
	}
	if result.StatusCode == 0 {
		result.StatusCode = 200
	}
	result.Body = []byte(html)

	logger.Debug("dynamic fetch complete", "url", targetURL, "html_size", len(html))
	return result, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
