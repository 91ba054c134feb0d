package extract

import (
	"time"

	"github.com/jmylchreest/tabscrape/pkg/fetcher"
	"github.com/jmylchreest/tabscrape/pkg/source/pdflayout"
)

// Config holds all extractor configuration.
type Config struct {
	// Fetching settings
	FetchMode fetcher.Mode
	UserAgent string
	Timeout   time.Duration

	// Fetcher replaces the fetcher built from the settings above.
	Fetcher fetcher.Fetcher

	// Layout tunes the PDF table detector.
	Layout pdflayout.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FetchMode: fetcher.ModeStatic,
		UserAgent: fetcher.DefaultUserAgent,
		Timeout:   fetcher.DefaultTimeout,
		Layout:    pdflayout.DefaultConfig(),
	}
}

// Option configures an Extractor.
type Option func(*Config)

// WithFetchMode sets the fetch mode (static, dynamic, auto).
func WithFetchMode(mode fetcher.Mode) Option {
	return func(c *Config) {
		c.FetchMode = mode
	}
}

// WithUserAgent sets the HTTP user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithFetcher injects a custom fetcher. The extractor does not close it.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithLayoutConfig sets the PDF layout detector tuning.
func WithLayoutConfig(lc pdflayout.Config) Option {
	return func(c *Config) {
		c.Layout = lc
	}
}
