package extract

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	// ErrFetch matches every FetchError.
	ErrFetch = errors.New("fetch failed")
	// ErrSourceOpen matches every SourceOpenError.
	ErrSourceOpen = errors.New("source could not be opened")
)

// FetchError reports that a URL could not be retrieved: a network failure,
// a timeout, or a response outside 2xx. StatusCode is zero when no response
// arrived.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// SourceOpenError reports that a document could not be opened by any
// adapter.
type SourceOpenError struct {
	Err error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("open source: %v", e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSourceOpen.
func (e *SourceOpenError) Is(target error) bool { return target == ErrSourceOpen }

// Warning records a region that failed to extract. The region is absent from
// the result; extraction carried on with the next one.
type Warning struct {
	Region string
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Region, w.Err)
}

// MarshalText renders the warning for JSON and YAML output.
func (w Warning) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
