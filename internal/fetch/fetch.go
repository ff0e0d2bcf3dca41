package fetch

import (
	"context"
	"time"
)

// Options controls how a page is fetched
type Options struct {
	// RenderJS requests a JavaScript-capable engine
	RenderJS bool
	// CaptureScreenshot captures a full-page screenshot on render engines
	CaptureScreenshot bool
	// ScrollRounds overrides the configured scroll pagination rounds
	ScrollRounds int
	// Timeout overrides the engine's default per-page timeout
	Timeout time.Duration
}

// Result is the outcome of a page fetch
type Result struct {
	URL        string
	StatusCode int
	HTML       string
	Screenshot []byte
	Rendered   bool
	FetchedAt  time.Time
}

// Fetcher retrieves pages from the web. Implementations differ in rendering
// capability: plain HTTP, headless browser, or a remote render API.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts *Options) (*Result, error)
	Name() string
	Cleanup() error
}
