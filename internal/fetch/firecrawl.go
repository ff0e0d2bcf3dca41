package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/mendableai/firecrawl-go"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// FirecrawlFetcher renders pages through the Firecrawl API. It serves as the
// render engine in deployments without a local Chrome install.
type FirecrawlFetcher struct {
	config  *config.Config
	app     *firecrawl.FirecrawlApp
	limiter *DomainLimiter
	logger  types.Logger
}

// NewFirecrawlFetcher creates a new Firecrawl-backed fetcher
func NewFirecrawlFetcher(cfg *config.Config, limiter *DomainLimiter) (*FirecrawlFetcher, error) {
	app, err := firecrawl.NewFirecrawlApp(
		cfg.Firecrawl.APIKey,
		cfg.Firecrawl.APIURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl: %w", err)
	}

	logger := logging.GetGlobalLogger()
	logger.Info("Firecrawl fetcher initialized", map[string]interface{}{
		"api_url": cfg.Firecrawl.APIURL,
		"version": cfg.Firecrawl.Version,
	})

	return &FirecrawlFetcher{
		config:  cfg,
		app:     app,
		limiter: limiter,
		logger:  logger.WithField("component", "firecrawl_fetcher"),
	}, nil
}

// Name returns the engine name
func (f *FirecrawlFetcher) Name() string {
	return "firecrawl"
}

// Cleanup releases resources held by the fetcher
func (f *FirecrawlFetcher) Cleanup() error {
	return nil
}

// Fetch renders the page through the Firecrawl API. Screenshots are not
// supported by this engine; callers needing them use the browser fetcher.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string, opts *Options) (*Result, error) {
	if err := f.limiter.Acquire(ctx, url); err != nil {
		return nil, err
	}

	params := &firecrawl.ScrapeParams{
		Formats: []string{"html"},
	}

	var doc *firecrawl.FirecrawlDocument
	var err error

	attempts := f.config.Fetch.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		doc, err = f.app.ScrapeURL(url, params)
		if err == nil {
			break
		}

		f.logger.Warn("Firecrawl scrape attempt failed", map[string]interface{}{
			"attempt": attempt,
			"url":     url,
			"error":   err.Error(),
		})

		if attempt < attempts {
			select {
			case <-ctx.Done():
				f.limiter.RecordFailure(url, ctx.Err())
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if err != nil {
		f.limiter.RecordFailure(url, err)
		return nil, fmt.Errorf("firecrawl fetch failed after %d attempts: %w", attempts, err)
	}

	if doc == nil || doc.HTML == "" {
		err := fmt.Errorf("no content in firecrawl response for %s", url)
		f.limiter.RecordFailure(url, err)
		return nil, err
	}

	f.limiter.RecordSuccess(url)
	return &Result{
		URL:        url,
		StatusCode: 200,
		HTML:       doc.HTML,
		Rendered:   true,
		FetchedAt:  time.Now(),
	}, nil
}
