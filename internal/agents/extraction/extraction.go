// Package extraction implements the job extraction agent: an ordered cascade
// of strategies from cheap structured data to full browser rendering, each
// attempt recorded, stopping at the first complete-looking result.
package extraction

import (
	"context"
	"fmt"
	"time"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/internal/llm/processors"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// PageFetcher is the static fetch capability for the non-browser strategies
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts *fetch.Options) (*fetch.Result, error)
}

// RenderFetcher is the JS-rendering capability for the browser strategy
type RenderFetcher interface {
	Fetch(ctx context.Context, url string, opts *fetch.Options) (*fetch.Result, error)
	Name() string
}

// ListingExtractor is the LLM capability for the AI strategies
type ListingExtractor interface {
	Available() bool
	ExtractJobListings(ctx context.Context, companyName, sourceURL, content string) ([]models.JobListing, error)
}

// pageContext is the shared input for all strategies of one run
type pageContext struct {
	request    *models.DiscoveryRequest
	url        string
	staticHTML string
	staticErr  error
}

// strategy is one entry in the data-driven cascade
type strategy struct {
	method models.ExtractionMethod
	run    func(ctx context.Context, pc *pageContext) ([]models.JobListing, error)
}

// Agent extracts job listings from a career page
type Agent struct {
	config     *config.Config
	fetcher    PageFetcher
	renderer   RenderFetcher
	extractor  ListingExtractor
	cleaner    *processors.HTMLCleaner
	strategies []strategy
	logger     types.Logger
}

// New creates an extraction agent with the configured strategy order
func New(cfg *config.Config, fetcher PageFetcher, renderer RenderFetcher, extractor ListingExtractor) *Agent {
	a := &Agent{
		config:    cfg,
		fetcher:   fetcher,
		renderer:  renderer,
		extractor: extractor,
		cleaner:   processors.NewHTMLCleaner(),
		logger:    logging.GetGlobalLogger().WithField("agent", "job_extraction"),
	}

	for _, name := range cfg.Extraction.Strategies {
		switch models.ExtractionMethod(name) {
		case models.ExtractionStructuredData:
			a.strategies = append(a.strategies, strategy{models.ExtractionStructuredData, a.runStructured})
		case models.ExtractionHTMLPattern:
			a.strategies = append(a.strategies, strategy{models.ExtractionHTMLPattern, a.runPattern})
		case models.ExtractionAIAssisted:
			a.strategies = append(a.strategies, strategy{models.ExtractionAIAssisted, a.runAIAssisted})
		case models.ExtractionBrowserVision:
			a.strategies = append(a.strategies, strategy{models.ExtractionBrowserVision, a.runBrowser})
		}
	}

	return a
}

// Name returns the agent name
func (a *Agent) Name() string {
	return "job_extraction"
}

// Run walks the strategy cascade against in.CareerPageURL. It short-circuits
// on the first result that looks complete for the page, keeps the best
// partial result otherwise, and records every attempt.
func (a *Agent) Run(ctx context.Context, in *agents.Input) (*agents.Output, error) {
	pc := &pageContext{
		request: in.Request,
		url:     in.CareerPageURL,
	}

	// One static fetch shared by the non-browser strategies
	if result, err := a.fetcher.Fetch(ctx, pc.url, nil); err != nil {
		pc.staticErr = err
		a.logger.Warn("Static fetch of career page failed", map[string]interface{}{
			"url":   pc.url,
			"error": err.Error(),
		})
	} else {
		pc.staticHTML = result.HTML
	}

	expected := a.expectedListings(pc.staticHTML)

	out := &agents.Output{}
	var best []models.JobListing
	var bestMethod models.ExtractionMethod
	var lastErr error

	for _, s := range a.strategies {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		started := time.Now()
		listings, err := s.run(ctx, pc)
		listings = wellFormed(listings, in.Request.CompanyName, s.method)
		listings = models.DeduplicateListings(listings)

		attempt := agents.ExtractionAttempt{
			Method:   s.method,
			Listings: len(listings),
			Duration: time.Since(started),
		}
		if err != nil {
			attempt.Err = err.Error()
			lastErr = err
		}
		out.Attempts = append(out.Attempts, attempt)

		a.logger.Debug("Extraction strategy attempted", map[string]interface{}{
			"method":   string(s.method),
			"listings": len(listings),
			"url":      pc.url,
			"error":    attempt.Err,
		})

		if len(listings) > len(best) {
			best = listings
			bestMethod = s.method
		}

		// Complete enough for this page: stop cascading
		if len(listings) >= expected {
			break
		}
	}

	if len(best) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no strategy produced listings")
		}
		return out, utils.NewExtractionFailedError(pc.url, lastErr)
	}

	out.Listings = best
	out.ExtractionMethod = bestMethod

	if len(best) < expected {
		pe := utils.NewExtractionPartialError(pc.url, len(best))
		out.Warnings = append(out.Warnings, models.StageError{
			Stage:   pe.Stage,
			Code:    string(pe.Code),
			Message: pe.Message,
		})
	}

	return out, nil
}

// expectedListings is the minimum-count heuristic: when the page's link
// density suggests several postings, a one-listing result is treated as
// incomplete and the cascade escalates.
func (a *Agent) expectedListings(staticHTML string) int {
	min := a.config.Extraction.MinListings
	if min <= 0 {
		min = 1
	}
	if staticHTML == "" {
		return 1
	}
	if countRoleAnchors(staticHTML) >= min {
		return min
	}
	return 1
}

func (a *Agent) runStructured(_ context.Context, pc *pageContext) ([]models.JobListing, error) {
	if pc.staticHTML == "" {
		return nil, fmt.Errorf("no static page content: %w", pc.staticErr)
	}
	return extractStructuredData(pc.staticHTML, pc.request.CompanyName)
}

func (a *Agent) runPattern(_ context.Context, pc *pageContext) ([]models.JobListing, error) {
	if pc.staticHTML == "" {
		return nil, fmt.Errorf("no static page content: %w", pc.staticErr)
	}
	return extractByPattern(pc.staticHTML, pc.url, pc.request.CompanyName)
}

func (a *Agent) runAIAssisted(ctx context.Context, pc *pageContext) ([]models.JobListing, error) {
	if a.extractor == nil || !a.extractor.Available() {
		return nil, utils.NewCapabilityUnavailableError(utils.StageExtraction, "llm", nil)
	}
	if pc.staticHTML == "" {
		return nil, fmt.Errorf("no static page content: %w", pc.staticErr)
	}

	content, err := a.cleaner.CleanPageContent(pc.staticHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to clean page content: %w", err)
	}

	return a.extractor.ExtractJobListings(ctx, pc.request.CompanyName, pc.url, content)
}

// runBrowser renders the page with scroll pagination and feeds the settled
// DOM to the LLM. It only runs when the request opted into browser
// automation.
func (a *Agent) runBrowser(ctx context.Context, pc *pageContext) ([]models.JobListing, error) {
	if !pc.request.UseBrowserAutomation {
		return nil, fmt.Errorf("browser automation not enabled for this request")
	}
	if a.renderer == nil {
		return nil, utils.NewCapabilityUnavailableError(utils.StageExtraction, "browser", nil)
	}
	if a.extractor == nil || !a.extractor.Available() {
		return nil, utils.NewCapabilityUnavailableError(utils.StageExtraction, "llm", nil)
	}

	scrollRounds := pc.request.MaxPagesPerSite
	if scrollRounds <= 0 {
		scrollRounds = a.config.Extraction.MaxPages
	}

	result, err := a.renderer.Fetch(ctx, pc.url, &fetch.Options{
		RenderJS:          true,
		ScrollRounds:      scrollRounds,
		CaptureScreenshot: true,
	})
	if err != nil {
		return nil, fmt.Errorf("render fetch failed: %w", err)
	}

	content, err := a.cleaner.CleanPageContent(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to clean rendered content: %w", err)
	}

	return a.extractor.ExtractJobListings(ctx, pc.request.CompanyName, pc.url, content)
}

// wellFormed drops malformed listings and stamps company and method defaults
func wellFormed(listings []models.JobListing, companyName string, method models.ExtractionMethod) []models.JobListing {
	out := listings[:0]
	for _, l := range listings {
		if l.CompanyName == "" {
			l.CompanyName = companyName
		}
		if l.ExtractionMethod == "" {
			l.ExtractionMethod = method
		}
		if !l.IsWellFormed() {
			continue
		}
		out = append(out, l)
	}
	return out
}
