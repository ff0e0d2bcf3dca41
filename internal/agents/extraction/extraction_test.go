package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

const jsonLDPage = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {
      "@type": "JobPosting",
      "title": "Backend Engineer",
      "url": "https://acme.com/jobs/backend",
      "hiringOrganization": {"@type": "Organization", "name": "Acme"},
      "jobLocation": {"@type": "Place", "address": {"addressLocality": "Berlin", "addressCountry": "DE"}},
      "baseSalary": {"@type": "MonetaryAmount", "currency": "EUR", "value": {"minValue": 70000, "maxValue": 95000, "unitText": "YEAR"}},
      "datePosted": "2026-08-01"
    },
    {
      "@type": "JobPosting",
      "title": "Product Designer",
      "url": "https://acme.com/jobs/designer",
      "jobLocationType": "TELECOMMUTE"
    }
  ]
}
</script>
</head><body>
<a href="/jobs/backend">Backend Engineer</a>
<a href="/jobs/designer">Product Designer</a>
</body></html>`

type stubPageFetcher struct {
	html  string
	err   error
	calls int
}

func (s *stubPageFetcher) Fetch(_ context.Context, url string, _ *fetch.Options) (*fetch.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &fetch.Result{URL: url, StatusCode: 200, HTML: s.html}, nil
}

type stubRenderer struct {
	html  string
	calls int
}

func (s *stubRenderer) Fetch(_ context.Context, url string, _ *fetch.Options) (*fetch.Result, error) {
	s.calls++
	return &fetch.Result{URL: url, StatusCode: 200, HTML: s.html, Rendered: true}, nil
}

func (s *stubRenderer) Name() string { return "stub" }

type stubExtractor struct {
	listings []models.JobListing
	calls    int
}

func (s *stubExtractor) Available() bool { return true }

func (s *stubExtractor) ExtractJobListings(_ context.Context, _, _, _ string) ([]models.JobListing, error) {
	s.calls++
	return s.listings, nil
}

func extractionConfig(strategies ...string) *config.Config {
	if len(strategies) == 0 {
		strategies = []string{"structured_data", "html_pattern", "ai_assisted", "browser_vision"}
	}
	return &config.Config{
		Extraction: config.ExtractionConfig{
			Strategies:       strategies,
			MinListings:      2,
			MaxPages:         5,
			MaxContentLength: 50000,
		},
	}
}

func extractionInput(url string) *agents.Input {
	return &agents.Input{
		Request: &models.DiscoveryRequest{
			CompanyName:    "Acme",
			CompanyWebsite: "https://acme.com",
		},
		CareerPageURL: url,
	}
}

func TestStructuredDataShortCircuitsCascade(t *testing.T) {
	fetcher := &stubPageFetcher{html: jsonLDPage}
	renderer := &stubRenderer{}
	extractor := &stubExtractor{}

	agent := New(extractionConfig(), fetcher, renderer, extractor)

	out, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.ExtractionMethod != models.ExtractionStructuredData {
		t.Errorf("method = %q, want structured_data", out.ExtractionMethod)
	}
	if len(out.Listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out.Listings))
	}
	if extractor.calls != 0 {
		t.Errorf("LLM extractor called %d times, want 0", extractor.calls)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times, want 0", renderer.calls)
	}
	if len(out.Attempts) != 1 {
		t.Errorf("expected 1 recorded attempt, got %d", len(out.Attempts))
	}
	if len(out.Warnings) != 0 {
		t.Errorf("complete result should carry no warnings, got %v", out.Warnings)
	}
}

func TestStructuredDataFieldMapping(t *testing.T) {
	listings, err := extractStructuredData(jsonLDPage, "Fallback Co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	backend := listings[0]
	if backend.CompanyName != "Acme" {
		t.Errorf("hiringOrganization should win over fallback, got %q", backend.CompanyName)
	}
	if backend.Location != "Berlin, DE" {
		t.Errorf("location = %q, want %q", backend.Location, "Berlin, DE")
	}
	if backend.Salary == nil || backend.Salary.Min != 70000 || backend.Salary.Max != 95000 {
		t.Errorf("salary not mapped: %+v", backend.Salary)
	}
	if backend.PostedDate == nil {
		t.Error("datePosted not parsed")
	}

	designer := listings[1]
	if designer.Location != "Remote" {
		t.Errorf("TELECOMMUTE should map to Remote, got %q", designer.Location)
	}
	if designer.CompanyName != "Fallback Co" {
		t.Errorf("missing hiringOrganization should fall back, got %q", designer.CompanyName)
	}
}

func TestCascadeFallsThroughToPattern(t *testing.T) {
	// No JSON-LD; repeated job-card markup instead
	patternPage := `<html><body>
	<div class="job-card"><h3>Backend Engineer</h3><a href="/jobs/1">Apply</a><span class="location">Berlin</span></div>
	<div class="job-card"><h3>Frontend Developer</h3><a href="/jobs/2">Apply</a><span class="location">Remote</span></div>
	<div class="job-card"><h3>Data Scientist</h3><a href="/jobs/3">Apply</a><span class="location">Munich</span></div>
	</body></html>`

	fetcher := &stubPageFetcher{html: patternPage}
	extractor := &stubExtractor{}
	agent := New(extractionConfig(), fetcher, nil, extractor)

	out, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.ExtractionMethod != models.ExtractionHTMLPattern {
		t.Errorf("method = %q, want html_pattern", out.ExtractionMethod)
	}
	if len(out.Listings) != 3 {
		t.Errorf("expected 3 listings, got %d", len(out.Listings))
	}
	if extractor.calls != 0 {
		t.Errorf("LLM should not run once pattern extraction is complete, got %d calls", extractor.calls)
	}
	if len(out.Attempts) != 2 {
		t.Errorf("expected structured + pattern attempts, got %d", len(out.Attempts))
	}
}

func TestPartialResultCarriesWarning(t *testing.T) {
	// Link density promises several postings but the only strategy allowed
	// finds a single one.
	page := `<html><body>
	<script type="application/ld+json">{"@type": "JobPosting", "title": "Backend Engineer", "hiringOrganization": {"name": "Acme"}}</script>
	<a href="/jobs/1">Backend Engineer</a>
	<a href="/jobs/2">Frontend Developer</a>
	<a href="/jobs/3">Data Scientist</a>
	</body></html>`

	fetcher := &stubPageFetcher{html: page}
	agent := New(extractionConfig("structured_data"), fetcher, nil, nil)

	out, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(out.Listings))
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected a partial-extraction warning, got %v", out.Warnings)
	}
	if out.Warnings[0].Code != string(utils.CodeExtractionPartial) {
		t.Errorf("warning code = %q, want %q", out.Warnings[0].Code, utils.CodeExtractionPartial)
	}
}

func TestAIAssistedUsedWhenMarkupDefeatsParsers(t *testing.T) {
	// A page with job links mentioned only in prose the DOM parsers miss
	page := `<html><body><div>We are hiring! Mail us.</div>
	<a href="/jobs/1">Backend Engineer</a>
	<a href="/jobs/2">Frontend Developer</a>
	</body></html>`

	aiListings := []models.JobListing{
		{Title: "Backend Engineer", CompanyName: "Acme"},
		{Title: "Frontend Developer", CompanyName: "Acme"},
	}
	fetcher := &stubPageFetcher{html: page}
	extractor := &stubExtractor{listings: aiListings}

	// Skip the pattern strategy so the cascade reaches the LLM
	agent := New(extractionConfig("structured_data", "ai_assisted"), fetcher, nil, extractor)

	out, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.ExtractionMethod != models.ExtractionAIAssisted {
		t.Errorf("method = %q, want ai_assisted", out.ExtractionMethod)
	}
	if extractor.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", extractor.calls)
	}
}

func TestBrowserStrategyRequiresOptIn(t *testing.T) {
	fetcher := &stubPageFetcher{html: "<html><body>nothing here</body></html>"}
	renderer := &stubRenderer{html: jsonLDPage}
	extractor := &stubExtractor{}

	agent := New(extractionConfig("browser_vision"), fetcher, renderer, extractor)

	_, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err == nil {
		t.Fatal("expected failure when browser automation was not requested")
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times without opt-in, want 0", renderer.calls)
	}
}

func TestBrowserStrategyRunsWhenRequested(t *testing.T) {
	fetcher := &stubPageFetcher{html: "<html><body>loading...</body></html>"}
	renderer := &stubRenderer{html: "<html><body>rendered listings</body></html>"}
	extractor := &stubExtractor{listings: []models.JobListing{
		{Title: "Backend Engineer", CompanyName: "Acme"},
		{Title: "Frontend Developer", CompanyName: "Acme"},
	}}

	agent := New(extractionConfig("browser_vision"), fetcher, renderer, extractor)

	in := extractionInput("https://acme.com/careers")
	in.Request.UseBrowserAutomation = true

	out, err := agent.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", renderer.calls)
	}
	if out.ExtractionMethod != models.ExtractionBrowserVision {
		t.Errorf("method = %q, want browser_vision", out.ExtractionMethod)
	}
}

func TestAllStrategiesFailing(t *testing.T) {
	fetcher := &stubPageFetcher{err: fmt.Errorf("connection refused")}
	agent := New(extractionConfig("structured_data", "html_pattern"), fetcher, nil, nil)

	_, err := agent.Run(context.Background(), extractionInput("https://acme.com/careers"))
	if err == nil {
		t.Fatal("expected extraction failure")
	}
	var pe *utils.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a pipeline error, got %T", err)
	}
	if pe.Code != utils.CodeExtractionFailed {
		t.Errorf("code = %q, want %q", pe.Code, utils.CodeExtractionFailed)
	}
}

func TestWellFormedStampsDefaultsAndDropsJunk(t *testing.T) {
	in := []models.JobListing{
		{Title: "Backend Engineer"},
		{Title: "  "},
		{Title: "Designer", CompanyName: "Other Co"},
	}

	out := wellFormed(in, "Acme", models.ExtractionHTMLPattern)
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out))
	}
	if out[0].CompanyName != "Acme" {
		t.Errorf("missing company should default, got %q", out[0].CompanyName)
	}
	if out[0].ExtractionMethod != models.ExtractionHTMLPattern {
		t.Errorf("missing method should default, got %q", out[0].ExtractionMethod)
	}
	if out[1].CompanyName != "Other Co" {
		t.Errorf("explicit company overwritten: %q", out[1].CompanyName)
	}
}
