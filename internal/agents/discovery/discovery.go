// Package discovery implements the career page discovery agent: cheap URL
// pattern probing first, LLM-ranked homepage links as the fallback.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// PageProber is the fetch capability discovery needs: existence probes and a
// single static page load for the homepage.
type PageProber interface {
	Probe(ctx context.Context, url string) (int, error)
	Fetch(ctx context.Context, url string, opts *fetch.Options) (*fetch.Result, error)
}

// LinkRanker is the LLM capability used for the AI-inferred fallback
type LinkRanker interface {
	Available() bool
	RankCareerLinks(ctx context.Context, companyName string, links []models.CandidateLink) (*models.CareerPageChoice, error)
}

var careerKeywords = []string{
	"career", "careers", "jobs", "job", "join", "hiring",
	"work with us", "work-with-us", "openings", "vacancies", "positions",
}

// Agent locates a company's career page
type Agent struct {
	config *config.Config
	prober PageProber
	ranker LinkRanker
	logger types.Logger
}

// New creates a discovery agent
func New(cfg *config.Config, prober PageProber, ranker LinkRanker) *Agent {
	return &Agent{
		config: cfg,
		prober: prober,
		ranker: ranker,
		logger: logging.GetGlobalLogger().WithField("agent", "career_discovery"),
	}
}

// Name returns the agent name
func (a *Agent) Name() string {
	return "career_discovery"
}

// Run probes well-known career paths on the company site and falls back to
// ranking homepage links when no probe hits. The output carries the page URL,
// the method that found it and a confidence value.
func (a *Agent) Run(ctx context.Context, in *agents.Input) (*agents.Output, error) {
	base, err := normalizeBaseURL(in.Request.CompanyWebsite)
	if err != nil {
		return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, err)
	}

	// Stage 1: known URL patterns
	if pageURL := a.probeKnownPaths(ctx, base); pageURL != "" {
		a.logger.Info("Career page found via pattern match", map[string]interface{}{
			"company": in.Request.CompanyName,
			"url":     pageURL,
		})
		return &agents.Output{
			CareerPageURL:       pageURL,
			DiscoveryMethod:     models.DiscoveryPatternMatch,
			DiscoveryConfidence: 1.0,
		}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Stage 2: harvest homepage links and let the LLM pick
	links, err := a.harvestHomepageLinks(ctx, base)
	if err != nil {
		return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, err)
	}
	if len(links) == 0 {
		return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, fmt.Errorf("no candidate links on homepage"))
	}

	choice, err := a.rankLinks(ctx, in.Request.CompanyName, base, links)
	if err != nil {
		return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, err)
	}

	a.logger.Info("Career page found via AI inference", map[string]interface{}{
		"company":    in.Request.CompanyName,
		"url":        choice.URL,
		"confidence": choice.Confidence,
	})

	return &agents.Output{
		CareerPageURL:       choice.URL,
		DiscoveryMethod:     models.DiscoveryAIInferred,
		DiscoveryConfidence: choice.Confidence,
	}, nil
}

// probeKnownPaths checks the configured career path patterns in order and
// returns the first URL that resolves.
func (a *Agent) probeKnownPaths(ctx context.Context, base *url.URL) string {
	for _, path := range a.config.Discovery.ProbePaths {
		if ctx.Err() != nil {
			return ""
		}

		candidate := base.Scheme + "://" + base.Host + path
		status, err := a.prober.Probe(ctx, candidate)
		if err != nil {
			continue
		}
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			return candidate
		}
	}
	return ""
}

// harvestHomepageLinks loads the homepage and collects same-origin links,
// keyword-bearing ones first, capped at the configured maximum.
func (a *Agent) harvestHomepageLinks(ctx context.Context, base *url.URL) ([]models.CandidateLink, error) {
	result, err := a.prober.Fetch(ctx, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load homepage: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse homepage: %w", err)
	}

	seen := make(map[string]struct{})
	var links []models.CandidateLink

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved := resolveLink(base, href)
		if resolved == "" {
			return
		}
		if !sameSite(base, resolved) {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, models.CandidateLink{
			URL:  resolved,
			Text: strings.Join(strings.Fields(s.Text()), " "),
		})
	})

	// Keyword links first so truncation keeps the promising ones
	sort.SliceStable(links, func(i, j int) bool {
		return looksLikeCareerLink(links[i]) && !looksLikeCareerLink(links[j])
	})

	if max := a.config.Discovery.MaxHomepageLinks; max > 0 && len(links) > max {
		links = links[:max]
	}

	return links, nil
}

// rankLinks asks the LLM to pick a career link. Without an LLM the agent
// falls back to probing the best keyword candidate.
func (a *Agent) rankLinks(ctx context.Context, companyName string, base *url.URL, links []models.CandidateLink) (*models.CareerPageChoice, error) {
	if a.ranker == nil || !a.ranker.Available() {
		if choice := a.keywordFallback(ctx, links); choice != nil {
			return choice, nil
		}
		return nil, utils.NewCapabilityUnavailableError(utils.StageDiscovery, "llm", nil)
	}

	choice, err := a.ranker.RankCareerLinks(ctx, companyName, links)
	if err != nil {
		return nil, err
	}
	if choice.URL == "" {
		return nil, fmt.Errorf("no career link among homepage candidates")
	}
	if !sameSite(base, choice.URL) {
		return nil, fmt.Errorf("model selected off-site link %s", choice.URL)
	}
	return choice, nil
}

// keywordFallback probes the first keyword-bearing link when no LLM is
// available. Confidence is deliberately lower than a ranked pick.
func (a *Agent) keywordFallback(ctx context.Context, links []models.CandidateLink) *models.CareerPageChoice {
	for _, link := range links {
		if !looksLikeCareerLink(link) {
			continue
		}
		status, err := a.prober.Probe(ctx, link.URL)
		if err != nil || status >= http.StatusMultipleChoices {
			continue
		}
		return &models.CareerPageChoice{
			URL:        link.URL,
			Confidence: a.config.Discovery.AIConfidence / 2,
			Reason:     "keyword match without model ranking",
		}
	}
	return nil
}

func looksLikeCareerLink(link models.CandidateLink) bool {
	haystack := strings.ToLower(link.Text + " " + link.URL)
	for _, kw := range careerKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func normalizeBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid company website: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid company website: %w", err)
		}
	}
	if u.Host == "" {
		return nil, fmt.Errorf("company website has no host: %s", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// sameSite reports whether target is on the base host or one of its
// subdomains (jobs.example.com counts for example.com).
func sameSite(base *url.URL, target string) bool {
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	targetHost := strings.TrimPrefix(strings.ToLower(t.Hostname()), "www.")
	return targetHost == baseHost || strings.HasSuffix(targetHost, "."+baseHost)
}
