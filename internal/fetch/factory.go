package fetch

import (
	"fmt"

	"jobscout/internal/config"
)

// Engines bundles the fetchers the agents draw from: a static HTTP fetcher
// for probing and cheap page loads, and a render engine for JS-heavy pages.
type Engines struct {
	Static  *HTTPFetcher
	Render  Fetcher
	limiter *DomainLimiter
}

// NewEngines constructs the fetch engines from configuration. The render
// engine is optional: when neither a browser nor Firecrawl can be set up the
// browser extraction strategy reports the capability as unavailable.
func NewEngines(cfg *config.Config) (*Engines, error) {
	limiter := NewDomainLimiter(cfg)

	engines := &Engines{
		Static:  NewHTTPFetcher(cfg, limiter),
		limiter: limiter,
	}

	switch cfg.Fetch.RenderEngine {
	case "browser":
		engines.Render = NewBrowserFetcher(cfg, limiter)
	case "firecrawl":
		if !cfg.IsFirecrawlConfigured() {
			return nil, fmt.Errorf("firecrawl render engine selected but no API key configured")
		}
		fc, err := NewFirecrawlFetcher(cfg, limiter)
		if err != nil {
			return nil, err
		}
		engines.Render = fc
	case "", "none":
		// static only
	default:
		return nil, fmt.Errorf("unsupported render engine: %s", cfg.Fetch.RenderEngine)
	}

	return engines, nil
}

// Limiter exposes the shared per-domain limiter for stats endpoints
func (e *Engines) Limiter() *DomainLimiter {
	return e.limiter
}

// Cleanup releases all engine resources
func (e *Engines) Cleanup() error {
	var firstErr error
	if e.Static != nil {
		if err := e.Static.Cleanup(); err != nil {
			firstErr = err
		}
	}
	if e.Render != nil {
		if err := e.Render.Cleanup(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.limiter != nil {
		e.limiter.Stop()
	}
	return firstErr
}
