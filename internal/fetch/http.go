package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/utils"
)

// maxBodySize caps how much of a page we read into memory
const maxBodySize = 5 << 20

// HTTPFetcher retrieves pages with plain HTTP requests. It is the cheapest
// engine and the one used for career path probing; pages that need JS go
// through a render engine instead.
type HTTPFetcher struct {
	client  *http.Client
	config  *config.Config
	limiter *DomainLimiter
	logger  types.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher(cfg *config.Config, limiter *DomainLimiter) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: cfg.Fetch.Timeout,
		},
		config:  cfg,
		limiter: limiter,
		logger:  logging.GetGlobalLogger().WithField("component", "http_fetcher"),
	}
}

// Name returns the engine name
func (f *HTTPFetcher) Name() string {
	return "http"
}

// Cleanup releases resources held by the fetcher
func (f *HTTPFetcher) Cleanup() error {
	f.client.CloseIdleConnections()
	return nil
}

// Fetch retrieves the page at url, retrying transient failures
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts *Options) (*Result, error) {
	if err := f.limiter.Acquire(ctx, url); err != nil {
		return nil, err
	}

	var lastErr error
	attempts := f.config.Fetch.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.config.Fetch.RetryDelay * time.Duration(attempt)):
			}
		}

		result, err := f.doFetch(ctx, url)
		if err == nil {
			f.limiter.RecordSuccess(url)
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	f.limiter.RecordFailure(url, lastErr)
	return nil, fmt.Errorf("fetch %s failed: %w", url, lastErr)
}

func (f *HTTPFetcher) doFetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("client error %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Result{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		FetchedAt:  time.Now(),
	}, nil
}

// Probe checks whether a URL exists without downloading its body. It returns
// the final status code after redirects; a HEAD rejection falls back to GET
// since some career sites block HEAD.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) (int, error) {
	if err := f.limiter.Acquire(ctx, url); err != nil {
		return 0, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, f.config.Discovery.ProbeTimeout)
	defer cancel()

	status, err := f.doProbe(probeCtx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusForbidden) {
		status, err = f.doProbe(probeCtx, http.MethodGet, url)
	}
	if err != nil {
		f.limiter.RecordFailure(url, err)
		return 0, err
	}

	f.limiter.RecordSuccess(url)
	return status, nil
}

func (f *HTTPFetcher) doProbe(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain a little so connections can be reused
	_, _ = io.CopyN(io.Discard, resp.Body, 4096)

	return resp.StatusCode, nil
}

func (f *HTTPFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", utils.GetStringOrDefault(f.config.Fetch.UserAgent, "Mozilla/5.0 (compatible; JobScout/1.0)"))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
