package fetch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// BrowserFetcher renders pages in a pooled headless Chrome. It is the engine
// behind the browser extraction strategy: JS-heavy career pages, scroll
// pagination and full-page screenshots.
type BrowserFetcher struct {
	config       *config.Config
	launcher     *launcher.Launcher
	browsers     []*rod.Browser
	mu           sync.Mutex
	maxInstances int
	limiter      *DomainLimiter
	logger       types.Logger
}

// NewBrowserFetcher creates a new browser-backed fetcher
func NewBrowserFetcher(cfg *config.Config, limiter *DomainLimiter) *BrowserFetcher {
	logger := logging.GetGlobalLogger()

	l := launcher.New().
		Headless(cfg.Fetch.Browser.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		// Required for containerized Chrome
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if chromePath := systemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	}

	userAgent := cfg.Fetch.Browser.UserAgent
	if userAgent == "" {
		userAgent = cfg.Fetch.UserAgent
	}
	if userAgent != "" {
		l = l.Set("user-agent", userAgent)
	}

	maxInstances := cfg.Fetch.Browser.PoolSize
	if maxInstances <= 0 {
		maxInstances = 1
	}

	return &BrowserFetcher{
		config:       cfg,
		launcher:     l,
		browsers:     make([]*rod.Browser, 0),
		maxInstances: maxInstances,
		limiter:      limiter,
		logger:       logger.WithField("component", "browser_fetcher"),
	}
}

// Name returns the engine name
func (f *BrowserFetcher) Name() string {
	return "browser"
}

// Fetch renders the page, runs scroll pagination to surface lazily loaded
// listings, and returns the settled HTML (plus a screenshot when requested).
func (f *BrowserFetcher) Fetch(ctx context.Context, url string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := f.limiter.Acquire(ctx, url); err != nil {
		return nil, err
	}

	page, release, err := f.acquirePage(ctx)
	if err != nil {
		f.limiter.RecordFailure(url, err)
		return nil, err
	}
	defer release()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.config.Fetch.Browser.PageTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = rod.Try(func() {
		page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		f.limiter.RecordFailure(url, err)
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	f.scrollThrough(navCtx, page, opts)

	html, err := page.HTML()
	if err != nil {
		f.limiter.RecordFailure(url, err)
		return nil, fmt.Errorf("failed to get page HTML: %w", err)
	}

	result := &Result{
		URL:        url,
		StatusCode: 200,
		HTML:       html,
		Rendered:   true,
		FetchedAt:  time.Now(),
	}

	if opts.CaptureScreenshot {
		shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			f.logger.Warn("Failed to capture screenshot", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
		} else {
			result.Screenshot = shot
		}
	}

	f.limiter.RecordSuccess(url)
	return result, nil
}

// scrollThrough scrolls to the bottom of the page repeatedly, waiting for
// lazy content between rounds. Stops early once the page height settles.
func (f *BrowserFetcher) scrollThrough(ctx context.Context, page *rod.Page, opts *Options) {
	rounds := opts.ScrollRounds
	if rounds <= 0 {
		rounds = f.config.Fetch.Browser.ScrollRounds
	}

	lastHeight := -1
	for i := 0; i < rounds; i++ {
		if ctx.Err() != nil {
			return
		}

		var height int
		err := rod.Try(func() {
			page.MustEval(`() => window.scrollTo(0, document.body.scrollHeight)`)
			height = page.MustEval(`() => document.body.scrollHeight`).Int()
		})
		if err != nil {
			f.logger.Debug("Scroll round failed", map[string]interface{}{
				"round": i,
				"error": err.Error(),
			})
			return
		}

		if height == lastHeight {
			return
		}
		lastHeight = height

		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// acquirePage returns a stealth page from a pooled browser and a release func
func (f *BrowserFetcher) acquirePage(ctx context.Context) (*rod.Page, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, browser := range f.browsers {
		if !f.isBrowserHealthy(browser) {
			continue
		}
		page, err := f.createStealthPage(browser)
		if err != nil {
			f.logger.Warn("Failed to create page from existing browser", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		return page, func() { _ = page.Close() }, nil
	}

	if len(f.browsers) >= f.maxInstances {
		return nil, nil, fmt.Errorf("browser pool exhausted, max instances: %d", f.maxInstances)
	}

	browser, err := f.createBrowser()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser: %w", err)
	}
	f.browsers = append(f.browsers, browser)

	page, err := f.createStealthPage(browser)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stealth page: %w", err)
	}
	return page, func() { _ = page.Close() }, nil
}

func (f *BrowserFetcher) createBrowser() (*rod.Browser, error) {
	url, err := f.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.logger.Info("New browser instance created")
	return browser, nil
}

func (f *BrowserFetcher) isBrowserHealthy(browser *rod.Browser) bool {
	return rod.Try(func() {
		browser.MustVersion()
	}) == nil
}

// createStealthPage creates a new page with stealth mode enabled
func (f *BrowserFetcher) createStealthPage(browser *rod.Browser) (*rod.Page, error) {
	var page *rod.Page
	var err error

	if f.config.Fetch.Browser.StealthMode {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		f.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return page, nil
}

// Cleanup closes all pooled browsers
func (f *BrowserFetcher) Cleanup() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, browser := range f.browsers {
		if err := rod.Try(func() { browser.MustClose() }); err != nil {
			f.logger.Warn("Failed to close browser", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	f.browsers = f.browsers[:0]
	return nil
}

// systemChromePath finds an installed Chrome/Chromium binary so rod does not
// have to download one.
func systemChromePath() string {
	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
