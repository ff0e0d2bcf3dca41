package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String returns string representation of CircuitState
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type domainLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.RWMutex
}

type circuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
	mu           sync.Mutex
}

// DomainLimiter applies per-domain rate limiting and circuit breaking to
// outbound fetches so one slow or failing site cannot starve a batch run.
type DomainLimiter struct {
	config        *config.Config
	limiters      map[string]*domainLimiter
	breakers      map[string]*circuitBreaker
	mu            sync.Mutex
	logger        types.Logger
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewDomainLimiter creates a new per-domain limiter
func NewDomainLimiter(cfg *config.Config) *DomainLimiter {
	dl := &DomainLimiter{
		config:        cfg,
		limiters:      make(map[string]*domainLimiter),
		breakers:      make(map[string]*circuitBreaker),
		logger:        logging.GetGlobalLogger().WithField("component", "domain_limiter"),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	go dl.cleanupRoutine()

	return dl
}

// Acquire blocks until a request to the URL's domain is permitted, or fails
// immediately when the domain's circuit breaker is open.
func (dl *DomainLimiter) Acquire(ctx context.Context, rawURL string) error {
	domain := DomainOf(rawURL)

	if !dl.circuitAllows(domain) {
		return fmt.Errorf("circuit breaker open for domain %s", domain)
	}

	limiter := dl.getDomainLimiter(domain)
	if err := limiter.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", domain, err)
	}

	limiter.mu.Lock()
	limiter.requests++
	limiter.lastSeen = time.Now()
	limiter.mu.Unlock()

	return nil
}

// RecordSuccess records a successful request for the URL's domain
func (dl *DomainLimiter) RecordSuccess(rawURL string) {
	domain := DomainOf(rawURL)

	dl.mu.Lock()
	cb, exists := dl.breakers[domain]
	dl.mu.Unlock()
	if !exists {
		return
	}

	cb.mu.Lock()
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.failureCount = 0
		dl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{
			"domain": domain,
		})
	}
	cb.mu.Unlock()
}

// RecordFailure records a failed request for the URL's domain
func (dl *DomainLimiter) RecordFailure(rawURL string, err error) {
	domain := DomainOf(rawURL)

	if limiter := dl.peekDomainLimiter(domain); limiter != nil {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := dl.getCircuitBreaker(domain)
	cb.mu.Lock()
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.failureCount >= cb.maxFailures && cb.state == CircuitClosed {
		cb.state = CircuitOpen
		dl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"domain":   domain,
			"failures": cb.failureCount,
			"error":    err.Error(),
		})
	}
	cb.mu.Unlock()
}

func (dl *DomainLimiter) getDomainLimiter(domain string) *domainLimiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	rps := rate.Limit(dl.config.Fetch.RateLimitRPS)
	if rps <= 0 {
		rps = rate.Inf
	}
	burst := dl.config.Fetch.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	limiter := &domainLimiter{
		limiter:  rate.NewLimiter(rps, burst),
		lastSeen: time.Now(),
	}
	dl.limiters[domain] = limiter

	return limiter
}

func (dl *DomainLimiter) peekDomainLimiter(domain string) *domainLimiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.limiters[domain]
}

func (dl *DomainLimiter) getCircuitBreaker(domain string) *circuitBreaker {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if cb, exists := dl.breakers[domain]; exists {
		return cb
	}

	maxFailures := dl.config.Fetch.BreakerThreshold
	if maxFailures <= 0 {
		maxFailures = 5
	}
	resetTimeout := dl.config.Fetch.BreakerCooldown
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &circuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
	}
	dl.breakers[domain] = cb

	return cb
}

func (dl *DomainLimiter) circuitAllows(domain string) bool {
	cb := dl.getCircuitBreaker(domain)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			dl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
				"domain": domain,
			})
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// DomainStats returns statistics for a specific domain
func (dl *DomainLimiter) DomainStats(domain string) map[string]interface{} {
	domain = strings.ToLower(domain)
	stats := make(map[string]interface{})

	if limiter := dl.peekDomainLimiter(domain); limiter != nil {
		limiter.mu.RLock()
		stats["requests"] = limiter.requests
		stats["failures"] = limiter.failures
		stats["last_seen"] = limiter.lastSeen
		limiter.mu.RUnlock()
	}

	dl.mu.Lock()
	cb := dl.breakers[domain]
	dl.mu.Unlock()
	if cb != nil {
		cb.mu.Lock()
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
		cb.mu.Unlock()
	}

	return stats
}

// AllStats returns statistics for all tracked domains
func (dl *DomainLimiter) AllStats() map[string]map[string]interface{} {
	dl.mu.Lock()
	domains := make(map[string]bool)
	for domain := range dl.limiters {
		domains[domain] = true
	}
	for domain := range dl.breakers {
		domains[domain] = true
	}
	dl.mu.Unlock()

	allStats := make(map[string]map[string]interface{}, len(domains))
	for domain := range domains {
		allStats[domain] = dl.DomainStats(domain)
	}
	return allStats
}

func (dl *DomainLimiter) cleanupRoutine() {
	for {
		select {
		case <-dl.cleanupTicker.C:
			dl.cleanup()
		case <-dl.stopCleanup:
			dl.cleanupTicker.Stop()
			return
		}
	}
}

// cleanup removes limiters and breakers for domains not seen recently
func (dl *DomainLimiter) cleanup() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)

	for domain, limiter := range dl.limiters {
		limiter.mu.RLock()
		lastSeen := limiter.lastSeen
		limiter.mu.RUnlock()
		if lastSeen.Before(cutoff) {
			delete(dl.limiters, domain)
		}
	}

	for domain, cb := range dl.breakers {
		cb.mu.Lock()
		stale := cb.state == CircuitClosed && cb.lastFailTime.Before(cutoff)
		cb.mu.Unlock()
		if stale {
			delete(dl.breakers, domain)
		}
	}
}

// Stop stops the limiter's cleanup routine
func (dl *DomainLimiter) Stop() {
	close(dl.stopCleanup)
}

// DomainOf extracts the lowercased hostname from a URL string
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(parsed.Hostname())
}
