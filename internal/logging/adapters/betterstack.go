package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"jobscout/internal/logging/types"
)

// BetterstackConfig configures the Betterstack log shipper.
type BetterstackConfig struct {
	SourceToken   string            `yaml:"source_token"`
	Endpoint      string            `yaml:"endpoint"`
	BatchSize     int               `yaml:"batch_size"`
	FlushInterval time.Duration     `yaml:"flush_interval"`
	MaxRetries    int               `yaml:"max_retries"`
	Timeout       time.Duration     `yaml:"timeout"`
	UserAgent     string            `yaml:"user_agent"`
	Headers       map[string]string `yaml:"headers"`
}

// betterstackEntry is the wire format expected by the ingest API.
type betterstackEntry struct {
	Timestamp time.Time              `json:"dt"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// BetterstackAdapter buffers log entries and ships them to Betterstack
// in batches, flushing when the buffer fills or the flush interval fires.
type BetterstackAdapter struct {
	name       string
	config     BetterstackConfig
	httpClient *http.Client

	mu        sync.Mutex
	buffer    []betterstackEntry
	lastError error
	closed    bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBetterstackAdapter creates a new Betterstack adapter
func NewBetterstackAdapter(name string, config BetterstackConfig) (*BetterstackAdapter, error) {
	if config.SourceToken == "" {
		return nil, fmt.Errorf("source_token is required for Betterstack adapter")
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://in.logs.betterstack.com"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "jobscout/1.0"
	}

	a := &BetterstackAdapter{
		name:   name,
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go a.flushLoop()
	return a, nil
}

// Write buffers a log entry, flushing if the batch is full
func (a *BetterstackAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("adapter is closed")
	}

	a.buffer = append(a.buffer, betterstackEntry{
		Timestamp: entry.Timestamp,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    entry.Fields,
	})

	if len(a.buffer) >= a.config.BatchSize {
		return a.flushLocked()
	}
	return nil
}

// Close flushes buffered entries and stops the background flusher
func (a *BetterstackAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	err := a.flushLocked()
	a.mu.Unlock()

	close(a.stopCh)
	<-a.doneCh

	if transport, ok := a.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return err
}

// Health reports the outcome of the most recent flush
func (a *BetterstackAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastError != nil {
		return fmt.Errorf("last flush failed: %w", a.lastError)
	}
	return nil
}

// Name returns the name of the adapter
func (a *BetterstackAdapter) Name() string {
	return a.name
}

func (a *BetterstackAdapter) flushLoop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			if !a.closed {
				a.flushLocked()
			}
			a.mu.Unlock()
		case <-a.stopCh:
			return
		}
	}
}

// flushLocked ships the current buffer. Caller must hold a.mu.
func (a *BetterstackAdapter) flushLocked() error {
	if len(a.buffer) == 0 {
		return nil
	}
	batch := a.buffer
	a.buffer = nil

	err := a.ship(batch)
	a.lastError = err
	return err
}

// ship sends a batch to the ingest endpoint with linear backoff retries.
func (a *BetterstackAdapter) ship(batch []betterstackEntry) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal log batch: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, a.config.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.config.SourceToken)
		req.Header.Set("User-Agent", a.config.UserAgent)
		for key, value := range a.config.Headers {
			req.Header.Set(key, value)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		err = checkIngestResponse(resp)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryableStatus(resp.StatusCode) {
			break
		}
	}

	return fmt.Errorf("failed to ship log batch after %d attempts: %w", a.config.MaxRetries+1, lastErr)
}

func checkIngestResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: invalid source token")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s", string(body))
	default:
		return fmt.Errorf("ingest returned %d: %s", resp.StatusCode, string(body))
	}
}

func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
