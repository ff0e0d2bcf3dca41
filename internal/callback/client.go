// Package callback delivers completed task results to a caller-provided
// webhook URL, with bounded retries.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// Payload is the JSON body posted to the callback URL
type Payload struct {
	ProcessID      string      `json:"process_id"`
	Status         string      `json:"status"`
	Operation      string      `json:"operation"`
	Data           interface{} `json:"data,omitempty"`
	Error          string      `json:"error,omitempty"`
	ProcessingTime string      `json:"processing_time"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Client posts task completion payloads to webhook URLs
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     types.Logger
}

// NewClient creates a callback client from configuration
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Callback.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.Callback.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := cfg.Callback.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logging.GetGlobalLogger().WithField("component", "callback_client"),
	}
}

// Send posts the payload to callbackURL, retrying transient failures with
// linear backoff. 4xx responses are not retried.
func (c *Client) Send(ctx context.Context, callbackURL string, payload *Payload) error {
	if _, err := url.ParseRequestURI(callbackURL); err != nil {
		return fmt.Errorf("invalid callback url: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.post(ctx, callbackURL, body)
		if lastErr == nil {
			c.logger.Info("Callback delivered", map[string]interface{}{
				"process_id": payload.ProcessID,
				"url":        callbackURL,
				"attempt":    attempt,
			})
			return nil
		}

		if permanent, ok := lastErr.(*permanentError); ok {
			return permanent.err
		}

		c.logger.Warn("Callback attempt failed", map[string]interface{}{
			"process_id": payload.ProcessID,
			"url":        callbackURL,
			"attempt":    attempt,
			"error":      lastErr.Error(),
		})

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
	}

	return fmt.Errorf("callback to %s failed after %d attempts: %w", callbackURL, c.maxRetries, lastErr)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (c *Client) post(ctx context.Context, callbackURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "jobscout/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, 1024)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &permanentError{fmt.Errorf("callback rejected with status %d", resp.StatusCode)}
	}
	return fmt.Errorf("callback returned status %d", resp.StatusCode)
}
