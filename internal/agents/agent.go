// Package agents defines the common contract the pipeline agents share. The
// orchestrator depends only on the Agent interface; each agent's inputs and
// outputs travel in the Input/Output value bags so stages stay swappable.
package agents

import (
	"context"
	"time"

	"jobscout/pkg/models"
)

// Agent is a single pipeline stage
type Agent interface {
	Name() string
	Run(ctx context.Context, in *Input) (*Output, error)
}

// Input carries everything an agent may need. Each agent documents which
// fields it reads; Request is always set.
type Input struct {
	Request *models.DiscoveryRequest

	// CareerPageURL is set for extraction and later stages
	CareerPageURL string

	// Listings is set for the matching stage
	Listings []models.JobListing
}

// Output carries everything an agent may produce. Each agent documents which
// fields it fills.
type Output struct {
	// Discovery
	CareerPageURL       string
	DiscoveryMethod     models.DiscoveryMethod
	DiscoveryConfidence float64

	// Extraction
	Listings         []models.JobListing
	ExtractionMethod models.ExtractionMethod
	Attempts         []ExtractionAttempt

	// Matching
	Matches []models.MatchResult

	// Warnings are non-fatal structured errors (e.g. partial extraction,
	// per-job scoring failures) the pipeline surfaces on the result.
	Warnings []models.StageError
}

// ExtractionAttempt records one strategy try, successful or not
type ExtractionAttempt struct {
	Method   models.ExtractionMethod `json:"method"`
	Listings int                     `json:"listings"`
	Duration time.Duration           `json:"duration"`
	Err      string                  `json:"error,omitempty"`
}

// Status tracks an agent execution through its lifecycle
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// ExecutionState is the per-stage bookkeeping the orchestrator keeps for
// observability and partial-result reporting.
type ExecutionState struct {
	Agent      string     `json:"agent"`
	Status     Status     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewExecutionState creates a pending state for the named agent
func NewExecutionState(agent string) *ExecutionState {
	return &ExecutionState{Agent: agent, Status: StatusPending}
}

// Begin marks the state running
func (s *ExecutionState) Begin() {
	now := time.Now()
	s.StartedAt = &now
	s.Status = StatusRunning
}

// Finish records the outcome. Timeouts are tracked as their own status.
func (s *ExecutionState) Finish(err error, timedOut bool) {
	now := time.Now()
	s.FinishedAt = &now
	switch {
	case err == nil:
		s.Status = StatusSucceeded
	case timedOut:
		s.Status = StatusTimedOut
		s.Error = err.Error()
	default:
		s.Status = StatusFailed
		s.Error = err.Error()
	}
}

// Duration returns how long the stage ran, zero if it never started
func (s *ExecutionState) Duration() time.Duration {
	if s.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if s.FinishedAt != nil {
		end = *s.FinishedAt
	}
	return end.Sub(*s.StartedAt)
}
