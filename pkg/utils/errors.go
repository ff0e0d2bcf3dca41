package utils

import (
	"context"
	"errors"
	"fmt"
)

// Pipeline stage names as they appear on structured errors and results.
const (
	StageDiscovery  = "discovery"
	StageExtraction = "extraction"
	StageMatching   = "matching"
	StagePipeline   = "pipeline"
)

// ErrorCode classifies a pipeline failure
type ErrorCode string

const (
	CodeDiscoveryNotFound     ErrorCode = "DISCOVERY_NOT_FOUND"
	CodeExtractionFailed      ErrorCode = "EXTRACTION_FAILED"
	CodeExtractionPartial     ErrorCode = "EXTRACTION_PARTIAL"
	CodeMatchingFailed        ErrorCode = "MATCHING_FAILED"
	CodeTimeout               ErrorCode = "TIMEOUT"
	CodeCapabilityUnavailable ErrorCode = "CAPABILITY_UNAVAILABLE"
)

// PipelineError is a structured error carrying the stage that failed and a
// stable error code. All agent and orchestrator failures surface as this type
// so they can be reported on results instead of panicking.
type PipelineError struct {
	Code    ErrorCode `json:"code"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Stage, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Stage, e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewDiscoveryNotFoundError indicates no career page could be located
func NewDiscoveryNotFoundError(website string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeDiscoveryNotFound,
		Stage:   StageDiscovery,
		Message: fmt.Sprintf("no career page found for %s", website),
		Err:     err,
	}
}

// NewExtractionFailedError indicates every extraction strategy failed
func NewExtractionFailedError(url string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeExtractionFailed,
		Stage:   StageExtraction,
		Message: fmt.Sprintf("all extraction strategies failed for %s", url),
		Err:     err,
	}
}

// NewExtractionPartialError indicates extraction produced fewer listings than
// the page appears to hold.
func NewExtractionPartialError(url string, got int) *PipelineError {
	return &PipelineError{
		Code:    CodeExtractionPartial,
		Stage:   StageExtraction,
		Message: fmt.Sprintf("extraction from %s looks incomplete (%d listings)", url, got),
	}
}

// NewMatchingFailedError indicates scoring failed for a listing
func NewMatchingFailedError(title string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeMatchingFailed,
		Stage:   StageMatching,
		Message: fmt.Sprintf("failed to score listing %q", title),
		Err:     err,
	}
}

// NewTimeoutError indicates a stage or the whole pipeline ran out of budget
func NewTimeoutError(stage, detail string) *PipelineError {
	return &PipelineError{
		Code:    CodeTimeout,
		Stage:   stage,
		Message: detail,
	}
}

// NewCapabilityUnavailableError indicates a capability port (LLM, browser)
// is not usable in this deployment or is failing its health checks.
func NewCapabilityUnavailableError(stage, capability string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeCapabilityUnavailable,
		Stage:   stage,
		Message: fmt.Sprintf("capability %s unavailable", capability),
		Err:     err,
	}
}

// AsPipelineError extracts a PipelineError from err, wrapping unknown errors
// under the given stage and code so callers always get structured data.
func AsPipelineError(err error, stage string, fallback ErrorCode) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{Code: fallback, Stage: stage, Message: err.Error(), Err: err}
}

// ClassifyStageError maps context cancellation to TIMEOUT and leaves
// structured errors untouched.
func ClassifyStageError(err error, stage string, fallback ErrorCode) *PipelineError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTimeoutError(stage, "stage exceeded its deadline")
	}
	return AsPipelineError(err, stage, fallback)
}

// IsTimeout reports whether err is a budget exhaustion error
func IsTimeout(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == CodeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}
