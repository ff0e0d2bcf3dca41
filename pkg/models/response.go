package models

import "time"

// StageError is a structured error surfaced on a DiscoveryResult. Stage names
// the pipeline stage that failed and Code is one of the pipeline error codes.
type StageError struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiscoveryResult is the outcome of one company pipeline run. Success means
// the pipeline reached the end with matches computed; Partial marks runs that
// produced usable output despite stage failures or truncation.
type DiscoveryResult struct {
	CompanyName         string           `json:"company_name"`
	CompanyWebsite      string           `json:"company_website"`
	Success             bool             `json:"success"`
	Partial             bool             `json:"partial,omitempty"`
	CareerPageURL       string           `json:"career_page_url,omitempty"`
	DiscoveryMethod     DiscoveryMethod  `json:"discovery_method,omitempty"`
	DiscoveryConfidence float64          `json:"discovery_confidence,omitempty"`
	ExtractionMethod    ExtractionMethod `json:"extraction_method,omitempty"`
	TotalJobsExtracted  int              `json:"total_jobs_extracted"`
	MatchedJobs         []MatchResult    `json:"matched_jobs"`
	Errors              []StageError     `json:"errors,omitempty"`
	ExecutionTime       float64          `json:"execution_time_seconds"`
	RequestID           string           `json:"request_id,omitempty"`
	Timestamp           time.Time        `json:"timestamp"`
}

// AddError appends a stage error to the result.
func (r *DiscoveryResult) AddError(stage, code, message string) {
	r.Errors = append(r.Errors, StageError{Stage: stage, Code: code, Message: message})
}

// BatchSummary aggregates per-company outcomes of a batch run.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
}

// BatchDiscoveryResult is the aggregated report for a batch run. Results are
// in the same order as the companies in the request.
type BatchDiscoveryResult struct {
	Results       []DiscoveryResult `json:"results"`
	Summary       BatchSummary      `json:"summary"`
	ExecutionTime float64           `json:"execution_time_seconds"`
	RequestID     string            `json:"request_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Summarize recomputes the summary from the individual results.
func (b *BatchDiscoveryResult) Summarize() {
	s := BatchSummary{Total: len(b.Results)}
	for _, r := range b.Results {
		switch {
		case r.Success && !r.Partial:
			s.Succeeded++
		case r.Success || r.Partial:
			s.Partial++
		default:
			s.Failed++
		}
	}
	b.Summary = s
}

// ErrorResponse is the generic API error envelope
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}
