package models

import (
	"fmt"
	"strings"
	"time"
)

// DiscoveryMethod records how a career page URL was found
type DiscoveryMethod string

const (
	DiscoveryPatternMatch DiscoveryMethod = "pattern_match"
	DiscoveryAIInferred   DiscoveryMethod = "ai_inferred"
)

// ExtractionMethod records which strategy produced a set of listings
type ExtractionMethod string

const (
	ExtractionStructuredData ExtractionMethod = "structured_data"
	ExtractionHTMLPattern    ExtractionMethod = "html_pattern"
	ExtractionAIAssisted     ExtractionMethod = "ai_assisted"
	ExtractionBrowserVision  ExtractionMethod = "browser_vision"
)

// SalaryRange represents a compensation range attached to a listing
type SalaryRange struct {
	Currency string `json:"currency,omitempty"`
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Period   string `json:"period,omitempty"`
}

// JobListing represents a single job posting extracted from a career page.
// Title and CompanyName are the only fields extraction guarantees; everything
// else is best-effort and may be empty.
type JobListing struct {
	Title            string           `json:"title"`
	CompanyName      string           `json:"company_name"`
	Location         string           `json:"location,omitempty"`
	EmploymentType   string           `json:"employment_type,omitempty"`
	Description      string           `json:"description,omitempty"`
	ApplicationURL   string           `json:"application_url,omitempty"`
	Salary           *SalaryRange     `json:"salary,omitempty"`
	PostedDate       *time.Time       `json:"posted_date,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extraction_method,omitempty"`
	SourceExcerpt    string           `json:"source_excerpt,omitempty"`
}

// IsWellFormed reports whether the listing carries the minimum fields a
// downstream consumer can act on.
func (j *JobListing) IsWellFormed() bool {
	return strings.TrimSpace(j.Title) != "" && strings.TrimSpace(j.CompanyName) != ""
}

// Identity returns the de-duplication key for the listing: the application
// URL when present, otherwise the (title, company, location) triple.
func (j *JobListing) Identity() string {
	if u := strings.TrimSpace(strings.ToLower(j.ApplicationURL)); u != "" {
		return strings.TrimRight(u, "/")
	}
	return fmt.Sprintf("%s|%s|%s",
		normalizeIdentityPart(j.Title),
		normalizeIdentityPart(j.CompanyName),
		normalizeIdentityPart(j.Location))
}

// DeduplicateListings removes duplicate listings while preserving the order
// of first appearance.
func DeduplicateListings(listings []JobListing) []JobListing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]JobListing, 0, len(listings))
	for _, l := range listings {
		key := l.Identity()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func normalizeIdentityPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
