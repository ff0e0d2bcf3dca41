package llm

import (
	"context"

	"jobscout/pkg/models"
)

// Provider defines the interface for LLM completion used by the agents
type Provider interface {
	// RankCareerLinks picks the most likely career page among candidate
	// links harvested from a company homepage
	RankCareerLinks(ctx context.Context, companyName string, links []models.CandidateLink) (*models.CareerPageChoice, error)

	// ExtractJobListings extracts structured job listings from cleaned
	// career page content
	ExtractJobListings(ctx context.Context, companyName, sourceURL, content string) ([]models.JobListing, error)

	// ExplainMatch produces a short natural-language rationale for the
	// computed dimension scores of one job
	ExplainMatch(ctx context.Context, job *models.JobListing, prefs *models.UserPreferences, scores models.DimensionScores) (string, error)

	// IsHealthy checks if the provider is available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the provider
	GetProviderName() string
}
