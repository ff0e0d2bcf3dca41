package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger types.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// GetProviderName returns the name of the provider
func (p *ClaudeProvider) GetProviderName() string {
	return "claude"
}

// IsHealthy checks if the Claude API is reachable
func (p *ClaudeProvider) IsHealthy(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.LLM.Model),
		MaxTokens: 10,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("claude health check failed: %w", err)
	}
	return nil
}

// RankCareerLinks asks Claude to pick the most likely career page among
// candidate links from a company homepage.
func (p *ClaudeProvider) RankCareerLinks(ctx context.Context, companyName string, links []models.CandidateLink) (*models.CareerPageChoice, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("no candidate links to rank")
	}

	prompt := p.buildRankLinksPrompt(companyName, links)

	responseText, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to rank career links: %w", err)
	}

	var choice models.CareerPageChoice
	if err := json.Unmarshal([]byte(cleanJSONResponse(responseText)), &choice); err != nil {
		return nil, fmt.Errorf("failed to parse career link ranking: %w", err)
	}

	if choice.URL == "" {
		return nil, fmt.Errorf("model did not select a career page")
	}

	// Clamp confidence to a sane range
	if choice.Confidence <= 0 || choice.Confidence > 1 {
		choice.Confidence = p.config.Discovery.AIConfidence
	}

	return &choice, nil
}

// ExtractJobListings asks Claude to extract structured listings from cleaned
// career page content.
func (p *ClaudeProvider) ExtractJobListings(ctx context.Context, companyName, sourceURL, content string) ([]models.JobListing, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("no content to extract from")
	}

	maxLen := p.config.Extraction.MaxContentLength
	if maxLen > 0 && len(content) > maxLen {
		content = content[:maxLen]
	}

	prompt := p.buildExtractionPrompt(companyName, sourceURL, content)

	responseText, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to extract job listings: %w", err)
	}

	var payload struct {
		Jobs []models.JobListing `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(responseText)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extracted listings: %w", err)
	}

	listings := make([]models.JobListing, 0, len(payload.Jobs))
	for _, job := range payload.Jobs {
		if job.CompanyName == "" {
			job.CompanyName = companyName
		}
		if !job.IsWellFormed() {
			continue
		}
		listings = append(listings, job)
	}

	p.logger.Debug("Claude extracted job listings", map[string]interface{}{
		"company": companyName,
		"url":     sourceURL,
		"count":   len(listings),
	})

	return listings, nil
}

// ExplainMatch asks Claude for a short rationale for the computed scores. The
// response is prose, not JSON, and never feeds back into the numeric score.
func (p *ClaudeProvider) ExplainMatch(ctx context.Context, job *models.JobListing, prefs *models.UserPreferences, scores models.DimensionScores) (string, error) {
	prompt := p.buildReasoningPrompt(job, prefs, scores)

	responseText, err := p.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate match reasoning: %w", err)
	}

	return strings.TrimSpace(responseText), nil
}

// complete sends a single-turn completion request to Claude
func (p *ClaudeProvider) complete(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.config.LLM.Model),
		MaxTokens:   int64(p.config.LLM.MaxTokens),
		Temperature: anthropic.Float(p.config.LLM.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	return message.Content[0].Text, nil
}

func (p *ClaudeProvider) buildRankLinksPrompt(companyName string, links []models.CandidateLink) string {
	var sb strings.Builder
	sb.WriteString("You are helping locate the careers page for the company \"")
	sb.WriteString(companyName)
	sb.WriteString("\".\n\nHere are links found on the company homepage:\n\n")

	for i, link := range links {
		sb.WriteString(fmt.Sprintf("%d. %s (anchor text: %q)\n", i+1, link.URL, link.Text))
	}

	sb.WriteString(`
Pick the single link most likely to lead to the company's job listings page.

Respond with ONLY a JSON object in this exact format:
{"url": "<the chosen url>", "confidence": <0.0-1.0>, "reason": "<one short sentence>"}

If none of the links plausibly lead to job listings, respond with:
{"url": "", "confidence": 0, "reason": "no career link found"}`)

	return sb.String()
}

func (p *ClaudeProvider) buildExtractionPrompt(companyName, sourceURL, content string) string {
	return fmt.Sprintf(`Extract every job posting from this career page content for the company %q (source: %s).

Respond with ONLY valid JSON in this exact format:
{
  "jobs": [
    {
      "title": "string (required)",
      "company_name": "string (required)",
      "location": "string or empty",
      "employment_type": "string or empty",
      "description": "string or empty",
      "application_url": "string or empty",
      "salary": {"currency": "string", "min": 0, "max": 0} or null
    }
  ]
}

Rules:
- Only include real job postings, not navigation items, benefits blurbs or team descriptions.
- Keep titles exactly as written on the page.
- Resolve relative application URLs against the source URL when possible.
- Return {"jobs": []} if the page has no job postings.

Career page content:
%s`, companyName, sourceURL, content)
}

func (p *ClaudeProvider) buildReasoningPrompt(job *models.JobListing, prefs *models.UserPreferences, scores models.DimensionScores) string {
	return fmt.Sprintf(`In 2-3 sentences, explain to a job seeker why the role below received these match scores. Be concrete about which skills or requirements drove the result. Do not restate the numbers.

Role: %s at %s (%s)
Description: %s

Candidate skills: %s
Desired roles: %s
Preferred locations: %s

Scores (0-100): skills=%.0f, role=%.0f, experience=%.0f, location=%.0f, salary=%.0f`,
		job.Title, job.CompanyName, job.Location, truncate(job.Description, 1500),
		strings.Join(prefs.Skills, ", "),
		strings.Join(prefs.DesiredRoles, ", "),
		strings.Join(prefs.Locations, ", "),
		scores.Skills, scores.Role, scores.Experience, scores.Location, scores.Salary)
}

// cleanJSONResponse strips markdown code fences Claude sometimes wraps
// around JSON output.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")

	return strings.TrimSpace(response)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
