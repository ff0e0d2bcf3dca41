package matching

import (
	"context"
	"reflect"
	"testing"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/pkg/models"
)

func scoringConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			Weights:         models.DefaultScoreWeights(),
			Bands:           models.DefaultScoreBands(),
			NeutralScore:    50,
			DefaultMinScore: 0.4,
		},
	}
}

func matchingInput(prefs models.UserPreferences, listings ...models.JobListing) *agents.Input {
	return &agents.Input{
		Request: &models.DiscoveryRequest{
			CompanyName: "Acme",
			Preferences: prefs,
		},
		Listings: listings,
	}
}

func TestRunIsIdempotent(t *testing.T) {
	agent := New(scoringConfig(), nil)

	prefs := models.UserPreferences{
		Skills:       []string{"go", "kubernetes"},
		DesiredRoles: []string{"backend engineer"},
		Locations:    []string{"Berlin"},
	}
	listings := []models.JobListing{
		{Title: "Senior Backend Engineer", CompanyName: "Acme", Location: "Berlin", Description: "go kubernetes"},
		{Title: "Accountant", CompanyName: "Acme", Location: "Berlin"},
		{Title: "Backend Developer", CompanyName: "Acme", Location: "Remote", Description: "go"},
	}

	first, err := agent.Run(context.Background(), matchingInput(prefs, listings...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := agent.Run(context.Background(), matchingInput(prefs, listings...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Errorf("matching is not deterministic:\nfirst:  %+v\nsecond: %+v", first.Matches, second.Matches)
	}
}

func TestRunFiltersBelowThreshold(t *testing.T) {
	agent := New(scoringConfig(), nil)

	prefs := models.UserPreferences{
		Skills:            []string{"go"},
		DesiredRoles:      []string{"backend engineer"},
		MinimumMatchScore: 0.99,
	}
	listings := []models.JobListing{
		{Title: "Accountant", CompanyName: "Acme", Description: "bookkeeping"},
	}

	out, err := agent.Run(context.Background(), matchingInput(prefs, listings...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Matches) != 0 {
		t.Errorf("expected all matches filtered, got %d", len(out.Matches))
	}
}

func TestRunDefaultThresholdWhenUnset(t *testing.T) {
	cfg := scoringConfig()
	cfg.Scoring.DefaultMinScore = 0 // accept everything
	agent := New(cfg, nil)

	prefs := models.UserPreferences{Skills: []string{"go"}}
	listings := []models.JobListing{
		{Title: "Accountant", CompanyName: "Acme", Description: "bookkeeping"},
	}

	out, err := agent.Run(context.Background(), matchingInput(prefs, listings...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Matches) != 1 {
		t.Fatalf("expected 1 match with zero threshold, got %d", len(out.Matches))
	}
	if out.Matches[0].MatchScore < 0 || out.Matches[0].MatchScore > 100 {
		t.Errorf("match score %v out of [0,100]", out.Matches[0].MatchScore)
	}
}

func TestRunIncludeAIAnalysisKeepsAllResults(t *testing.T) {
	agent := New(scoringConfig(), nil)

	prefs := models.UserPreferences{
		Skills:            []string{"go"},
		MinimumMatchScore: 0.99,
	}
	in := matchingInput(prefs, models.JobListing{Title: "Accountant", CompanyName: "Acme", Description: "ledgers"})
	in.Request.IncludeAIAnalysis = true

	out, err := agent.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Matches) != 1 {
		t.Errorf("AI analysis runs should keep sub-threshold results, got %d matches", len(out.Matches))
	}
}

func TestSortMatchesTieBreaks(t *testing.T) {
	matches := []models.MatchResult{
		{Job: models.JobListing{Title: "Zebra Handler"}, MatchScore: 70, Dimensions: models.DimensionScores{Role: 40}},
		{Job: models.JobListing{Title: "Backend Engineer"}, MatchScore: 70, Dimensions: models.DimensionScores{Role: 90}},
		{Job: models.JobListing{Title: "Platform Engineer"}, MatchScore: 90, Dimensions: models.DimensionScores{Role: 10}},
		{Job: models.JobListing{Title: "Apple Polisher"}, MatchScore: 70, Dimensions: models.DimensionScores{Role: 40}},
	}
	SortMatches(matches)

	wantOrder := []string{"Platform Engineer", "Backend Engineer", "Apple Polisher", "Zebra Handler"}
	for i, want := range wantOrder {
		if matches[i].Job.Title != want {
			t.Errorf("position %d: got %q, want %q", i, matches[i].Job.Title, want)
		}
	}
}

func TestRecommendationAtBandEdge(t *testing.T) {
	cfg := scoringConfig()

	// Every dimension at exactly 80 yields an overall score of exactly 80,
	// which must land in the top band.
	dims := models.DimensionScores{Skills: 80, Location: 80, Experience: 80, Salary: 80, Role: 80}
	score := dims.Weighted(cfg.Scoring.Weights)
	if score != 80 {
		t.Fatalf("expected weighted score 80, got %v", score)
	}
	if got := cfg.Scoring.Bands.RecommendationFor(score); got != models.RecommendationHighly {
		t.Errorf("score 80.0 mapped to %q, want %q", got, models.RecommendationHighly)
	}
}
