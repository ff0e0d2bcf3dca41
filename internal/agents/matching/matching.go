// Package matching implements the job matching agent: five deterministic
// dimension scores, a weighted overall score with recommendation bands, and
// optional LLM-generated reasoning that never feeds back into the numbers.
package matching

import (
	"context"
	"fmt"
	"sort"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Reasoner is the LLM capability used for match explanations
type Reasoner interface {
	Available() bool
	ExplainMatch(ctx context.Context, job *models.JobListing, prefs *models.UserPreferences, scores models.DimensionScores) (string, error)
}

// Agent scores extracted listings against candidate preferences
type Agent struct {
	config   *config.Config
	reasoner Reasoner
	logger   types.Logger
}

// New creates a matching agent
func New(cfg *config.Config, reasoner Reasoner) *Agent {
	return &Agent{
		config:   cfg,
		reasoner: reasoner,
		logger:   logging.GetGlobalLogger().WithField("agent", "job_matching"),
	}
}

// Name returns the agent name
func (a *Agent) Name() string {
	return "job_matching"
}

// Run scores in.Listings. A failure on one listing is recorded as a warning
// and never aborts the others. Results below the candidate's threshold are
// filtered out unless AI analysis was requested, in which case everything is
// returned for auditability.
func (a *Agent) Run(ctx context.Context, in *agents.Input) (*agents.Output, error) {
	prefs := &in.Request.Preferences
	out := &agents.Output{}

	threshold := prefs.ScoreThreshold()
	if prefs.MinimumMatchScore == 0 {
		threshold = a.config.Scoring.DefaultMinScore * 100
	}

	matches := make([]models.MatchResult, 0, len(in.Listings))
	for i := range in.Listings {
		job := in.Listings[i]

		result, err := a.scoreOne(&job, prefs)
		if err != nil {
			pe := utils.NewMatchingFailedError(job.Title, err)
			out.Warnings = append(out.Warnings, models.StageError{
				Stage:   pe.Stage,
				Code:    string(pe.Code),
				Message: pe.Message,
			})
			continue
		}

		if in.Request.IncludeAIAnalysis || result.MatchScore >= threshold {
			matches = append(matches, *result)
		}
	}

	if in.Request.IncludeAIAnalysis {
		a.attachReasoning(ctx, matches, prefs)
	}

	SortMatches(matches)
	out.Matches = matches

	a.logger.Info("Matching completed", map[string]interface{}{
		"company":   in.Request.CompanyName,
		"listings":  len(in.Listings),
		"matches":   len(matches),
		"threshold": threshold,
	})

	return out, nil
}

// scoreOne computes all dimensions for a single listing. A panic in scoring
// is converted to an error so one malformed listing cannot take down the run.
func (a *Agent) scoreOne(job *models.JobListing, prefs *models.UserPreferences) (result *models.MatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("scoring panic: %v", r)
		}
	}()

	neutral := a.config.Scoring.NeutralScore

	dims := models.DimensionScores{
		Skills:     scoreSkills(job, prefs, neutral),
		Location:   scoreLocation(job, prefs, neutral),
		Experience: scoreExperience(job, prefs, neutral),
		Salary:     scoreSalary(job, prefs, neutral),
		Role:       scoreRole(job, prefs, neutral),
	}

	score := dims.Weighted(a.config.Scoring.Weights)

	return &models.MatchResult{
		Job:            *job,
		MatchScore:     score,
		Dimensions:     dims,
		Recommendation: a.config.Scoring.Bands.RecommendationFor(score),
	}, nil
}

// attachReasoning adds LLM explanations to the matches. Reasoning is
// cosmetic: failures are logged and the numeric scores stand.
func (a *Agent) attachReasoning(ctx context.Context, matches []models.MatchResult, prefs *models.UserPreferences) {
	if !a.config.Scoring.UseLLMReasoning || a.reasoner == nil || !a.reasoner.Available() {
		return
	}

	for i := range matches {
		if ctx.Err() != nil {
			return
		}
		reasoning, err := a.reasoner.ExplainMatch(ctx, &matches[i].Job, prefs, matches[i].Dimensions)
		if err != nil {
			a.logger.Debug("Match reasoning failed", map[string]interface{}{
				"title": matches[i].Job.Title,
				"error": err.Error(),
			})
			continue
		}
		matches[i].Reasoning = reasoning
	}
}

// SortMatches orders matches by descending score, breaking ties by the role
// dimension and then by title so output is stable across runs.
func SortMatches(matches []models.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		if matches[i].Dimensions.Role != matches[j].Dimensions.Role {
			return matches[i].Dimensions.Role > matches[j].Dimensions.Role
		}
		return matches[i].Job.Title < matches[j].Job.Title
	})
}
