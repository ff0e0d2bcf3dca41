package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

type stubAgent struct {
	name  string
	run   func(ctx context.Context, in *agents.Input) (*agents.Output, error)
	calls int64
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Run(ctx context.Context, in *agents.Input) (*agents.Output, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.run(ctx, in)
}

func okDiscovery() *stubAgent {
	return &stubAgent{name: "career_discovery", run: func(_ context.Context, _ *agents.Input) (*agents.Output, error) {
		return &agents.Output{
			CareerPageURL:       "https://acme.com/careers",
			DiscoveryMethod:     models.DiscoveryPatternMatch,
			DiscoveryConfidence: 1.0,
		}, nil
	}}
}

func okExtraction() *stubAgent {
	return &stubAgent{name: "job_extraction", run: func(_ context.Context, _ *agents.Input) (*agents.Output, error) {
		return &agents.Output{
			Listings: []models.JobListing{
				{Title: "Backend Engineer", CompanyName: "Acme"},
				{Title: "Frontend Developer", CompanyName: "Acme"},
			},
			ExtractionMethod: models.ExtractionStructuredData,
		}, nil
	}}
}

func okMatching() *stubAgent {
	return &stubAgent{name: "job_matching", run: func(_ context.Context, in *agents.Input) (*agents.Output, error) {
		matches := make([]models.MatchResult, 0, len(in.Listings))
		for _, l := range in.Listings {
			matches = append(matches, models.MatchResult{
				Job:            l,
				MatchScore:     75,
				Recommendation: models.RecommendationRecommended,
			})
		}
		return &agents.Output{Matches: matches}, nil
	}}
}

func orchestratorConfig() *config.Config {
	return &config.Config{
		Orchestrator: config.OrchestratorConfig{
			MaxConcurrent:      5,
			DefaultBudget:      30 * time.Second,
			DiscoveryFraction:  0.2,
			ExtractionFraction: 0.6,
		},
	}
}

func discoveryRequest() *models.DiscoveryRequest {
	return &models.DiscoveryRequest{
		CompanyName:    "Acme",
		CompanyWebsite: "https://acme.com",
		Preferences:    models.UserPreferences{Skills: []string{"go"}},
	}
}

func TestPipelineHappyPath(t *testing.T) {
	o := NewWithAgents(orchestratorConfig(), okDiscovery(), okExtraction(), okMatching())

	result := o.RunCompany(context.Background(), discoveryRequest())

	if !result.Success {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}
	if result.CareerPageURL != "https://acme.com/careers" {
		t.Errorf("career page = %q", result.CareerPageURL)
	}
	if result.DiscoveryMethod != models.DiscoveryPatternMatch || result.DiscoveryConfidence != 1.0 {
		t.Errorf("discovery metadata not propagated: %q %v", result.DiscoveryMethod, result.DiscoveryConfidence)
	}
	if result.TotalJobsExtracted != 2 {
		t.Errorf("extracted = %d, want 2", result.TotalJobsExtracted)
	}
	if len(result.MatchedJobs) != 2 {
		t.Errorf("matched = %d, want 2", len(result.MatchedJobs))
	}
}

func TestExpiredBudgetFailsFastWithoutAgentCalls(t *testing.T) {
	discovery, extraction, matching := okDiscovery(), okExtraction(), okMatching()
	o := NewWithAgents(orchestratorConfig(), discovery, extraction, matching)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	result := o.RunCompany(ctx, discoveryRequest())

	if result.Success {
		t.Fatal("expected failure on exhausted budget")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != string(utils.CodeTimeout) {
		t.Fatalf("expected a single TIMEOUT error, got %v", result.Errors)
	}
	if discovery.calls != 0 || extraction.calls != 0 || matching.calls != 0 {
		t.Errorf("agents ran despite exhausted budget: %d/%d/%d",
			discovery.calls, extraction.calls, matching.calls)
	}
	if result.MatchedJobs == nil {
		t.Error("MatchedJobs must be non-nil even on failure")
	}
}

func TestZeroBudgetFailsFastWithoutAgentCalls(t *testing.T) {
	discovery, extraction, matching := okDiscovery(), okExtraction(), okMatching()
	o := NewWithAgents(orchestratorConfig(), discovery, extraction, matching)

	req := discoveryRequest()
	zero := 0
	req.MaxExecutionTime = &zero

	result := o.RunCompany(context.Background(), req)

	if result.Success {
		t.Fatal("expected failure on zero budget")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != string(utils.CodeTimeout) {
		t.Fatalf("expected a single TIMEOUT error, got %v", result.Errors)
	}
	if discovery.calls != 0 || extraction.calls != 0 || matching.calls != 0 {
		t.Errorf("agents ran despite zero budget: %d/%d/%d",
			discovery.calls, extraction.calls, matching.calls)
	}
}

func TestUnsetBudgetUsesConfiguredDefault(t *testing.T) {
	o := NewWithAgents(orchestratorConfig(), okDiscovery(), okExtraction(), okMatching())

	result := o.RunCompany(context.Background(), discoveryRequest())

	if !result.Success {
		t.Fatalf("unset budget must fall back to the default, got errors %v", result.Errors)
	}
}

func TestDiscoveryFailureAbortsPipeline(t *testing.T) {
	discovery := &stubAgent{name: "career_discovery", run: func(_ context.Context, in *agents.Input) (*agents.Output, error) {
		return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, fmt.Errorf("all probes 404"))
	}}
	extraction, matching := okExtraction(), okMatching()
	o := NewWithAgents(orchestratorConfig(), discovery, extraction, matching)

	result := o.RunCompany(context.Background(), discoveryRequest())

	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != string(utils.CodeDiscoveryNotFound) {
		t.Fatalf("expected DISCOVERY_NOT_FOUND, got %v", result.Errors)
	}
	if extraction.calls != 0 || matching.calls != 0 {
		t.Errorf("later stages ran after discovery failed: %d/%d", extraction.calls, matching.calls)
	}
}

func TestExtractionWarningMarksPartial(t *testing.T) {
	extraction := &stubAgent{name: "job_extraction", run: func(_ context.Context, _ *agents.Input) (*agents.Output, error) {
		return &agents.Output{
			Listings:         []models.JobListing{{Title: "Backend Engineer", CompanyName: "Acme"}},
			ExtractionMethod: models.ExtractionHTMLPattern,
			Warnings: []models.StageError{{
				Stage:   utils.StageExtraction,
				Code:    string(utils.CodeExtractionPartial),
				Message: "extraction looks incomplete",
			}},
		}, nil
	}}
	o := NewWithAgents(orchestratorConfig(), okDiscovery(), extraction, okMatching())

	result := o.RunCompany(context.Background(), discoveryRequest())

	if !result.Success {
		t.Fatalf("partial extraction should still succeed, got %v", result.Errors)
	}
	if !result.Partial {
		t.Error("expected Partial flag")
	}
	if len(result.Errors) != 1 {
		t.Errorf("warning should surface on result, got %v", result.Errors)
	}
}

func TestAgentPanicBecomesFailedResult(t *testing.T) {
	matching := &stubAgent{name: "job_matching", run: func(_ context.Context, _ *agents.Input) (*agents.Output, error) {
		panic("scoring exploded")
	}}
	o := NewWithAgents(orchestratorConfig(), okDiscovery(), okExtraction(), matching)

	result := o.RunCompany(context.Background(), discoveryRequest())

	if result.Success {
		t.Fatal("expected failure after agent panic")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected a structured error from the panic")
	}
}

func TestBatchRespectsConcurrencyCapAndIsolation(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	discovery := &stubAgent{name: "career_discovery", run: func(_ context.Context, in *agents.Input) (*agents.Output, error) {
		current := atomic.AddInt64(&active, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&active, -1)

		if in.Request.CompanyName == "Broken Co" {
			return nil, utils.NewDiscoveryNotFoundError(in.Request.CompanyWebsite, fmt.Errorf("nothing found"))
		}
		return &agents.Output{
			CareerPageURL:   "https://" + in.Request.CompanyName + ".example/careers",
			DiscoveryMethod: models.DiscoveryPatternMatch,
		}, nil
	}}
	o := NewWithAgents(orchestratorConfig(), discovery, okExtraction(), okMatching())

	batch := &models.BatchDiscoveryRequest{
		Companies: []models.CompanyTarget{
			{Name: "Alpha", Website: "https://alpha.example"},
			{Name: "Broken Co", Website: "https://broken.example"},
			{Name: "Gamma", Website: "https://gamma.example"},
		},
		Preferences:   models.UserPreferences{Skills: []string{"go"}},
		MaxConcurrent: 2,
	}

	result := o.RunBatch(context.Background(), batch)

	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	// Results keep company order
	if result.Results[0].CompanyName != "Alpha" || result.Results[1].CompanyName != "Broken Co" || result.Results[2].CompanyName != "Gamma" {
		t.Errorf("result order does not match request order: %v", result.Results)
	}
	if result.Results[0].Success != true || result.Results[1].Success != false || result.Results[2].Success != true {
		t.Errorf("unexpected success flags: %v %v %v",
			result.Results[0].Success, result.Results[1].Success, result.Results[2].Success)
	}

	if result.Summary.Total != 3 || result.Summary.Succeeded != 2 || result.Summary.Failed != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("observed %d concurrent pipelines, cap was 2", peak)
	}
	if peak < 2 {
		t.Logf("peak concurrency %d; cap permitted 2", peak)
	}
}

func TestBatchClampsConcurrencyToConfig(t *testing.T) {
	cfg := orchestratorConfig()
	cfg.Orchestrator.MaxConcurrent = 1

	var active, peak int64
	var mu sync.Mutex
	discovery := &stubAgent{name: "career_discovery", run: func(_ context.Context, _ *agents.Input) (*agents.Output, error) {
		current := atomic.AddInt64(&active, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return &agents.Output{CareerPageURL: "https://x.example/careers"}, nil
	}}
	o := NewWithAgents(cfg, discovery, okExtraction(), okMatching())

	batch := &models.BatchDiscoveryRequest{
		Companies: []models.CompanyTarget{
			{Name: "A", Website: "https://a.example"},
			{Name: "B", Website: "https://b.example"},
		},
		Preferences:   models.UserPreferences{Skills: []string{"go"}},
		MaxConcurrent: 10,
	}

	o.RunBatch(context.Background(), batch)

	mu.Lock()
	defer mu.Unlock()
	if peak > 1 {
		t.Errorf("request raised the cap above the configured maximum: peak %d", peak)
	}
}
