// Package orchestrator coordinates the discovery, extraction and matching
// agents: one pipeline per company, a bounded worker pool for batch runs,
// and per-company isolation so a failing site never sinks its neighbors.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"jobscout/internal/agents"
	"jobscout/internal/agents/discovery"
	"jobscout/internal/agents/extraction"
	"jobscout/internal/agents/matching"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/internal/llm"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Orchestrator owns the stage agents and runs company pipelines
type Orchestrator struct {
	config     *config.Config
	discovery  agents.Agent
	extraction agents.Agent
	matching   agents.Agent
	logger     types.Logger

	activeRuns int64
	totalRuns  int64
}

// New wires the production agents from the fetch engines and LLM manager
func New(cfg *config.Config, engines *fetch.Engines, llmManager *llm.Manager) *Orchestrator {
	var renderer extraction.RenderFetcher
	if engines.Render != nil {
		renderer = engines.Render
	}

	return NewWithAgents(cfg,
		discovery.New(cfg, engines.Static, llmManager),
		extraction.New(cfg, engines.Static, renderer, llmManager),
		matching.New(cfg, llmManager),
	)
}

// NewWithAgents builds an orchestrator over explicit stage agents
func NewWithAgents(cfg *config.Config, d, e, m agents.Agent) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		discovery:  d,
		extraction: e,
		matching:   m,
		logger:     logging.GetGlobalLogger().WithField("component", "orchestrator"),
	}
}

// RunCompany executes the full pipeline for one company
func (o *Orchestrator) RunCompany(ctx context.Context, req *models.DiscoveryRequest) *models.DiscoveryResult {
	atomic.AddInt64(&o.activeRuns, 1)
	atomic.AddInt64(&o.totalRuns, 1)
	defer atomic.AddInt64(&o.activeRuns, -1)

	return o.runIsolated(ctx, req)
}

// RunBatch executes pipelines for all companies in the batch with a bounded
// worker pool. Results keep the request's company order; a failing company
// only affects its own slot.
func (o *Orchestrator) RunBatch(ctx context.Context, batch *models.BatchDiscoveryRequest) *models.BatchDiscoveryResult {
	start := time.Now()

	maxConcurrent := batch.MaxConcurrent
	if maxConcurrent <= 0 || maxConcurrent > o.config.Orchestrator.MaxConcurrent {
		maxConcurrent = o.config.Orchestrator.MaxConcurrent
	}

	o.logger.Info("Batch run started", map[string]interface{}{
		"companies":      len(batch.Companies),
		"max_concurrent": maxConcurrent,
	})

	results := make([]models.DiscoveryResult, len(batch.Companies))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, target := range batch.Companies {
		wg.Add(1)
		go func(idx int, target models.CompanyTarget) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			atomic.AddInt64(&o.activeRuns, 1)
			atomic.AddInt64(&o.totalRuns, 1)
			defer atomic.AddInt64(&o.activeRuns, -1)

			results[idx] = *o.runIsolated(ctx, batch.RequestFor(target))
		}(i, target)
	}

	wg.Wait()

	batchResult := &models.BatchDiscoveryResult{
		Results:       results,
		ExecutionTime: time.Since(start).Seconds(),
		RequestID:     utils.GenerateRequestID(),
		Timestamp:     start,
	}
	batchResult.Summarize()

	o.logger.Info("Batch run completed", map[string]interface{}{
		"total":     batchResult.Summary.Total,
		"succeeded": batchResult.Summary.Succeeded,
		"partial":   batchResult.Summary.Partial,
		"failed":    batchResult.Summary.Failed,
	})

	return batchResult
}

// runIsolated runs one pipeline and converts any escaped panic into a failed
// result, keeping company runs independent of each other.
func (o *Orchestrator) runIsolated(ctx context.Context, req *models.DiscoveryRequest) (result *models.DiscoveryResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Pipeline panicked", map[string]interface{}{
				"company": req.CompanyName,
				"panic":   r,
			})
			result = &models.DiscoveryResult{
				CompanyName:    req.CompanyName,
				CompanyWebsite: req.CompanyWebsite,
				MatchedJobs:    []models.MatchResult{},
				Timestamp:      time.Now(),
			}
			result.AddError(utils.StagePipeline, string(utils.CodeMatchingFailed), "pipeline terminated unexpectedly")
		}
	}()

	pipeline := NewPipeline(o.config, o.discovery, o.extraction, o.matching)
	return pipeline.Run(ctx, req)
}

// Stats reports orchestrator counters for the workers endpoint
func (o *Orchestrator) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active_runs":    atomic.LoadInt64(&o.activeRuns),
		"total_runs":     atomic.LoadInt64(&o.totalRuns),
		"max_concurrent": o.config.Orchestrator.MaxConcurrent,
	}
}
