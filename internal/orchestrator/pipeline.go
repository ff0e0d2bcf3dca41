package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobscout/internal/agents"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// State is the pipeline lifecycle state
type State string

const (
	StatePending     State = "PENDING"
	StateDiscovering State = "DISCOVERING"
	StateExtracting  State = "EXTRACTING"
	StateMatching    State = "MATCHING"
	StateDone        State = "DONE"
	StateAborted     State = "ABORTED"
)

// Pipeline runs the three agents for one company under a shared wall-clock
// budget. A stage failure aborts the pipeline; whatever earlier stages
// produced is kept on the result.
type Pipeline struct {
	config     *config.Config
	discovery  agents.Agent
	extraction agents.Agent
	matching   agents.Agent
	logger     types.Logger

	state  State
	stages map[string]*agents.ExecutionState
}

// NewPipeline creates a pipeline over the given stage agents
func NewPipeline(cfg *config.Config, discovery, extraction, matching agents.Agent) *Pipeline {
	return &Pipeline{
		config:     cfg,
		discovery:  discovery,
		extraction: extraction,
		matching:   matching,
		logger:     logging.GetGlobalLogger().WithField("component", "pipeline"),
		state:      StatePending,
		stages: map[string]*agents.ExecutionState{
			utils.StageDiscovery:  agents.NewExecutionState("career_discovery"),
			utils.StageExtraction: agents.NewExecutionState("job_extraction"),
			utils.StageMatching:   agents.NewExecutionState("job_matching"),
		},
	}
}

// State returns the current pipeline state
func (p *Pipeline) State() State {
	return p.state
}

// StageStates returns the per-stage execution bookkeeping
func (p *Pipeline) StageStates() map[string]*agents.ExecutionState {
	return p.stages
}

// Run executes discovery, extraction and matching in order. The request's
// max_execution_time (or the configured default) caps the whole run; each
// stage gets a sub-deadline sliced from the remaining budget. Run never
// panics; every failure lands on the returned result.
func (p *Pipeline) Run(ctx context.Context, req *models.DiscoveryRequest) *models.DiscoveryResult {
	start := time.Now()
	result := &models.DiscoveryResult{
		CompanyName:    req.CompanyName,
		CompanyWebsite: req.CompanyWebsite,
		MatchedJobs:    []models.MatchResult{},
		RequestID:      utils.GenerateRequestID(),
		Timestamp:      start,
	}

	budget, budgetSet := req.Budget()
	if !budgetSet {
		budget = p.config.Orchestrator.DefaultBudget
	}
	deadline := start.Add(budget)

	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// Fast-fail when the budget is already exhausted: no agent runs at all
	if budget <= 0 || ctx.Err() != nil {
		p.abort(result, utils.NewTimeoutError(utils.StagePipeline, "budget exhausted before start"), start)
		return result
	}

	// Stage 1: discovery
	p.transition(StateDiscovering, req)
	discOut, perr := p.runStage(ctx, utils.StageDiscovery, p.discovery,
		&agents.Input{Request: req},
		p.stageDeadline(start, budget, p.config.Orchestrator.DiscoveryFraction, deadline),
		utils.CodeDiscoveryNotFound)
	if perr != nil {
		p.abort(result, perr, start)
		return result
	}
	result.CareerPageURL = discOut.CareerPageURL
	result.DiscoveryMethod = discOut.DiscoveryMethod
	result.DiscoveryConfidence = discOut.DiscoveryConfidence

	// Stage 2: extraction
	p.transition(StateExtracting, req)
	extOut, perr := p.runStage(ctx, utils.StageExtraction, p.extraction,
		&agents.Input{Request: req, CareerPageURL: discOut.CareerPageURL},
		p.stageDeadline(start, budget, p.config.Orchestrator.DiscoveryFraction+p.config.Orchestrator.ExtractionFraction, deadline),
		utils.CodeExtractionFailed)
	if perr != nil {
		p.abort(result, perr, start)
		return result
	}
	result.ExtractionMethod = extOut.ExtractionMethod
	result.TotalJobsExtracted = len(extOut.Listings)
	for _, w := range extOut.Warnings {
		result.Errors = append(result.Errors, w)
		if w.Code == string(utils.CodeExtractionPartial) {
			result.Partial = true
		}
	}

	// Stage 3: matching runs on whatever budget remains
	p.transition(StateMatching, req)
	matchOut, perr := p.runStage(ctx, utils.StageMatching, p.matching,
		&agents.Input{Request: req, CareerPageURL: discOut.CareerPageURL, Listings: extOut.Listings},
		deadline,
		utils.CodeMatchingFailed)
	if perr != nil {
		result.Partial = true
		p.abort(result, perr, start)
		return result
	}
	result.MatchedJobs = matchOut.Matches
	result.Errors = append(result.Errors, matchOut.Warnings...)

	p.state = StateDone
	result.Success = true
	result.ExecutionTime = time.Since(start).Seconds()

	p.logger.Info("Pipeline completed", map[string]interface{}{
		"company":    req.CompanyName,
		"extracted":  result.TotalJobsExtracted,
		"matched":    len(result.MatchedJobs),
		"partial":    result.Partial,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	return result
}

// stageDeadline slices a sub-deadline at the given cumulative fraction of
// the budget, never past the overall deadline.
func (p *Pipeline) stageDeadline(start time.Time, budget time.Duration, cumulativeFraction float64, overall time.Time) time.Time {
	d := start.Add(time.Duration(float64(budget) * cumulativeFraction))
	if d.After(overall) {
		return overall
	}
	return d
}

// runStage executes one agent under its sub-deadline, tracking execution
// state and converting panics and context errors to structured errors.
func (p *Pipeline) runStage(ctx context.Context, stage string, agent agents.Agent, in *agents.Input, deadline time.Time, fallback utils.ErrorCode) (out *agents.Output, perr *utils.PipelineError) {
	state := p.stages[stage]
	state.Begin()

	stageCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("agent panic: %v", r)
				out = nil
			}
		}()
		out, err = agent.Run(stageCtx, in)
	}()

	if err != nil {
		// The parent budget expiring counts as a pipeline timeout even when
		// the agent reports its own error type.
		if ctx.Err() != nil && !errors.Is(err, context.Canceled) {
			err = utils.NewTimeoutError(stage, "stage exceeded its deadline")
		}
		classified := utils.ClassifyStageError(err, stage, fallback)
		state.Finish(classified, classified.Code == utils.CodeTimeout)
		return nil, classified
	}
	if out == nil {
		classified := &utils.PipelineError{Code: fallback, Stage: stage, Message: "agent returned no output"}
		state.Finish(classified, false)
		return nil, classified
	}

	state.Finish(nil, false)
	return out, nil
}

func (p *Pipeline) transition(next State, req *models.DiscoveryRequest) {
	p.logger.Debug("Pipeline state transition", map[string]interface{}{
		"company": req.CompanyName,
		"from":    string(p.state),
		"to":      string(next),
	})
	p.state = next
}

// abort finalizes the result for a failed run
func (p *Pipeline) abort(result *models.DiscoveryResult, perr *utils.PipelineError, start time.Time) {
	p.state = StateAborted
	result.Success = false
	result.AddError(perr.Stage, string(perr.Code), perr.Message)
	result.ExecutionTime = time.Since(start).Seconds()

	p.logger.Warn("Pipeline aborted", map[string]interface{}{
		"company": result.CompanyName,
		"stage":   perr.Stage,
		"code":    string(perr.Code),
		"error":   perr.Message,
	})
}
