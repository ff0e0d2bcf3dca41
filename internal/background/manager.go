// Package background processes discovery requests off the request path: a
// bounded worker pool drains a task queue, envelopes are persisted for
// polling, and completed batches can notify a webhook.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobscout/internal/callback"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Runner is the orchestration capability the task manager drives
type Runner interface {
	RunCompany(ctx context.Context, req *models.DiscoveryRequest) *models.DiscoveryResult
	RunBatch(ctx context.Context, batch *models.BatchDiscoveryRequest) *models.BatchDiscoveryResult
}

// TaskManager accepts async work and exposes task status
type TaskManager interface {
	SubmitDiscovery(ctx context.Context, req *models.DiscoveryRequest) (string, error)
	SubmitBatch(ctx context.Context, batch *models.BatchDiscoveryRequest) (string, error)
	GetTaskStatus(ctx context.Context, processID string) (*models.AsyncTaskStatusResponse, error)
	Stats() map[string]interface{}
	Shutdown(ctx context.Context) error
}

type job struct {
	task        *TaskResult
	callbackURL string
	exec        func(ctx context.Context) (interface{}, error)
}

// Manager is the production TaskManager implementation
type Manager struct {
	config           *config.Config
	store            TaskStore
	runner           Runner
	callbackClient   *callback.Client
	completionLogger *TaskCompletionLogger
	queue            chan *job
	logger           types.Logger

	wg       sync.WaitGroup
	rootCtx  context.Context
	shutdown context.CancelFunc
}

// NewManager creates and starts the background task manager
func NewManager(cfg *config.Config, store TaskStore, runner Runner, callbackClient *callback.Client) *Manager {
	rootCtx, cancel := context.WithCancel(context.Background())

	queueSize := cfg.BackgroundTasks.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	workers := cfg.BackgroundTasks.Workers
	if workers <= 0 {
		workers = 4
	}

	m := &Manager{
		config:           cfg,
		store:            store,
		runner:           runner,
		callbackClient:   callbackClient,
		completionLogger: NewTaskCompletionLogger(),
		queue:            make(chan *job, queueSize),
		logger:           logging.GetGlobalLogger().WithField("component", "task_manager"),
		rootCtx:          rootCtx,
		shutdown:         cancel,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	m.wg.Add(1)
	go m.cleanupRoutine()

	m.logger.Info("Background task manager started", map[string]interface{}{
		"workers":    workers,
		"queue_size": queueSize,
	})

	return m
}

// SubmitDiscovery queues a single-company discovery task
func (m *Manager) SubmitDiscovery(ctx context.Context, req *models.DiscoveryRequest) (string, error) {
	processID := utils.GenerateRequestID()

	return processID, m.submit(ctx, &job{
		task: &TaskResult{
			ProcessID: processID,
			Type:      TaskTypeDiscovery,
			Status:    models.AsyncStatusAccepted,
			CreatedAt: time.Now(),
			Metadata: map[string]interface{}{
				"company": req.CompanyName,
				"website": req.CompanyWebsite,
			},
		},
		exec: func(runCtx context.Context) (interface{}, error) {
			result := m.runner.RunCompany(runCtx, req)
			if !result.Success && !result.Partial {
				return &DiscoveryTaskData{Result: result}, fmt.Errorf("discovery failed for %s", req.CompanyName)
			}
			return &DiscoveryTaskData{Result: result}, nil
		},
	})
}

// SubmitBatch queues a batch discovery task. When the batch carries a
// callback URL the aggregated report is delivered there on completion.
func (m *Manager) SubmitBatch(ctx context.Context, batch *models.BatchDiscoveryRequest) (string, error) {
	processID := utils.GenerateRequestID()

	return processID, m.submit(ctx, &job{
		callbackURL: batch.CallbackURL,
		task: &TaskResult{
			ProcessID: processID,
			Type:      TaskTypeBatch,
			Status:    models.AsyncStatusAccepted,
			CreatedAt: time.Now(),
			Metadata: map[string]interface{}{
				"companies": len(batch.Companies),
			},
		},
		exec: func(runCtx context.Context) (interface{}, error) {
			return &BatchTaskData{Result: m.runner.RunBatch(runCtx, batch)}, nil
		},
	})
}

func (m *Manager) submit(ctx context.Context, j *job) error {
	if err := m.store.Create(ctx, j.task); err != nil {
		return fmt.Errorf("failed to persist task: %w", err)
	}
	m.completionLogger.LogTaskAccepted(j.task.ProcessID, j.task.Type)

	select {
	case m.queue <- j:
		return nil
	default:
		j.task.Status = models.AsyncStatusFailure
		j.task.Error = "task queue full"
		_ = m.store.Update(ctx, j.task)
		return fmt.Errorf("task queue full")
	}
}

// GetTaskStatus returns the current envelope for a process ID
func (m *Manager) GetTaskStatus(ctx context.Context, processID string) (*models.AsyncTaskStatusResponse, error) {
	task, err := m.store.Get(ctx, processID)
	if err != nil {
		return nil, err
	}
	return task.StatusResponse(), nil
}

// Stats reports queue and worker statistics
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"queue_length":   len(m.queue),
		"queue_capacity": cap(m.queue),
		"workers":        m.config.BackgroundTasks.Workers,
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.rootCtx.Done():
			return
		case j, ok := <-m.queue:
			if !ok {
				return
			}
			m.process(j)
		}
	}
}

func (m *Manager) process(j *job) {
	started := time.Now()

	j.task.Status = models.AsyncStatusProcessing
	if err := m.store.Update(m.rootCtx, j.task); err != nil {
		m.logger.Warn("Failed to mark task processing", map[string]interface{}{
			"process_id": j.task.ProcessID,
			"error":      err.Error(),
		})
	}
	m.completionLogger.LogTaskStart(j.task.ProcessID, j.task.Type)

	// Leave headroom over the pipeline budget so the task itself never
	// hangs when an agent misbehaves.
	runCtx, cancel := context.WithTimeout(m.rootCtx, m.config.Orchestrator.DefaultBudget*2)
	data, err := j.exec(runCtx)
	cancel()

	processingTime := time.Since(started)
	now := time.Now()
	j.task.CompletedAt = &now
	j.task.ProcessingTime = &processingTime
	j.task.Data = data

	if err != nil {
		j.task.Status = models.AsyncStatusFailure
		j.task.Error = err.Error()
		m.completionLogger.LogTaskError(j.task.ProcessID, j.task.Type, err)
	} else {
		j.task.Status = models.AsyncStatusSuccess
		m.completionLogger.LogTaskSuccess(j.task.ProcessID, j.task.Type, processingTime)
	}

	if updateErr := m.store.Update(m.rootCtx, j.task); updateErr != nil {
		m.logger.Error("Failed to persist task completion", map[string]interface{}{
			"process_id": j.task.ProcessID,
			"error":      updateErr.Error(),
		})
	}

	if logErr := m.completionLogger.LogTaskCompletion(j.task); logErr != nil {
		m.logger.Warn("Failed to emit completion log", map[string]interface{}{
			"process_id": j.task.ProcessID,
			"error":      logErr.Error(),
		})
	}

	m.sendCallback(j)
}

func (m *Manager) sendCallback(j *job) {
	if !m.config.Callback.Enabled || m.callbackClient == nil || j.callbackURL == "" {
		return
	}

	payload := &callback.Payload{
		ProcessID:      j.task.ProcessID,
		Status:         string(j.task.Status),
		Operation:      string(j.task.Type),
		Data:           j.task.Data,
		Error:          j.task.Error,
		ProcessingTime: j.task.ProcessingTime.String(),
		Timestamp:      time.Now(),
	}

	cbCtx, cancel := context.WithTimeout(m.rootCtx, m.config.Callback.Timeout*time.Duration(m.config.Callback.MaxRetries+1))
	defer cancel()

	if err := m.callbackClient.Send(cbCtx, j.callbackURL, payload); err != nil {
		m.logger.Error("Failed to deliver callback", map[string]interface{}{
			"process_id": j.task.ProcessID,
			"url":        j.callbackURL,
			"error":      err.Error(),
		})
	}
}

func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	interval := m.config.BackgroundTasks.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.rootCtx.Done():
			return
		case <-ticker.C:
			removed, err := m.store.CleanupExpired(m.rootCtx, m.config.BackgroundTasks.TaskRetention)
			if err != nil {
				m.logger.Warn("Task cleanup failed", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if removed > 0 {
				m.logger.Info("Cleaned up expired tasks", map[string]interface{}{
					"removed": removed,
				})
			}
		}
	}
}

// Shutdown stops the workers, waiting up to the context deadline
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdown()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task manager shutdown timed out: %w", ctx.Err())
	}
}
