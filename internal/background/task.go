package background

import (
	"context"
	"time"

	"jobscout/pkg/models"
)

// TaskType represents the type of background task
type TaskType string

const (
	TaskTypeDiscovery TaskType = "discovery"
	TaskTypeBatch     TaskType = "batch_discovery"
)

// TaskStatus mirrors the async status lifecycle
type TaskStatus = models.AsyncStatus

// TaskResult is the stored envelope for a background task
type TaskResult struct {
	ProcessID      string                 `json:"process_id"`
	Type           TaskType               `json:"type"`
	Status         TaskStatus             `json:"status"`
	Data           interface{}            `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	ProcessingTime *time.Duration         `json:"processing_time,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// DiscoveryTaskData is the completion payload for single-company tasks
type DiscoveryTaskData struct {
	Result *models.DiscoveryResult `json:"result"`
}

// BatchTaskData is the completion payload for batch tasks
type BatchTaskData struct {
	Result *models.BatchDiscoveryResult `json:"result"`
}

// TaskStore persists task envelopes for polling clients
type TaskStore interface {
	Create(ctx context.Context, task *TaskResult) error
	Update(ctx context.Context, task *TaskResult) error
	Get(ctx context.Context, processID string) (*TaskResult, error)
	Delete(ctx context.Context, processID string) error
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// IsTerminal reports whether the task reached a final status
func (t *TaskResult) IsTerminal() bool {
	return t.Status == models.AsyncStatusSuccess || t.Status == models.AsyncStatusFailure
}

// StatusResponse converts the envelope to the API status payload
func (t *TaskResult) StatusResponse() *models.AsyncTaskStatusResponse {
	return &models.AsyncTaskStatusResponse{
		ProcessID:      t.ProcessID,
		Status:         t.Status,
		Data:           t.Data,
		Error:          t.Error,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
		ProcessingTime: t.ProcessingTime,
		Metadata:       t.Metadata,
	}
}
