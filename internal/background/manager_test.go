package background

import (
	"context"
	"testing"
	"time"

	"jobscout/internal/config"
	"jobscout/pkg/models"
)

type stubRunner struct {
	result *models.DiscoveryResult
}

func (s *stubRunner) RunCompany(_ context.Context, req *models.DiscoveryRequest) *models.DiscoveryResult {
	if s.result != nil {
		return s.result
	}
	return &models.DiscoveryResult{CompanyName: req.CompanyName, Success: true}
}

func (s *stubRunner) RunBatch(_ context.Context, batch *models.BatchDiscoveryRequest) *models.BatchDiscoveryResult {
	results := make([]models.DiscoveryResult, len(batch.Companies))
	for i, c := range batch.Companies {
		results[i] = models.DiscoveryResult{CompanyName: c.Name, Success: true}
	}
	out := &models.BatchDiscoveryResult{Results: results}
	out.Summarize()
	return out
}

func managerConfig() *config.Config {
	return &config.Config{
		Orchestrator: config.OrchestratorConfig{DefaultBudget: 5 * time.Second},
		BackgroundTasks: config.BackgroundTasksConfig{
			Workers:         2,
			QueueSize:       10,
			CleanupInterval: time.Minute,
			TaskRetention:   time.Hour,
		},
	}
}

func waitForTerminal(t *testing.T, m *Manager, processID string) *models.AsyncTaskStatusResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status, err := m.GetTaskStatus(context.Background(), processID)
		if err == nil && status.IsCompleted() {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal status", processID)
	return nil
}

func TestManagerProcessesDiscoveryTask(t *testing.T) {
	m := NewManager(managerConfig(), NewInMemoryTaskStore(), &stubRunner{}, nil)
	defer m.Shutdown(context.Background())

	processID, err := m.SubmitDiscovery(context.Background(), &models.DiscoveryRequest{
		CompanyName:    "Acme",
		CompanyWebsite: "https://acme.com",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	status := waitForTerminal(t, m, processID)
	if status.Status != models.AsyncStatusSuccess {
		t.Errorf("status = %q, want SUCCESS (error: %s)", status.Status, status.Error)
	}
	if status.ProcessingTime == nil {
		t.Error("processing time missing on completed task")
	}
}

func TestManagerMarksFailedDiscovery(t *testing.T) {
	runner := &stubRunner{result: &models.DiscoveryResult{CompanyName: "Acme", Success: false}}
	m := NewManager(managerConfig(), NewInMemoryTaskStore(), runner, nil)
	defer m.Shutdown(context.Background())

	processID, err := m.SubmitDiscovery(context.Background(), &models.DiscoveryRequest{
		CompanyName:    "Acme",
		CompanyWebsite: "https://acme.com",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	status := waitForTerminal(t, m, processID)
	if status.Status != models.AsyncStatusFailure {
		t.Errorf("status = %q, want FAILURE", status.Status)
	}
}

func TestManagerProcessesBatchTask(t *testing.T) {
	m := NewManager(managerConfig(), NewInMemoryTaskStore(), &stubRunner{}, nil)
	defer m.Shutdown(context.Background())

	processID, err := m.SubmitBatch(context.Background(), &models.BatchDiscoveryRequest{
		Companies: []models.CompanyTarget{
			{Name: "Alpha", Website: "https://alpha.example"},
			{Name: "Beta", Website: "https://beta.example"},
		},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	status := waitForTerminal(t, m, processID)
	if status.Status != models.AsyncStatusSuccess {
		t.Errorf("status = %q, want SUCCESS (error: %s)", status.Status, status.Error)
	}
}

func TestManagerUnknownTask(t *testing.T) {
	m := NewManager(managerConfig(), NewInMemoryTaskStore(), &stubRunner{}, nil)
	defer m.Shutdown(context.Background())

	if _, err := m.GetTaskStatus(context.Background(), "no-such-id"); err == nil {
		t.Error("expected error for unknown process ID")
	}
}
