package background

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryTaskStore keeps task envelopes in process memory. It is the
// fallback when Redis is unreachable and the store used in tests.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskResult
}

// NewInMemoryTaskStore creates an empty in-memory store
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*TaskResult),
	}
}

// Create stores a new task envelope
func (s *InMemoryTaskStore) Create(_ context.Context, task *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ProcessID]; exists {
		return fmt.Errorf("task %s already exists", task.ProcessID)
	}
	clone := *task
	s.tasks[task.ProcessID] = &clone
	return nil
}

// Update replaces the stored envelope
func (s *InMemoryTaskStore) Update(_ context.Context, task *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ProcessID]; !exists {
		return fmt.Errorf("task %s not found", task.ProcessID)
	}
	clone := *task
	s.tasks[task.ProcessID] = &clone
	return nil
}

// Get returns the stored envelope
func (s *InMemoryTaskStore) Get(_ context.Context, processID string) (*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[processID]
	if !exists {
		return nil, fmt.Errorf("task %s not found", processID)
	}
	clone := *task
	return &clone, nil
}

// Delete removes the envelope
func (s *InMemoryTaskStore) Delete(_ context.Context, processID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, processID)
	return nil
}

// CleanupExpired removes terminal tasks older than the retention window
func (s *InMemoryTaskStore) CleanupExpired(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, task := range s.tasks {
		if task.IsTerminal() && task.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed, nil
}
