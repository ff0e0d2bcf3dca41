package background

import (
	"context"
	"testing"
	"time"

	"jobscout/pkg/models"
)

func newTask(id string, status TaskStatus) *TaskResult {
	return &TaskResult{
		ProcessID: id,
		Type:      TaskTypeDiscovery,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

func TestInMemoryStoreCreateGet(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	task := newTask("p1", models.AsyncStatusAccepted)
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.AsyncStatusAccepted {
		t.Errorf("status = %q, want ACCEPTED", got.Status)
	}

	// Stored envelope is a copy; mutating the original must not leak
	task.Status = models.AsyncStatusFailure
	got, _ = store.Get(ctx, "p1")
	if got.Status != models.AsyncStatusAccepted {
		t.Errorf("store leaked a reference to the caller's struct")
	}
}

func TestInMemoryStoreDuplicateCreate(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	if err := store.Create(ctx, newTask("p1", models.AsyncStatusAccepted)); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, newTask("p1", models.AsyncStatusAccepted)); err == nil {
		t.Error("duplicate create should fail")
	}
}

func TestInMemoryStoreUpdateUnknown(t *testing.T) {
	store := NewInMemoryTaskStore()
	if err := store.Update(context.Background(), newTask("missing", models.AsyncStatusProcessing)); err == nil {
		t.Error("updating an unknown task should fail")
	}
}

func TestInMemoryStoreCleanupExpired(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	stale := newTask("stale", models.AsyncStatusSuccess)
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	running := newTask("running", models.AsyncStatusProcessing)
	running.CreatedAt = time.Now().Add(-2 * time.Hour)
	fresh := newTask("fresh", models.AsyncStatusSuccess)

	for _, task := range []*TaskResult{stale, running, fresh} {
		if err := store.Create(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.CleanupExpired(ctx, time.Hour)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := store.Get(ctx, "stale"); err == nil {
		t.Error("stale terminal task should be gone")
	}
	if _, err := store.Get(ctx, "running"); err != nil {
		t.Error("non-terminal tasks must survive cleanup regardless of age")
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Error("fresh task should survive cleanup")
	}
}

func TestTaskResultIsTerminal(t *testing.T) {
	cases := []struct {
		status TaskStatus
		want   bool
	}{
		{models.AsyncStatusAccepted, false},
		{models.AsyncStatusProcessing, false},
		{models.AsyncStatusSuccess, true},
		{models.AsyncStatusFailure, true},
	}
	for _, tc := range cases {
		task := newTask("x", tc.status)
		if got := task.IsTerminal(); got != tc.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
