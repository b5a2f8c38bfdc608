package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/ara/internal/core/domain"
)

func newTask(id, idemKey string) *domain.Task {
	now := domain.NowMs()
	return &domain.Task{
		ID:              id,
		IdempotencyKey:  idemKey,
		TaskType:        domain.TaskTypeAutonomousResearch,
		State:           domain.TaskQueued,
		Title:           "daily scan",
		Prompt:          "scan the usual domains",
		AdapterSequence: []string{"grok", "perplexity"},
		RetryPolicy:     domain.DefaultRetryPolicy(),
		Attempt:         1,
		MaxAttempts:     3,
		CreatedAtMs:     now,
		QueuedAtMs:      now,
		UpdatedAtMs:     now,
	}
}

func statePtr(s domain.TaskState) *domain.TaskState { return &s }

func TestMemoryQueueIdempotentEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	first, err := q.Enqueue(ctx, newTask("t-1", "key-a"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Second enqueue with the same key but a different payload must return
	// the existing task and create nothing.
	dup := newTask("t-2", "key-a")
	dup.Title = "different title"
	second, err := q.Enqueue(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate enqueue: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("idempotent enqueue returned id %s, want %s", second.ID, first.ID)
	}
	if second.Title != first.Title {
		t.Errorf("idempotent enqueue returned mutated task")
	}

	all, _ := q.List(ctx, Filter{})
	if len(all) != 1 {
		t.Errorf("expected 1 stored task, got %d", len(all))
	}
}

func TestMemoryQueueUpdateGuardsTransitions(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	task, _ := q.Enqueue(ctx, newTask("t-1", ""))

	// queued -> completed is illegal and must not persist anything.
	if _, err := q.Update(ctx, task.ID, TaskPatch{State: statePtr(domain.TaskCompleted)}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	got, _ := q.Get(ctx, task.ID)
	if got.State != domain.TaskQueued {
		t.Fatalf("illegal transition leaked: state = %s", got.State)
	}

	// The documented path succeeds.
	running, err := q.Update(ctx, task.ID, TaskPatch{State: statePtr(domain.TaskRunning)})
	if err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	if running.State != domain.TaskRunning {
		t.Errorf("state = %s, want running", running.State)
	}
	if running.UpdatedAtMs < task.UpdatedAtMs {
		t.Errorf("UpdatedAtMs went backwards")
	}

	// failed -> queued requires a retryable failure.
	failed, err := q.Update(ctx, task.ID, TaskPatch{
		State:   statePtr(domain.TaskFailed),
		Failure: &domain.TaskFailure{ErrorKind: domain.ErrAuthFailed, Message: "no key", Retryable: false, Attempt: 1},
	})
	if err != nil {
		t.Fatalf("running -> failed: %v", err)
	}
	if _, err := q.Update(ctx, failed.ID, TaskPatch{State: statePtr(domain.TaskQueued)}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("non-retryable failed -> queued should be rejected, got %v", err)
	}
}

func TestMemoryQueueGetAbsent(t *testing.T) {
	q := NewMemoryQueue()
	got, err := q.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("Get(absent) = (%v, %v), want (nil, nil)", got, err)
	}
	if _, err := q.Update(context.Background(), "nope", TaskPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(absent) = %v, want ErrNotFound", err)
	}
}

func TestMemoryQueueListFilter(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	a, _ := q.Enqueue(ctx, newTask("t-1", ""))
	_, _ = q.Enqueue(ctx, newTask("t-2", ""))
	_, _ = q.Update(ctx, a.ID, TaskPatch{State: statePtr(domain.TaskRunning)})

	running, err := q.List(ctx, Filter{State: statePtr(domain.TaskRunning)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(running) != 1 || running[0].ID != a.ID {
		t.Errorf("List(running) = %v, want just %s", running, a.ID)
	}

	all, _ := q.List(ctx, Filter{})
	if len(all) != 2 {
		t.Errorf("List() returned %d tasks, want 2", len(all))
	}
}
