package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/vietddude/ara/internal/core/domain"
)

// MemoryQueue is the in-process backend: no persistence, single process.
// Constructed once at startup and passed by handle, never a package-level
// singleton.
type MemoryQueue struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	byKey map[string]string // idempotency key -> task id
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		tasks: make(map[string]*domain.Task),
		byKey: make(map[string]string),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, task *domain.Task) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task.IdempotencyKey != "" {
		if id, ok := q.byKey[task.IdempotencyKey]; ok {
			existing := *q.tasks[id]
			return &existing, nil
		}
	}
	if _, exists := q.tasks[task.ID]; exists {
		return nil, fmt.Errorf("task %s already exists", task.ID)
	}

	stored := *task
	q.tasks[task.ID] = &stored
	if task.IdempotencyKey != "" {
		q.byKey[task.IdempotencyKey] = task.ID
	}
	out := stored
	return &out, nil
}

func (q *MemoryQueue) Get(_ context.Context, id string) (*domain.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil, nil
	}
	out := *task
	return &out, nil
}

func (q *MemoryQueue) Update(_ context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	current, ok := q.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := GuardPatch(current, patch); err != nil {
		return nil, err
	}

	next := ApplyPatch(current, patch)
	q.tasks[id] = next
	out := *next
	return &out, nil
}

func (q *MemoryQueue) List(_ context.Context, filter Filter) ([]*domain.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []*domain.Task
	for _, task := range q.tasks {
		if Matches(task, filter) {
			out := *task
			result = append(result, &out)
		}
	}
	return result, nil
}
