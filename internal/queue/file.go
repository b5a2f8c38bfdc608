package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vietddude/ara/internal/core/domain"
)

// FileQueue persists the full task map as one JSON document. Every write
// goes through a temp file + rename so a crash mid-write never corrupts the
// store. Single writer.
type FileQueue struct {
	mu   sync.Mutex
	path string
}

// NewFileQueue creates a file-backed queue at path. A missing file is an
// empty store; the parent directory is created if needed.
func NewFileQueue(path string) (*FileQueue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}
	return &FileQueue{path: path}, nil
}

func (q *FileQueue) load() (map[string]*domain.Task, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return map[string]*domain.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}

	store := map[string]*domain.Task{}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse queue file: %w", err)
	}
	return store, nil
}

func (q *FileQueue) persist(store map[string]*domain.Task) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue file: %w", err)
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write queue file: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}

func (q *FileQueue) Enqueue(_ context.Context, task *domain.Task) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	store, err := q.load()
	if err != nil {
		return nil, err
	}

	if task.IdempotencyKey != "" {
		for _, existing := range store {
			if existing.IdempotencyKey == task.IdempotencyKey {
				out := *existing
				return &out, nil
			}
		}
	}
	if _, exists := store[task.ID]; exists {
		return nil, fmt.Errorf("task %s already exists", task.ID)
	}

	stored := *task
	store[task.ID] = &stored
	if err := q.persist(store); err != nil {
		return nil, err
	}
	out := stored
	return &out, nil
}

func (q *FileQueue) Get(_ context.Context, id string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	store, err := q.load()
	if err != nil {
		return nil, err
	}
	task, ok := store[id]
	if !ok {
		return nil, nil
	}
	out := *task
	return &out, nil
}

func (q *FileQueue) Update(_ context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	store, err := q.load()
	if err != nil {
		return nil, err
	}
	current, ok := store[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := GuardPatch(current, patch); err != nil {
		return nil, err
	}

	next := ApplyPatch(current, patch)
	store[id] = next
	if err := q.persist(store); err != nil {
		return nil, err
	}
	out := *next
	return &out, nil
}

func (q *FileQueue) List(_ context.Context, filter Filter) ([]*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	store, err := q.load()
	if err != nil {
		return nil, err
	}

	var result []*domain.Task
	for _, task := range store {
		if Matches(task, filter) {
			out := *task
			result = append(result, &out)
		}
	}
	return result, nil
}
