package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/queue"
)

// Key helpers
func taskKey(id string) string {
	return fmt.Sprintf("ara:task:%s", id)
}

func idemKey(key string) string {
	return fmt.Sprintf("ara:idem:%s", key)
}

const taskSetKey = "ara:tasks"

// TaskQueue is the Redis-backed queue.TaskQueue. Task records are stored
// as JSON documents, the idempotency index maps key -> task id via SETNX,
// and a set of ids backs List. State transitions are guarded client-side;
// the backend assumes a single writer per task id.
type TaskQueue struct {
	client *Client
}

// NewTaskQueue creates a Redis-backed task queue on top of an open client.
func NewTaskQueue(client *Client) *TaskQueue {
	return &TaskQueue{client: client}
}

func (q *TaskQueue) Enqueue(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	rdb := q.client.rdb

	if task.IdempotencyKey != "" {
		created, err := rdb.SetNX(ctx, idemKey(task.IdempotencyKey), task.ID, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("setnx failed: %w", err)
		}
		if !created {
			existingID, err := rdb.Get(ctx, idemKey(task.IdempotencyKey)).Result()
			if err != nil {
				return nil, fmt.Errorf("get failed: %w", err)
			}
			existing, err := q.Get(ctx, existingID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
			// Index points at a record that is gone. Re-point it and fall
			// through to storing the new task.
			if err := rdb.Set(ctx, idemKey(task.IdempotencyKey), task.ID, 0).Err(); err != nil {
				return nil, fmt.Errorf("set failed: %w", err)
			}
		}
	}

	if err := q.put(ctx, task); err != nil {
		return nil, err
	}
	if err := rdb.SAdd(ctx, taskSetKey, task.ID).Err(); err != nil {
		return nil, fmt.Errorf("sadd failed: %w", err)
	}
	return task, nil
}

func (q *TaskQueue) Get(ctx context.Context, id string) (*domain.Task, error) {
	raw, err := q.client.rdb.Get(ctx, taskKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", id, err)
	}
	return &task, nil
}

func (q *TaskQueue) Update(ctx context.Context, id string, patch queue.TaskPatch) (*domain.Task, error) {
	current, err := q.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, queue.ErrNotFound
	}

	if err := queue.GuardPatch(current, patch); err != nil {
		return nil, err
	}

	next := queue.ApplyPatch(current, patch)
	if err := q.put(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (q *TaskQueue) List(ctx context.Context, filter queue.Filter) ([]*domain.Task, error) {
	ids, err := q.client.rdb.SMembers(ctx, taskSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		task, err := q.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if task == nil {
			continue
		}
		if queue.Matches(task, filter) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (q *TaskQueue) put(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	if err := q.client.rdb.Set(ctx, taskKey(task.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}
