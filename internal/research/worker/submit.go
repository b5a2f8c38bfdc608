package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietddude/ara/internal/core/domain"
)

// SubmitInput is the caller-facing request shape.
type SubmitInput struct {
	Title          string
	Prompt         string
	Domain         domain.Domain
	RequestedBy    string
	IdempotencyKey string
	Retry          *RetryOverrides
}

// RetryOverrides selectively overrides the worker's default retry policy.
// Nil fields keep the default.
type RetryOverrides struct {
	MaxAttempts         *int               `json:"maxAttempts,omitempty"`
	BaseDelayMs         *int64             `json:"baseDelayMs,omitempty"`
	BackoffMultiplier   *float64           `json:"backoffMultiplier,omitempty"`
	MaxDelayMs          *int64             `json:"maxDelayMs,omitempty"`
	RetryableErrorKinds []domain.ErrorKind `json:"retryableErrorKinds,omitempty"`
	Jitter              *bool              `json:"jitter,omitempty"`
}

func (o *RetryOverrides) apply(p domain.RetryPolicy) domain.RetryPolicy {
	if o == nil {
		return p
	}
	if o.MaxAttempts != nil {
		p.MaxAttempts = *o.MaxAttempts
	}
	if o.BaseDelayMs != nil {
		p.BaseDelayMs = *o.BaseDelayMs
	}
	if o.BackoffMultiplier != nil {
		p.BackoffMultiplier = *o.BackoffMultiplier
	}
	if o.MaxDelayMs != nil {
		p.MaxDelayMs = *o.MaxDelayMs
	}
	if o.RetryableErrorKinds != nil {
		p.RetryableErrorKinds = o.RetryableErrorKinds
	}
	if o.Jitter != nil {
		p.Jitter = *o.Jitter
	}
	return p
}

// Submit enqueues a research task and immediately runs it to completion,
// returning the terminal record. When the idempotency key already maps to
// a stored task, that task is returned as-is and nothing is reprocessed.
func (w *Worker) Submit(ctx context.Context, in SubmitInput) (*domain.Task, error) {
	task, created, err := w.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if !created {
		return task, nil
	}
	return w.Process(ctx, task)
}

// Create validates and enqueues a task without processing it. The second
// return value is false when the idempotency key matched an existing task.
func (w *Worker) Create(ctx context.Context, in SubmitInput) (*domain.Task, bool, error) {
	if in.Title == "" || in.Prompt == "" {
		return nil, false, fmt.Errorf("submit: title and prompt are required")
	}
	if in.Domain != "" && !domain.ValidDomain(in.Domain) {
		return nil, false, fmt.Errorf("submit: unknown domain %q", in.Domain)
	}

	policy := in.Retry.apply(w.policy)
	now := domain.NowMs()

	task := &domain.Task{
		ID:              uuid.NewString(),
		IdempotencyKey:  in.IdempotencyKey,
		TaskType:        domain.TaskTypeAutonomousResearch,
		State:           domain.TaskQueued,
		Title:           in.Title,
		Prompt:          in.Prompt,
		Domain:          in.Domain,
		RequestedBy:     in.RequestedBy,
		AdapterSequence: append([]string(nil), w.sequence...),
		RetryPolicy:     policy,
		Attempt:         1,
		MaxAttempts:     policy.MaxAttempts,
		CreatedAtMs:     now,
		QueuedAtMs:      now,
		UpdatedAtMs:     now,
	}

	stored, err := w.queue.Enqueue(ctx, task)
	if err != nil {
		return nil, false, fmt.Errorf("enqueue: %w", err)
	}
	if stored.ID != task.ID {
		w.log.Info("idempotent submit, returning existing task",
			"task", stored.ID, "key", in.IdempotencyKey)
		return stored, false, nil
	}

	w.log.Info("task queued", "task", stored.ID, "title", in.Title)
	return stored, true, nil
}
