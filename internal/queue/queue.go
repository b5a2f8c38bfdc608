// Package queue defines the task queue capability and its in-process and
// file-persisted backends. The redis backend lives in internal/infra/redis;
// all backends satisfy identical semantics and the worker only ever sees
// this interface.
package queue

import (
	"context"
	"errors"

	"github.com/vietddude/ara/internal/core/domain"
)

// ErrNotFound is returned by Update when the task id is unknown. Get
// returns (nil, nil) for an absent task instead.
var ErrNotFound = errors.New("task not found")

// TaskPatch is a partial update applied through Update. Nil fields are left
// untouched; pointer fields distinguish "clear" from "keep".
type TaskPatch struct {
	State            *domain.TaskState
	CurrentAdapterID *string
	Attempt          *int
	StartedAtMs      *int64
	CompletedAtMs    *int64
	FailedAtMs       *int64
	NextRetryAtMs    *int64
	Result           *domain.TaskResult
	Failure          *domain.TaskFailure
}

// Filter narrows List results.
type Filter struct {
	State *domain.TaskState
}

// TaskQueue stores task records, guards state transitions and supports
// idempotent creation. Backends assume a single writer per task id.
type TaskQueue interface {
	// Enqueue persists a new task in queued state. If the task carries an
	// idempotency key that already maps to a stored task, the existing task
	// is returned unchanged and nothing is written.
	Enqueue(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Get returns the task or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// Update validates any state change against the state machine before
	// persisting, merges the patch, stamps UpdatedAtMs and returns the new
	// record.
	Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error)

	// List returns stored tasks, optionally filtered by state.
	List(ctx context.Context, filter Filter) ([]*domain.Task, error)
}

// ApplyPatch merges patch into a copy of t and stamps UpdatedAtMs. The
// caller has already validated any state transition.
func ApplyPatch(t *domain.Task, patch TaskPatch) *domain.Task {
	next := *t
	if patch.State != nil {
		next.State = *patch.State
	}
	if patch.CurrentAdapterID != nil {
		next.CurrentAdapterID = *patch.CurrentAdapterID
	}
	if patch.Attempt != nil {
		next.Attempt = *patch.Attempt
	}
	if patch.StartedAtMs != nil {
		next.StartedAtMs = *patch.StartedAtMs
	}
	if patch.CompletedAtMs != nil {
		next.CompletedAtMs = *patch.CompletedAtMs
	}
	if patch.FailedAtMs != nil {
		next.FailedAtMs = *patch.FailedAtMs
	}
	if patch.NextRetryAtMs != nil {
		next.NextRetryAtMs = *patch.NextRetryAtMs
	}
	if patch.Result != nil {
		next.Result = patch.Result
	}
	if patch.Failure != nil {
		next.Failure = patch.Failure
	}
	next.UpdatedAtMs = domain.NowMs()
	return &next
}

// GuardPatch validates a state change requested by patch against the
// current record. The retryable flag for failed->queued comes from the
// patch failure if present, falling back to the stored one.
func GuardPatch(current *domain.Task, patch TaskPatch) error {
	if patch.State == nil || *patch.State == current.State {
		return nil
	}
	retryable := false
	if patch.Failure != nil {
		retryable = patch.Failure.Retryable
	} else if current.Failure != nil {
		retryable = current.Failure.Retryable
	}
	return AssertTransition(current.State, *patch.State, retryable)
}

func Matches(t *domain.Task, filter Filter) bool {
	return filter.State == nil || t.State == *filter.State
}
