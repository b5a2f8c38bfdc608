package queue

import (
	"fmt"

	"github.com/vietddude/ara/internal/core/domain"
)

// ErrInvalidTransition wraps every rejected state change so callers can
// branch on it with errors.Is.
var ErrInvalidTransition = fmt.Errorf("invalid task state transition")

// allowedTransitions is the complete state machine. failed -> queued is
// additionally gated on the failure being marked retryable.
var allowedTransitions = map[domain.TaskState][]domain.TaskState{
	domain.TaskQueued:    {domain.TaskRunning, domain.TaskFailed},
	domain.TaskRunning:   {domain.TaskCompleted, domain.TaskFailed},
	domain.TaskCompleted: {},
	domain.TaskFailed:    {domain.TaskQueued},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to domain.TaskState, retryable bool) bool {
	if from == domain.TaskFailed && to == domain.TaskQueued {
		return retryable
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AssertTransition returns a wrapped ErrInvalidTransition when the change
// is illegal.
func AssertTransition(from, to domain.TaskState, retryable bool) error {
	if CanTransition(from, to, retryable) {
		return nil
	}
	detail := ""
	if from == domain.TaskFailed && to == domain.TaskQueued {
		detail = " (failure not retryable)"
	}
	return fmt.Errorf("%w: %s -> %s%s", ErrInvalidTransition, from, to, detail)
}
