package queue

import (
	"errors"
	"testing"

	"github.com/vietddude/ara/internal/core/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name      string
		from, to  domain.TaskState
		retryable bool
		allowed   bool
	}{
		{"queued to running", domain.TaskQueued, domain.TaskRunning, false, true},
		{"queued to failed", domain.TaskQueued, domain.TaskFailed, false, true},
		{"running to completed", domain.TaskRunning, domain.TaskCompleted, false, true},
		{"running to failed", domain.TaskRunning, domain.TaskFailed, false, true},
		{"failed to queued when retryable", domain.TaskFailed, domain.TaskQueued, true, true},
		{"failed to queued when not retryable", domain.TaskFailed, domain.TaskQueued, false, false},
		{"queued to completed", domain.TaskQueued, domain.TaskCompleted, false, false},
		{"running to queued", domain.TaskRunning, domain.TaskQueued, false, false},
		{"completed to running", domain.TaskCompleted, domain.TaskRunning, false, false},
		{"completed to failed", domain.TaskCompleted, domain.TaskFailed, false, false},
		{"failed to running", domain.TaskFailed, domain.TaskRunning, true, false},
		{"completed to queued", domain.TaskCompleted, domain.TaskQueued, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to, tt.retryable); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s, %v) = %v, want %v",
					tt.from, tt.to, tt.retryable, got, tt.allowed)
			}

			err := AssertTransition(tt.from, tt.to, tt.retryable)
			if tt.allowed && err != nil {
				t.Errorf("AssertTransition returned %v for a legal transition", err)
			}
			if !tt.allowed && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("AssertTransition = %v, want ErrInvalidTransition", err)
			}
		})
	}
}
