package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vietddude/ara/internal/core/domain"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		expect domain.ErrorKind
	}{
		{429, domain.ErrRateLimited},
		{401, domain.ErrAuthFailed},
		{403, domain.ErrAuthFailed},
		{408, domain.ErrTimeout},
		{504, domain.ErrTimeout},
		{502, domain.ErrBackendUnavailable},
		{503, domain.ErrBackendUnavailable},
		{400, domain.ErrValidation},
		{422, domain.ErrValidation},
		{500, domain.ErrProvider},
		{200, domain.ErrProvider},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.status); got != tt.expect {
			t.Errorf("ClassifyStatus(%d) = %s, want %s", tt.status, got, tt.expect)
		}
	}
}

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "net failure" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect domain.ErrorKind
	}{
		{
			"classified adapter error passes through",
			domain.NewAdapterError(domain.ErrValidation, "missing field"),
			domain.ErrValidation,
		},
		{
			"wrapped adapter error unwraps",
			fmt.Errorf("grok: %w", domain.NewAdapterError(domain.ErrRateLimited, "429")),
			domain.ErrRateLimited,
		},
		{"deadline exceeded", context.DeadlineExceeded, domain.ErrTimeout},
		{"net timeout", timeoutErr{timeout: true}, domain.ErrTimeout},
		{"net failure", timeoutErr{timeout: false}, domain.ErrNetwork},
		{"plain error", errors.New("boom"), domain.ErrUnknown},
		{"nil", nil, domain.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expect {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.expect)
			}
		})
	}
}

func TestPolicyRetryable(t *testing.T) {
	p := domain.DefaultRetryPolicy()
	if !p.Retryable(domain.ErrRateLimited) {
		t.Error("RATE_LIMITED should be retryable under the default policy")
	}
	if p.Retryable(domain.ErrAuthFailed) {
		t.Error("AUTH_FAILED should not be retryable under the default policy")
	}
}
