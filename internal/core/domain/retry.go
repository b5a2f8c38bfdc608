package domain

// RetryPolicy controls the adapter runner's retry loop. Immutable once
// attached to a task; every adapter in the sequence shares the same policy.
type RetryPolicy struct {
	MaxAttempts         int         `json:"maxAttempts"         yaml:"max_attempts"`
	BaseDelayMs         int64       `json:"baseDelayMs"         yaml:"base_delay_ms"`
	BackoffMultiplier   float64     `json:"backoffMultiplier"   yaml:"backoff_multiplier"`
	MaxDelayMs          int64       `json:"maxDelayMs"          yaml:"max_delay_ms"`
	RetryableErrorKinds []ErrorKind `json:"retryableErrorKinds" yaml:"retryable_error_kinds"`
	Jitter              bool        `json:"jitter"              yaml:"jitter"`
}

// Retryable reports whether the given error kind is retryable under this
// policy. Retryability is policy-driven, never hard-coded per kind.
func (p RetryPolicy) Retryable(kind ErrorKind) bool {
	for _, k := range p.RetryableErrorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DefaultRetryPolicy mirrors the production defaults: three attempts,
// 1s base doubling up to 30s, jittered, retrying only transient kinds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelayMs:       1000,
		BackoffMultiplier: 2,
		MaxDelayMs:        30_000,
		RetryableErrorKinds: []ErrorKind{
			ErrRateLimited,
			ErrNetwork,
			ErrTimeout,
			ErrBackendUnavailable,
		},
		Jitter: true,
	}
}
