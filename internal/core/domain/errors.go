package domain

import "fmt"

// ErrorKind is the closed set of provider failure classifications.
type ErrorKind string

const (
	ErrRateLimited        ErrorKind = "RATE_LIMITED"
	ErrAuthFailed         ErrorKind = "AUTH_FAILED"
	ErrNetwork            ErrorKind = "NETWORK_ERROR"
	ErrTimeout            ErrorKind = "TIMEOUT"
	ErrProvider           ErrorKind = "PROVIDER_ERROR"
	ErrValidation         ErrorKind = "VALIDATION_ERROR"
	ErrBackendUnavailable ErrorKind = "BACKEND_UNAVAILABLE"
	ErrUnknown            ErrorKind = "UNKNOWN"
)

// AdapterError is a provider failure already classified by the adapter that
// raised it. HTTPStatus is zero when the failure was not an HTTP response.
type AdapterError struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AdapterError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError builds a classified error without an HTTP status.
func NewAdapterError(kind ErrorKind, format string, args ...any) *AdapterError {
	return &AdapterError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
