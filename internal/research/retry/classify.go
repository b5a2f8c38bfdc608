package retry

import (
	"context"
	"errors"
	"net"

	"github.com/vietddude/ara/internal/core/domain"
)

// ClassifyStatus maps an HTTP response status to an error kind.
func ClassifyStatus(status int) domain.ErrorKind {
	switch {
	case status == 429:
		return domain.ErrRateLimited
	case status == 401 || status == 403:
		return domain.ErrAuthFailed
	case status == 408 || status == 504:
		return domain.ErrTimeout
	case status == 502 || status == 503:
		return domain.ErrBackendUnavailable
	case status >= 400 && status < 500:
		return domain.ErrValidation
	default:
		return domain.ErrProvider
	}
}

// Classify maps any failure raised by an adapter to an error kind. Errors
// the adapter already classified pass through unchanged; transport-level
// timeouts map to TIMEOUT, other transport failures to NETWORK_ERROR.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrUnknown
	}

	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return domain.ErrTimeout
		}
		return domain.ErrNetwork
	}

	return domain.ErrUnknown
}
