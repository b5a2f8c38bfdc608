package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/retry"
)

// maxErrorBody bounds how much of a provider error body ends up in logs.
const maxErrorBody = 300

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON performs one provider call under the adapter's bounded timeout
// and returns the raw response body. Failures come back as classified
// *domain.AdapterError values: transport timeouts as TIMEOUT, other
// transport failures as NETWORK_ERROR, non-2xx statuses per the HTTP
// mapping.
func postJSON(
	ctx context.Context,
	client *http.Client,
	name, url string,
	headers map[string]string,
	body any,
	timeout time.Duration,
) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewAdapterError(domain.ErrUnknown, "%s: marshal request: %v", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewAdapterError(domain.ErrUnknown, "%s: build request: %v", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransport(name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewAdapterError(domain.ErrNetwork, "%s: read response: %v", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := data
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &domain.AdapterError{
			Kind:       retry.ClassifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("%s API error %d: %s", name, resp.StatusCode, excerpt),
			HTTPStatus: resp.StatusCode,
		}
	}

	return data, nil
}

func classifyTransport(name string, err error) *domain.AdapterError {
	kind := domain.ErrNetwork
	msg := fmt.Sprintf("%s: network error: %v", name, err)

	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind, msg = domain.ErrTimeout, fmt.Sprintf("%s request timed out", name)
	case errors.As(err, &ne) && ne.Timeout():
		kind, msg = domain.ErrTimeout, fmt.Sprintf("%s request timed out", name)
	}
	return &domain.AdapterError{Kind: kind, Message: msg, Err: err}
}
