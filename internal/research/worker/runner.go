package worker

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/research/adapter"
	"github.com/vietddude/ara/internal/research/metrics"
	"github.com/vietddude/ara/internal/research/retry"
)

// runWithRetry drives one adapter through the retry policy until success,
// a non-retryable failure, or budget exhaustion. This loop is the only
// place adapter calls are retried; errors never propagate past it.
func (w *Worker) runWithRetry(
	ctx context.Context,
	ad adapter.Adapter,
	in adapter.Input,
	policy domain.RetryPolicy,
	taskID string,
) domain.AdapterResult {
	attempt := 0
	for {
		attempt++
		start := time.Now()
		out, err := ad.Run(ctx, in)
		latency := time.Since(start)
		metrics.AdapterLatency.WithLabelValues(ad.Name()).Observe(latency.Seconds())

		if err == nil {
			metrics.AdapterCalls.WithLabelValues(ad.Name(), "ok").Inc()
			w.log.Info("adapter ok",
				"task", taskID, "adapter", ad.Name(), "attempt", attempt, "latency", latency)

			res := domain.AdapterResult{
				AdapterID: ad.Name(),
				OK:        true,
				LatencyMs: latency.Milliseconds(),
				Output:    out,
			}
			if out.Usage != nil {
				res.TokensIn = out.Usage.In
				res.TokensOut = out.Usage.Out
			}
			return res
		}

		kind := retry.Classify(err)
		delay, budgetLeft := retry.NextDelay(policy, attempt)
		canRetry := policy.Retryable(kind) && budgetLeft

		w.log.Error("adapter attempt failed",
			"task", taskID, "adapter", ad.Name(), "attempt", attempt,
			"kind", kind, "retryable", policy.Retryable(kind), "retrying", canRetry,
			"error", err)

		if !canRetry {
			metrics.AdapterCalls.WithLabelValues(ad.Name(), "error").Inc()
			return terminalResult(ad.Name(), kind, err, latency)
		}

		metrics.AdapterRetries.WithLabelValues(ad.Name(), string(kind)).Inc()
		select {
		case <-ctx.Done():
			return terminalResult(ad.Name(), retry.Classify(ctx.Err()), ctx.Err(), latency)
		case <-time.After(delay):
		}
	}
}

func terminalResult(adapterID string, kind domain.ErrorKind, err error, latency time.Duration) domain.AdapterResult {
	res := domain.AdapterResult{
		AdapterID:    adapterID,
		OK:           false,
		LatencyMs:    latency.Milliseconds(),
		ErrorKind:    kind,
		ErrorMessage: err.Error(),
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		res.HTTPStatus = ae.HTTPStatus
	}
	return res
}
