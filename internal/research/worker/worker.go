// Package worker orchestrates a research task: drive the primary adapter
// sequence in order, fan out shadow adapters, and synthesize a brief.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/queue"
	"github.com/vietddude/ara/internal/research/adapter"
	"github.com/vietddude/ara/internal/research/history"
	"github.com/vietddude/ara/internal/research/metrics"
	"github.com/vietddude/ara/internal/research/portfolio"
	"github.com/vietddude/ara/internal/research/synth"
)

// DefaultAdapterSequence is the primary sequence when the caller does not
// configure one.
var DefaultAdapterSequence = []string{"grok", "perplexity", "deepseek"}

// DefaultShadowAdapters run after every primary sequence for passive
// provider evaluation. Promote into the sequence once quality and cost
// validation passes.
var DefaultShadowAdapters = []string{"gemini", "claude"}

// Config wires the worker's collaborators. Queue and Adapters are
// required; everything else has a sensible default.
type Config struct {
	Queue           queue.TaskQueue
	Adapters        adapter.Registry
	AdapterSequence []string
	ShadowAdapters  []string
	Portfolio       portfolio.Provider
	History         history.Store
	RetryPolicy     domain.RetryPolicy
	Logger          *slog.Logger
}

// Worker owns task processing. A single worker instance exclusively owns
// each task record for the duration of one Process call; all external
// visibility of intermediate state goes through the queue.
type Worker struct {
	queue     queue.TaskQueue
	adapters  adapter.Registry
	sequence  []string
	shadows   []string
	portfolio portfolio.Provider
	history   history.Store
	policy    domain.RetryPolicy
	log       *slog.Logger
}

func New(cfg Config) *Worker {
	w := &Worker{
		queue:     cfg.Queue,
		adapters:  cfg.Adapters,
		sequence:  cfg.AdapterSequence,
		shadows:   cfg.ShadowAdapters,
		portfolio: cfg.Portfolio,
		history:   cfg.History,
		policy:    cfg.RetryPolicy,
		log:       cfg.Logger,
	}
	if w.sequence == nil {
		w.sequence = DefaultAdapterSequence
	}
	if w.shadows == nil {
		w.shadows = DefaultShadowAdapters
	}
	if w.portfolio == nil {
		w.portfolio = portfolio.MockProvider{}
	}
	if w.history == nil {
		w.history = history.NewMemoryStore()
	}
	if w.policy.MaxAttempts == 0 {
		w.policy = domain.DefaultRetryPolicy()
	}
	if w.log == nil {
		w.log = slog.Default().With("component", "ara-worker")
	}
	return w
}

// Process runs a queued task to its terminal state and returns the final
// record. Intermediate state (running, current adapter) is persisted
// through the queue so persisted backends survive a crash mid-run.
func (w *Worker) Process(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	start := time.Now()

	prior, err := w.history.Latest(ctx)
	if err != nil {
		w.log.Warn("run history unavailable", "task", task.ID, "error", err)
	}
	in := adapter.Input{
		Domains:   taskDomains(task),
		Portfolio: w.portfolio.Context(ctx),
		PriorRun:  prior,
	}

	startedAt := domain.NowMs()
	if _, err := w.queue.Update(ctx, task.ID, queue.TaskPatch{
		State:       statePtr(domain.TaskRunning),
		StartedAtMs: &startedAt,
	}); err != nil {
		return nil, fmt.Errorf("transition to running: %w", err)
	}
	w.log.Info("task running", "task", task.ID, "adapters", task.AdapterSequence)

	results := w.runPrimaries(ctx, task, in)
	results = append(results, w.runShadows(ctx, task, in)...)

	primaries := primaryResults(results)
	if allFailed(primaries) {
		return w.fail(ctx, task, primaries, start)
	}
	return w.complete(ctx, task, results, in, start)
}

// runPrimaries drives the primary sequence strictly in order; a failure
// never aborts the sequence.
func (w *Worker) runPrimaries(ctx context.Context, task *domain.Task, in adapter.Input) []domain.AdapterResult {
	var results []domain.AdapterResult
	for _, adapterID := range task.AdapterSequence {
		ad, ok := w.adapters[adapterID]
		if !ok {
			w.log.Warn("unknown adapter in sequence, skipping", "task", task.ID, "adapter", adapterID)
			continue
		}

		id := adapterID
		if _, err := w.queue.Update(ctx, task.ID, queue.TaskPatch{CurrentAdapterID: &id}); err != nil {
			w.log.Warn("persist current adapter failed", "task", task.ID, "error", err)
		}

		results = append(results, w.runWithRetry(ctx, ad, in, task.RetryPolicy, task.ID))
	}
	return results
}

// runShadows fans out every shadow adapter concurrently once the primary
// sequence is done. Shadow outcomes are recorded but never influence the
// task result; a panicking shadow cannot fail the join.
func (w *Worker) runShadows(ctx context.Context, task *domain.Task, in adapter.Input) []domain.AdapterResult {
	if len(w.shadows) == 0 {
		return nil
	}

	results := make([]domain.AdapterResult, len(w.shadows))
	g, gctx := errgroup.WithContext(ctx)
	for i, adapterID := range w.shadows {
		ad, ok := w.adapters[adapterID]
		if !ok {
			w.log.Warn("unknown shadow adapter, skipping", "task", task.ID, "adapter", adapterID)
			continue
		}

		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					w.log.Error("shadow adapter panicked",
						"task", task.ID, "adapter", ad.Name(), "panic", r)
					results[i] = domain.AdapterResult{
						AdapterID:    ad.Name(),
						Shadow:       true,
						ErrorKind:    domain.ErrUnknown,
						ErrorMessage: fmt.Sprintf("panic: %v", r),
					}
				}
			}()

			res := w.runWithRetry(gctx, ad, in, task.RetryPolicy, task.ID)
			res.Shadow = true
			results[i] = res
			w.log.Info("shadow adapter done",
				"task", task.ID, "adapter", ad.Name(), "ok", res.OK, "latency_ms", res.LatencyMs)
			return nil
		})
	}
	_ = g.Wait()

	// Drop slots for unknown shadow ids.
	out := results[:0]
	for _, r := range results {
		if r.AdapterID != "" {
			out = append(out, r)
		}
	}
	return out
}

func (w *Worker) fail(ctx context.Context, task *domain.Task, primaries []domain.AdapterResult, start time.Time) (*domain.Task, error) {
	failure := &domain.TaskFailure{
		ErrorKind: domain.ErrUnknown,
		Message:   "no runnable primary adapters",
		Retryable: false,
		Attempt:   task.Attempt,
	}
	if len(primaries) > 0 {
		last := primaries[len(primaries)-1]
		failure.ErrorKind = last.ErrorKind
		failure.Message = last.ErrorMessage
		failure.AdapterID = last.AdapterID
	}

	w.log.Error("all primary adapters failed", "task", task.ID, "kind", failure.ErrorKind)
	metrics.TasksTotal.WithLabelValues(string(domain.TaskFailed)).Inc()
	metrics.TaskDuration.Observe(time.Since(start).Seconds())

	failedAt := domain.NowMs()
	empty := ""
	return w.queue.Update(ctx, task.ID, queue.TaskPatch{
		State:            statePtr(domain.TaskFailed),
		CurrentAdapterID: &empty,
		FailedAtMs:       &failedAt,
		Failure:          failure,
	})
}

func (w *Worker) complete(ctx context.Context, task *domain.Task, results []domain.AdapterResult, in adapter.Input, start time.Time) (*domain.Task, error) {
	var outputs []domain.ModelOutput
	for _, r := range results {
		if r.OK && !r.Shadow && r.Output != nil {
			outputs = append(outputs, *r.Output)
		}
	}

	brief := synth.Synthesize(outputs, in.Domains)
	pc := in.Portfolio
	brief.PortfolioContext = &pc

	w.log.Info("task completed",
		"task", task.ID,
		"confidence", brief.ConfidenceAggregate,
		"adapters_ok", len(outputs), "adapters_total", len(results))
	metrics.TasksTotal.WithLabelValues(string(domain.TaskCompleted)).Inc()
	metrics.TaskDuration.Observe(time.Since(start).Seconds())

	completedAt := domain.NowMs()
	empty := ""
	final, err := w.queue.Update(ctx, task.ID, queue.TaskPatch{
		State:            statePtr(domain.TaskCompleted),
		CurrentAdapterID: &empty,
		CompletedAtMs:    &completedAt,
		Result: &domain.TaskResult{
			Brief:          &brief,
			Findings:       brief.WhatChanged,
			AdapterResults: results,
		},
	})
	if err != nil {
		return nil, err
	}

	entry := domain.RunHistoryEntry{
		ID:        task.ID,
		Timestamp: brief.GeneratedAt,
		Domains:   in.Domains,
		KeyFindingsCount: len(brief.WhatChanged) + len(brief.TopOpportunities) +
			len(brief.TopRisks) + len(brief.OutsideCoreFocus),
		ConfidenceAggregate: brief.ConfidenceAggregate,
	}
	if err := w.history.Record(ctx, entry); err != nil {
		w.log.Warn("record run history failed", "task", task.ID, "error", err)
	}

	return final, nil
}

func taskDomains(task *domain.Task) []domain.Domain {
	if task.Domain != "" {
		return []domain.Domain{task.Domain}
	}
	return domain.AllDomains()
}

func primaryResults(results []domain.AdapterResult) []domain.AdapterResult {
	var out []domain.AdapterResult
	for _, r := range results {
		if !r.Shadow {
			out = append(out, r)
		}
	}
	return out
}

func allFailed(results []domain.AdapterResult) bool {
	for _, r := range results {
		if r.OK {
			return false
		}
	}
	return true
}

func statePtr(s domain.TaskState) *domain.TaskState { return &s }
