package worker

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/queue"
	"github.com/vietddude/ara/internal/research/adapter"
)

// fakeAdapter fails a scripted number of times before succeeding, and
// records every invocation in an optional shared call log.
type fakeAdapter struct {
	name     string
	failures int
	failWith error
	output   *domain.ModelOutput
	panics   bool

	mu      sync.Mutex
	calls   int
	callLog *callLog
}

type callLog struct {
	mu    sync.Mutex
	order []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, name)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Run(_ context.Context, _ adapter.Input) (*domain.ModelOutput, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.callLog != nil {
		f.callLog.add(f.name)
	}
	if f.panics {
		panic("provider client blew up")
	}
	if n <= f.failures {
		return nil, f.failWith
	}
	return f.output, nil
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func output(model string, confidences ...float64) *domain.ModelOutput {
	out := &domain.ModelOutput{Model: model}
	for _, c := range confidences {
		out.WhatChanged = append(out.WhatChanged, domain.Finding{
			ID:          model,
			Title:       model,
			Domain:      domain.DomainMetals,
			Confidence:  c,
			SourceModel: model,
		})
	}
	out.Sentiment = []domain.SentimentRow{
		{Domain: domain.DomainMetals, Score: 0.2, Label: domain.SentimentBullish, Rationale: model},
	}
	return out
}

func fastPolicy(maxAttempts int) domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxAttempts:       maxAttempts,
		BaseDelayMs:       1,
		BackoffMultiplier: 2,
		MaxDelayMs:        5,
		RetryableErrorKinds: []domain.ErrorKind{
			domain.ErrRateLimited, domain.ErrNetwork,
			domain.ErrTimeout, domain.ErrBackendUnavailable,
		},
	}
}

func newWorker(t *testing.T, q queue.TaskQueue, primaries []adapter.Adapter, shadows []adapter.Adapter) *Worker {
	t.Helper()
	var seq, shadowIDs []string
	all := make([]adapter.Adapter, 0, len(primaries)+len(shadows))
	for _, a := range primaries {
		seq = append(seq, a.Name())
		all = append(all, a)
	}
	shadowIDs = []string{}
	for _, a := range shadows {
		shadowIDs = append(shadowIDs, a.Name())
		all = append(all, a)
	}
	return New(Config{
		Queue:           q,
		Adapters:        adapter.NewRegistry(all...),
		AdapterSequence: seq,
		ShadowAdapters:  shadowIDs,
		RetryPolicy:     fastPolicy(3),
	})
}

func TestSubmitEndToEndRetryThenSuccess(t *testing.T) {
	a := &fakeAdapter{
		name:     "alpha",
		failures: 1,
		failWith: domain.NewAdapterError(domain.ErrRateLimited, "429"),
		output:   output("alpha", 0.8),
	}
	b := &fakeAdapter{name: "beta", output: output("beta", 0.6)}

	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a, b}, nil)
	task, err := w.Submit(context.Background(), SubmitInput{Title: "daily", Prompt: "scan"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if task.State != domain.TaskCompleted {
		t.Fatalf("state = %s, want completed (failure: %+v)", task.State, task.Failure)
	}
	if a.callCount() != 2 {
		t.Errorf("alpha called %d times, want 2 (one retry)", a.callCount())
	}
	if task.Result == nil || task.Result.Brief == nil {
		t.Fatal("completed task has no brief")
	}
	if got := len(task.Result.AdapterResults); got != 2 {
		t.Errorf("adapter results = %d, want 2", got)
	}
	if agg := task.Result.Brief.ConfidenceAggregate; math.Abs(agg-0.7) > 1e-9 {
		t.Errorf("confidenceAggregate = %v, want 0.7 (mean of 0.8 and 0.6)", agg)
	}
	if task.CompletedAtMs == 0 || task.StartedAtMs == 0 {
		t.Error("lifecycle timestamps missing")
	}
	if task.Failure != nil {
		t.Error("completed task carries a failure envelope")
	}
}

func TestProcessShadowIsolation(t *testing.T) {
	a := &fakeAdapter{name: "alpha", output: output("alpha", 0.8)}
	s1 := &fakeAdapter{
		name:     "shadow-1",
		failures: 99,
		failWith: domain.NewAdapterError(domain.ErrProvider, "boom"),
	}
	s2 := &fakeAdapter{name: "shadow-2", panics: true}

	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a}, []adapter.Adapter{s1, s2})
	task, err := w.Submit(context.Background(), SubmitInput{Title: "daily", Prompt: "scan"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if task.State != domain.TaskCompleted {
		t.Fatalf("shadow failures leaked into task state: %s", task.State)
	}

	brief := task.Result.Brief
	for _, f := range brief.WhatChanged {
		if f.SourceModel != "alpha" {
			t.Errorf("shadow finding %q leaked into the brief", f.SourceModel)
		}
	}

	var shadowCount int
	for _, r := range task.Result.AdapterResults {
		if r.Shadow {
			shadowCount++
			if r.OK {
				t.Errorf("shadow %s unexpectedly ok", r.AdapterID)
			}
		}
	}
	if shadowCount != 2 {
		t.Errorf("recorded %d shadow results, want 2", shadowCount)
	}
}

func TestProcessAllPrimariesFailed(t *testing.T) {
	authErr := domain.NewAdapterError(domain.ErrAuthFailed, "key missing")
	a := &fakeAdapter{name: "alpha", failures: 99, failWith: authErr}
	b := &fakeAdapter{name: "beta", failures: 99, failWith: authErr}

	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a, b}, nil)
	task, err := w.Submit(context.Background(), SubmitInput{Title: "daily", Prompt: "scan"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if task.State != domain.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	if task.Failure == nil {
		t.Fatal("failed task has no failure envelope")
	}
	if task.Failure.AdapterID != "beta" {
		t.Errorf("failure.adapterId = %q, want last primary beta", task.Failure.AdapterID)
	}
	if task.Failure.ErrorKind != domain.ErrAuthFailed {
		t.Errorf("failure.errorKind = %s, want AUTH_FAILED", task.Failure.ErrorKind)
	}
	if task.Failure.Retryable {
		t.Error("failure marked retryable")
	}
	if task.Result != nil {
		t.Error("failed task carries a result")
	}
	// AUTH_FAILED is non-retryable: exactly one call each, no retries.
	if a.callCount() != 1 || b.callCount() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.callCount(), b.callCount())
	}
	// Beta still ran: a primary failure does not abort the sequence.
	if b.callCount() == 0 {
		t.Error("sequence aborted after first primary failure")
	}
}

func TestProcessPrimariesSequentialShadowsAfter(t *testing.T) {
	log := &callLog{}
	a := &fakeAdapter{name: "alpha", output: output("alpha", 0.5), callLog: log}
	b := &fakeAdapter{name: "beta", output: output("beta", 0.5), callLog: log}
	s := &fakeAdapter{name: "shadow", output: output("shadow", 0.5), callLog: log}

	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a, b}, []adapter.Adapter{s})
	if _, err := w.Submit(context.Background(), SubmitInput{Title: "daily", Prompt: "scan"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []string{"alpha", "beta", "shadow"}
	if len(log.order) != len(want) {
		t.Fatalf("call order = %v", log.order)
	}
	for i, name := range want {
		if log.order[i] != name {
			t.Errorf("call[%d] = %s, want %s", i, log.order[i], name)
		}
	}
}

func TestSubmitIdempotency(t *testing.T) {
	a := &fakeAdapter{name: "alpha", output: output("alpha", 0.5)}
	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a}, nil)

	first, err := w.Submit(context.Background(), SubmitInput{
		Title: "daily", Prompt: "scan", IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := w.Submit(context.Background(), SubmitInput{
		Title: "different payload", Prompt: "other", IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("idempotent submit returned %s, want %s", second.ID, first.ID)
	}
	if a.callCount() != 1 {
		t.Errorf("adapter called %d times, want 1 (no reprocessing)", a.callCount())
	}
}

func TestSubmitIdempotencyNonTerminalTask(t *testing.T) {
	path := t.TempDir() + "/tasks.json"
	q, err := queue.NewFileQueue(path)
	if err != nil {
		t.Fatalf("new file queue: %v", err)
	}

	a := &fakeAdapter{name: "alpha", output: output("alpha", 0.5)}
	w := newWorker(t, q, []adapter.Adapter{a}, nil)

	stored, created, err := w.Create(context.Background(), SubmitInput{
		Title: "daily", Prompt: "scan", IdempotencyKey: "key-1",
	})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	// Simulate a crash mid-run: the stored record stays running.
	startedAt := domain.NowMs()
	running := domain.TaskRunning
	if _, err := q.Update(context.Background(), stored.ID, queue.TaskPatch{
		State:       &running,
		StartedAtMs: &startedAt,
	}); err != nil {
		t.Fatalf("move to running: %v", err)
	}

	got, err := w.Submit(context.Background(), SubmitInput{
		Title: "daily", Prompt: "scan", IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got.ID != stored.ID {
		t.Errorf("resubmit returned %s, want %s", got.ID, stored.ID)
	}
	if got.State != domain.TaskRunning {
		t.Errorf("state = %s, want running (no reprocessing)", got.State)
	}
	if got.Result != nil {
		t.Errorf("non-terminal task carries a result: %+v", got.Result)
	}
	if a.callCount() != 0 {
		t.Errorf("adapter called %d times, want 0", a.callCount())
	}
}

func TestSubmitValidation(t *testing.T) {
	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{
		&fakeAdapter{name: "alpha", output: output("alpha", 0.5)},
	}, nil)

	if _, err := w.Submit(context.Background(), SubmitInput{Prompt: "scan"}); err == nil {
		t.Error("empty title accepted")
	}
	if _, err := w.Submit(context.Background(), SubmitInput{
		Title: "t", Prompt: "p", Domain: "forex",
	}); err == nil {
		t.Error("unknown domain accepted")
	}
}

func TestSubmitRetryOverrides(t *testing.T) {
	a := &fakeAdapter{
		name:     "alpha",
		failures: 99,
		failWith: domain.NewAdapterError(domain.ErrRateLimited, "429"),
		output:   output("alpha", 0.5),
	}
	w := newWorker(t, queue.NewMemoryQueue(), []adapter.Adapter{a}, nil)

	one := 1
	task, err := w.Submit(context.Background(), SubmitInput{
		Title: "daily", Prompt: "scan",
		Retry: &RetryOverrides{MaxAttempts: &one},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if task.State != domain.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	if a.callCount() != 1 {
		t.Errorf("maxAttempts=1 but adapter was called %d times", a.callCount())
	}
	if task.MaxAttempts != 1 {
		t.Errorf("task.maxAttempts = %d, want 1", task.MaxAttempts)
	}
}
