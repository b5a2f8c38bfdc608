package domain

import "time"

// TaskType is fixed for now; the queue schema keeps it so other task kinds
// can share the same table later.
const TaskTypeAutonomousResearch = "autonomous_research"

// TaskState is the lifecycle state of a research task.
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// Task is the unit of work processed by the research worker. The id is
// immutable once created; exactly one of Result/Failure is set once the
// state is terminal.
type Task struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	TaskType       string `json:"taskType"`

	State TaskState `json:"state"`

	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Domain      Domain `json:"domain,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`

	AdapterSequence  []string `json:"adapterSequence"`
	CurrentAdapterID string   `json:"currentAdapterId,omitempty"`

	RetryPolicy RetryPolicy `json:"retryPolicy"`
	Attempt     int         `json:"attempt"`
	MaxAttempts int         `json:"maxAttempts"`

	CreatedAtMs   int64 `json:"createdAtMs"`
	QueuedAtMs    int64 `json:"queuedAtMs,omitempty"`
	StartedAtMs   int64 `json:"startedAtMs,omitempty"`
	UpdatedAtMs   int64 `json:"updatedAtMs"`
	CompletedAtMs int64 `json:"completedAtMs,omitempty"`
	FailedAtMs    int64 `json:"failedAtMs,omitempty"`
	NextRetryAtMs int64 `json:"nextRetryAtMs,omitempty"`

	Result  *TaskResult  `json:"result,omitempty"`
	Failure *TaskFailure `json:"failure,omitempty"`
}

// TaskResult holds the terminal payload of a completed task.
type TaskResult struct {
	Brief          *Brief          `json:"brief,omitempty"`
	Findings       []Finding       `json:"findings,omitempty"`
	AdapterResults []AdapterResult `json:"adapterResults,omitempty"`
}

// TaskFailure is the sole failure surface visible to callers.
type TaskFailure struct {
	ErrorKind ErrorKind `json:"errorKind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	AdapterID string    `json:"adapterId,omitempty"`
	Attempt   int       `json:"attempt"`
}

// AdapterResult is the per-provider outcome of one runner invocation.
// Never mutated after creation.
type AdapterResult struct {
	AdapterID string `json:"adapterId"`
	OK        bool   `json:"ok"`
	Shadow    bool   `json:"shadow,omitempty"`

	LatencyMs int64 `json:"latencyMs"`
	TokensIn  int   `json:"tokensIn,omitempty"`
	TokensOut int   `json:"tokensOut,omitempty"`

	// Set on success.
	Output *ModelOutput `json:"output,omitempty"`

	// Set on terminal failure.
	ErrorKind    ErrorKind `json:"errorKind,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	HTTPStatus   int       `json:"httpStatus,omitempty"`
}

// NowMs returns the current wall clock in epoch milliseconds, the unit used
// across the task schema.
func NowMs() int64 {
	return time.Now().UnixMilli()
}
