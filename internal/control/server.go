package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/ara/internal/core/domain"
	"github.com/vietddude/ara/internal/queue"
	"github.com/vietddude/ara/internal/research/worker"
)

// Server provides the HTTP surface: health, metrics and task endpoints.
type Server struct {
	worker *worker.Worker
	queue  queue.TaskQueue
	server *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(w *worker.Worker, q queue.TaskQueue, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		worker: w,
		queue:  q,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/research/tasks", s.handleTasks)
	mux.HandleFunc("/research/tasks/", s.handleTaskByID)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// submitRequest is the POST /research/tasks body.
type submitRequest struct {
	Title          string                 `json:"title"`
	Prompt         string                 `json:"prompt"`
	Domain         domain.Domain          `json:"domain"`
	RequestedBy    string                 `json:"requestedBy"`
	IdempotencyKey string                 `json:"idempotencyKey"`
	RetryOverrides *worker.RetryOverrides `json:"retryPolicyOverrides"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, created, err := s.worker.Create(r.Context(), worker.SubmitInput{
		Title:          req.Title,
		Prompt:         req.Prompt,
		Domain:         req.Domain,
		RequestedBy:    req.RequestedBy,
		IdempotencyKey: req.IdempotencyKey,
		Retry:          req.RetryOverrides,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, task)
		return
	}

	// Process detached from the request lifetime; clients poll by id.
	go func() {
		if _, err := s.worker.Process(context.Background(), task); err != nil {
			slog.Error("task processing failed", "task", task.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var filter queue.Filter
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := domain.TaskState(raw)
		filter.State = &state
	}

	tasks, err := s.queue.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/research/tasks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	task, err := s.queue.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
