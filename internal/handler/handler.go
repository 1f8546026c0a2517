package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/constructos/internal/handler/dto"
	"github.com/mtlprog/constructos/internal/service"
	"github.com/mtlprog/constructos/internal/static"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	taskService *service.TaskService
	pinger      Pinger
}

// New creates a new Handler. pinger may be nil for backends without a
// database, in which case the health check always succeeds.
func New(taskService *service.TaskService, pinger Pinger) *Handler {
	return &Handler{
		taskService: taskService,
		pinger:      pinger,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// API guide
	mux.HandleFunc("GET /api.md", h.handleAPIMd)

	// Tasks
	mux.HandleFunc("GET /api/v1/tasks", h.handleListTasks)
	mux.HandleFunc("GET /api/v1/tasks/{id}", h.handleGetTask)
	mux.HandleFunc("PUT /api/v1/tasks/{id}/progress", h.handleUpdateProgress)
	mux.HandleFunc("PUT /api/v1/tasks/{id}/dates", h.handleUpdateDates)
	mux.HandleFunc("PUT /api/v1/tasks/{id}/risk", h.handleUpdateRisk)
	mux.HandleFunc("PUT /api/v1/tasks/{id}/notes", h.handleUpdateNotes)

	// History
	mux.HandleFunc("GET /api/v1/tasks/{id}/history", h.handleTaskHistory)
	mux.HandleFunc("GET /api/v1/history/recent", h.handleRecentHistory)

	// Dashboard and reports
	mux.HandleFunc("GET /api/v1/dashboard/stats", h.handleDashboardStats)
	mux.HandleFunc("GET /api/v1/reports", h.handleReport)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			slog.Error("database health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// handleAPIMd serves the embedded API guide.
func (h *Handler) handleAPIMd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.APIMd))
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err through dto.MapDomainError and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractTaskID extracts and validates task ID from path parameter.
// Returns (taskID, true) if valid, (0, false) if invalid (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return 0, false
	}

	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id must be a positive integer")
		return 0, false
	}

	return taskID, true
}
