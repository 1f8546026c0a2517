package handler

import (
	"net/http"
	"strconv"

	"github.com/mtlprog/constructos/internal/handler/dto"
)

// handleTaskHistory returns a task's history.
// @Summary Get task history
// @Description Up to 100 history entries of a task, newest first
// @Tags history
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} dto.HistoryListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /tasks/{id}/history [get]
func (h *Handler) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	entries, err := h.taskService.TaskHistory(r.Context(), taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.HistoryListResponse{
		Entries: dto.ToHistoryEntryResponses(entries),
		Total:   len(entries),
	})
}

// handleRecentHistory returns the latest history across all tasks.
// @Summary Get recent history
// @Tags history
// @Produce json
// @Param limit query int false "Number of entries (default 30, max 100)"
// @Success 200 {object} dto.HistoryListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /history/recent [get]
func (h *Handler) handleRecentHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.taskService.RecentHistory(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.HistoryListResponse{
		Entries: dto.ToNamedHistoryResponses(entries),
		Total:   len(entries),
	})
}
