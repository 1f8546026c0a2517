package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/handler/dto"
)

// handleListTasks lists tasks ordered by id.
// @Summary List tasks
// @Description List all tasks ordered by id, optionally restricted to one phase
// @Tags tasks
// @Produce json
// @Param phase query string false "Phase: pre_construction, admin_academic, auditorium, residential, external"
// @Success 200 {object} dto.TasksListResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	phase := domain.Phase(r.URL.Query().Get("phase"))

	tasks, err := h.taskService.ListTasks(r.Context(), phase)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks: dto.ToTaskResponses(tasks),
		Total: len(tasks),
	})
}

// handleGetTask retrieves a single task.
// @Summary Get task
// @Tags tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleUpdateProgress sets a leaf task's progress.
// @Summary Update task progress
// @Description Set progress (clamped to 0-100, one decimal) of a leaf task. The status is re-derived and all ancestors are rolled up.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body dto.UpdateProgressRequest true "New progress"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks/{id}/progress [put]
func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Progress == nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "progress is required")
		return
	}

	result, err := h.taskService.UpdateProgress(r.Context(), taskID, *req.Progress, req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMutationResponse(result))
}

// handleUpdateDates changes a task's schedule.
// @Summary Update task dates
// @Description Set start and end dates (YYYY-MM-DD). Duration is recomputed and ancestors are rolled up.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body dto.UpdateDatesRequest true "New dates"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks/{id}/dates [put]
func (h *Handler) handleUpdateDates(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.taskService.UpdateDates(r.Context(), taskID, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMutationResponse(result))
}

// handleUpdateRisk flags or clears a task's risk.
// @Summary Update task risk
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body dto.UpdateRiskRequest true "Risk flag"
// @Success 200 {object} dto.MutationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /tasks/{id}/risk [put]
func (h *Handler) handleUpdateRisk(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.RiskFlagged == nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "risk_flagged is required")
		return
	}

	result, err := h.taskService.UpdateRisk(r.Context(), taskID, *req.RiskFlagged, req.RiskNotes, req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMutationResponse(result))
}

// handleUpdateNotes replaces a task's notes.
// @Summary Update task notes
// @Description Replace free-text notes. Writes no history and triggers no rollup.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body dto.UpdateNotesRequest true "Notes"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{id}/notes [put]
func (h *Handler) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateNotes(r.Context(), taskID, req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}
