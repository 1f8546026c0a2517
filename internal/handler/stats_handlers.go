package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/handler/dto"
	"github.com/mtlprog/constructos/internal/service"
)

// handleDashboardStats returns the project overview.
// @Summary Get dashboard statistics
// @Description Overall and per-phase progress, leaf status counts, risk-flagged and delayed tasks
// @Tags stats
// @Produce json
// @Success 200 {object} dto.DashboardStatsResponse
// @Router /dashboard/stats [get]
func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.taskService.DashboardStats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToDashboardStatsResponse(stats))
}

// handleReport returns report data for a window.
// @Summary Get report data
// @Description Tasks active in the window, filtered by phase and status, optionally with the window's history
// @Tags stats
// @Produce json
// @Param type query string false "Report type: full (default), daily, weekly, monthly"
// @Param phase query string false "Phase filter"
// @Param status query string false "Status filter"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Param include_history query bool false "Include history recorded in the window"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /reports [get]
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.ReportParams{
		Type:   service.ReportType(query.Get("type")),
		Phase:  domain.Phase(query.Get("phase")),
		Status: domain.Status(query.Get("status")),
	}

	var err error
	if params.StartDate, err = parseOptionalDate(query.Get("start_date")); err != nil {
		respondDomainError(w, err)
		return
	}
	if params.EndDate, err = parseOptionalDate(query.Get("end_date")); err != nil {
		respondDomainError(w, err)
		return
	}

	if raw := query.Get("include_history"); raw != "" {
		params.IncludeHistory, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "include_history must be a boolean")
			return
		}
	}

	report, err := h.taskService.BuildReport(r.Context(), params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToReportResponse(report))
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
