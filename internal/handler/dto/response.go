package dto

import (
	"time"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/service"
)

// TaskResponse represents a task.
type TaskResponse struct {
	ID                int64     `json:"id"`
	ParentID          *int64    `json:"parent_id"`
	Name              string    `json:"name"`
	Level             int       `json:"level"`
	Phase             string    `json:"phase"`
	IsLeaf            bool      `json:"is_leaf"`
	ExcludeFromRollup bool      `json:"exclude_from_rollup"`
	Progress          float64   `json:"progress"`
	Status            string    `json:"status"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	Duration          int       `json:"duration"`
	RiskFlagged       bool      `json:"risk_flagged"`
	RiskNotes         string    `json:"risk_notes"`
	Notes             string    `json:"notes"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// HistoryEntryResponse represents a history entry. TaskName is set on
// cross-task feeds only.
type HistoryEntryResponse struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	TaskName  string    `json:"task_name,omitempty"`
	Action    string    `json:"action"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryListResponse represents a list of history entries.
type HistoryListResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
}

// MutationResponse represents the outcome of a task mutation.
type MutationResponse struct {
	Task      TaskResponse           `json:"task"`
	History   []HistoryEntryResponse `json:"history"`
	Ancestors []TaskResponse         `json:"ancestors"`
}

// TaskSummary is a compact task reference used in dashboards.
type TaskSummary struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Phase     string  `json:"phase"`
	Progress  float64 `json:"progress"`
	Status    string  `json:"status"`
	EndDate   string  `json:"end_date"`
	RiskNotes string  `json:"risk_notes,omitempty"`
}

// PhaseStatsResponse represents statistics for one phase.
type PhaseStatsResponse struct {
	Phase        string         `json:"phase"`
	Name         string         `json:"name"`
	Progress     float64        `json:"progress"`
	TotalTasks   int            `json:"total_tasks"`
	LeafTasks    int            `json:"leaf_tasks"`
	StatusCounts map[string]int `json:"status_counts"`
}

// DashboardStatsResponse represents the project overview.
type DashboardStatsResponse struct {
	OverallProgress float64              `json:"overall_progress"`
	TotalTasks      int                  `json:"total_tasks"`
	LeafTasks       int                  `json:"leaf_tasks"`
	StatusCounts    map[string]int       `json:"status_counts"`
	Phases          []PhaseStatsResponse `json:"phases"`
	AtRiskTasks     []TaskSummary        `json:"at_risk_tasks"`
	DelayedTasks    []TaskSummary        `json:"delayed_tasks"`
	ProjectStart    string               `json:"project_start"`
	ProjectEnd      string               `json:"project_end"`
}

// ReportResponse represents report data.
type ReportResponse struct {
	Type         string                 `json:"type"`
	ProjectName  string                 `json:"project_name"`
	Phase        string                 `json:"phase,omitempty"`
	Status       string                 `json:"status,omitempty"`
	StartDate    *string                `json:"start_date"`
	EndDate      *string                `json:"end_date"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Tasks        []TaskResponse         `json:"tasks"`
	TotalTasks   int                    `json:"total_tasks"`
	LeafTasks    int                    `json:"leaf_tasks"`
	StatusCounts map[string]int         `json:"status_counts"`
	History      []HistoryEntryResponse `json:"history,omitempty"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                task.ID,
		ParentID:          task.ParentID,
		Name:              task.Name,
		Level:             task.Level,
		Phase:             string(task.Phase),
		IsLeaf:            task.IsLeaf,
		ExcludeFromRollup: task.ExcludeFromRollup,
		Progress:          task.Progress,
		Status:            string(task.Status),
		StartDate:         domain.FormatDate(task.StartDate),
		EndDate:           domain.FormatDate(task.EndDate),
		Duration:          task.Duration,
		RiskFlagged:       task.RiskFlagged,
		RiskNotes:         task.RiskNotes,
		Notes:             task.Notes,
		UpdatedAt:         task.UpdatedAt,
	}
}

// ToTaskResponses converts a slice of tasks, never returning nil.
func ToTaskResponses(tasks []*domain.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		result[i] = ToTaskResponse(task)
	}
	return result
}

// ToHistoryEntryResponse converts domain.HistoryEntry to HistoryEntryResponse.
func ToHistoryEntryResponse(entry *domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:        entry.ID,
		TaskID:    entry.TaskID,
		Action:    string(entry.Action),
		Field:     entry.Field,
		OldValue:  entry.OldValue.String(),
		NewValue:  entry.NewValue.String(),
		Notes:     entry.Notes,
		Timestamp: entry.Timestamp,
	}
}

// ToHistoryEntryResponses converts history entries, never returning nil.
func ToHistoryEntryResponses(entries []*domain.HistoryEntry) []HistoryEntryResponse {
	result := make([]HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		result[i] = ToHistoryEntryResponse(entry)
	}
	return result
}

// ToNamedHistoryResponses converts history entries joined with task names.
func ToNamedHistoryResponses(entries []domain.HistoryEntryWithTask) []HistoryEntryResponse {
	result := make([]HistoryEntryResponse, len(entries))
	for i := range entries {
		result[i] = ToHistoryEntryResponse(&entries[i].HistoryEntry)
		result[i].TaskName = entries[i].TaskName
	}
	return result
}

// ToMutationResponse converts service.MutationResult to MutationResponse.
func ToMutationResponse(result *service.MutationResult) MutationResponse {
	return MutationResponse{
		Task:      ToTaskResponse(result.Task),
		History:   ToHistoryEntryResponses(result.History),
		Ancestors: ToTaskResponses(result.Ancestors),
	}
}

// ToTaskSummary converts domain.Task to TaskSummary.
func ToTaskSummary(task *domain.Task) TaskSummary {
	return TaskSummary{
		ID:        task.ID,
		Name:      task.Name,
		Phase:     string(task.Phase),
		Progress:  task.Progress,
		Status:    string(task.Status),
		EndDate:   domain.FormatDate(task.EndDate),
		RiskNotes: task.RiskNotes,
	}
}

// ToDashboardStatsResponse converts service.DashboardStats to DashboardStatsResponse.
func ToDashboardStatsResponse(stats *service.DashboardStats) DashboardStatsResponse {
	response := DashboardStatsResponse{
		OverallProgress: stats.OverallProgress,
		TotalTasks:      stats.TotalTasks,
		LeafTasks:       stats.LeafTasks,
		StatusCounts:    statusCounts(stats.StatusCounts),
		Phases:          make([]PhaseStatsResponse, len(stats.Phases)),
		AtRiskTasks:     make([]TaskSummary, len(stats.AtRisk)),
		DelayedTasks:    make([]TaskSummary, len(stats.Delayed)),
		ProjectStart:    domain.FormatDate(stats.ProjectStart),
		ProjectEnd:      domain.FormatDate(stats.ProjectEnd),
	}

	for i, phase := range stats.Phases {
		response.Phases[i] = PhaseStatsResponse{
			Phase:        string(phase.Phase),
			Name:         phase.Name,
			Progress:     phase.Progress,
			TotalTasks:   phase.TotalTasks,
			LeafTasks:    phase.LeafTasks,
			StatusCounts: statusCounts(phase.StatusCounts),
		}
	}
	for i, task := range stats.AtRisk {
		response.AtRiskTasks[i] = ToTaskSummary(task)
	}
	for i, task := range stats.Delayed {
		response.DelayedTasks[i] = ToTaskSummary(task)
	}

	return response
}

// ToReportResponse converts service.Report to ReportResponse.
func ToReportResponse(report *service.Report) ReportResponse {
	response := ReportResponse{
		Type:         string(report.Type),
		ProjectName:  report.ProjectName,
		Phase:        string(report.Phase),
		Status:       string(report.Status),
		StartDate:    formatOptionalDate(report.StartDate),
		EndDate:      formatOptionalDate(report.EndDate),
		GeneratedAt:  report.GeneratedAt,
		Tasks:        ToTaskResponses(report.Tasks),
		TotalTasks:   len(report.Tasks),
		LeafTasks:    report.LeafTasks,
		StatusCounts: statusCounts(report.StatusCounts),
	}
	if report.History != nil {
		response.History = ToNamedHistoryResponses(report.History)
	}
	return response
}

// statusCounts reports every status, including those with no tasks.
func statusCounts(counts map[domain.Status]int) map[string]int {
	result := make(map[string]int, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		result[string(status)] = counts[status]
	}
	return result
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}
