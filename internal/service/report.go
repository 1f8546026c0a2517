package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// ReportHistoryLimit caps the history entries included in a report.
const ReportHistoryLimit = 500

// ReportType selects the reporting window label.
type ReportType string

const (
	ReportTypeFull    ReportType = "full"
	ReportTypeDaily   ReportType = "daily"
	ReportTypeWeekly  ReportType = "weekly"
	ReportTypeMonthly ReportType = "monthly"
)

// IsValid checks if the report type is known.
func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeFull, ReportTypeDaily, ReportTypeWeekly, ReportTypeMonthly:
		return true
	default:
		return false
	}
}

// ReportParams holds the report filters. Nil dates leave that side open.
type ReportParams struct {
	Type           ReportType
	Phase          domain.Phase
	Status         domain.Status
	StartDate      *time.Time
	EndDate        *time.Time
	IncludeHistory bool
}

// Report is the data behind a project report.
type Report struct {
	Type         ReportType
	ProjectName  string
	Phase        domain.Phase
	Status       domain.Status
	StartDate    *time.Time
	EndDate      *time.Time
	GeneratedAt  time.Time
	Tasks        []*domain.Task
	LeafTasks    int
	StatusCounts map[domain.Status]int
	History      []domain.HistoryEntryWithTask
}

// BuildReport selects the tasks active in the requested window and,
// optionally, the history recorded in it. A daily, weekly or monthly report
// without explicit dates covers the period ending today.
func (s *TaskService) BuildReport(ctx context.Context, params ReportParams) (*Report, error) {
	if params.Type == "" {
		params.Type = ReportTypeFull
	}
	if !params.Type.IsValid() {
		return nil, fmt.Errorf("%w: report type %q", domain.ErrInvalidInput, params.Type)
	}
	if params.Phase != "" && !params.Phase.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPhase, params.Phase)
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, params.Status)
	}

	now := s.now()
	if params.StartDate == nil && params.EndDate == nil {
		params.StartDate, params.EndDate = defaultWindow(params.Type, now)
	}

	tasks, err := s.backend.ListTasks(ctx, domain.TaskFilter{
		Phase:      params.Phase,
		Status:     params.Status,
		ActiveFrom: params.StartDate,
		ActiveTo:   params.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list report tasks: %w", err)
	}

	leaves, counts := StatusSummary(tasks)
	report := &Report{
		Type:         params.Type,
		ProjectName:  s.project.Name,
		Phase:        params.Phase,
		Status:       params.Status,
		StartDate:    params.StartDate,
		EndDate:      params.EndDate,
		GeneratedAt:  now.UTC(),
		Tasks:        tasks,
		LeafTasks:    leaves,
		StatusCounts: counts,
	}

	if params.IncludeHistory {
		filter := domain.HistoryFilter{Since: params.StartDate, Limit: ReportHistoryLimit}
		if params.EndDate != nil {
			until := params.EndDate.Add(24*time.Hour - time.Nanosecond)
			filter.Until = &until
		}

		entries, err := s.backend.ListHistory(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list report history: %w", err)
		}
		report.History, err = s.withTaskNames(ctx, entries)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

// defaultWindow returns the date range a report type covers by default.
func defaultWindow(reportType ReportType, now time.Time) (*time.Time, *time.Time) {
	today := domain.DateOf(now)
	var start time.Time
	switch reportType {
	case ReportTypeDaily:
		start = today
	case ReportTypeWeekly:
		start = today.AddDate(0, 0, -6)
	case ReportTypeMonthly:
		start = today.AddDate(0, -1, 0)
	default:
		return nil, nil
	}
	return &start, &today
}
