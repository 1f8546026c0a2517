package service

import (
	"context"
	"fmt"

	"github.com/mtlprog/constructos/internal/domain"
)

const (
	// TaskHistoryLimit caps the entries returned for a single task.
	TaskHistoryLimit = 100
	// DefaultRecentHistoryLimit is used when no limit is requested.
	DefaultRecentHistoryLimit = 30
	// MaxRecentHistoryLimit caps the recent history feed.
	MaxRecentHistoryLimit = 100
)

// GetTask retrieves a task by id.
func (s *TaskService) GetTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	return s.backend.GetTask(ctx, taskID)
}

// ListTasks returns tasks ordered by id, optionally restricted to a phase.
func (s *TaskService) ListTasks(ctx context.Context, phase domain.Phase) ([]*domain.Task, error) {
	if phase != "" && !phase.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPhase, phase)
	}
	return s.backend.ListTasks(ctx, domain.TaskFilter{Phase: phase})
}

// TaskHistory returns a task's history, newest first.
func (s *TaskService) TaskHistory(ctx context.Context, taskID int64) ([]*domain.HistoryEntry, error) {
	return s.backend.ListHistory(ctx, domain.HistoryFilter{
		TaskID: &taskID,
		Limit:  TaskHistoryLimit,
	})
}

// RecentHistory returns the latest history entries across all tasks, joined
// with task names.
func (s *TaskService) RecentHistory(ctx context.Context, limit int) ([]domain.HistoryEntryWithTask, error) {
	if limit <= 0 {
		limit = DefaultRecentHistoryLimit
	}
	if limit > MaxRecentHistoryLimit {
		limit = MaxRecentHistoryLimit
	}

	entries, err := s.backend.ListHistory(ctx, domain.HistoryFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	return s.withTaskNames(ctx, entries)
}

// withTaskNames attaches task names to history entries. Entries whose task
// no longer exists are labelled "Task #<id>".
func (s *TaskService) withTaskNames(ctx context.Context, entries []*domain.HistoryEntry) ([]domain.HistoryEntryWithTask, error) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, e := range entries {
		if !seen[e.TaskID] {
			seen[e.TaskID] = true
			ids = append(ids, e.TaskID)
		}
	}

	names, err := s.backend.TaskNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get task names: %w", err)
	}

	result := make([]domain.HistoryEntryWithTask, len(entries))
	for i, e := range entries {
		name, ok := names[e.TaskID]
		if !ok {
			name = fmt.Sprintf("Task #%d", e.TaskID)
		}
		result[i] = domain.HistoryEntryWithTask{HistoryEntry: *e, TaskName: name}
	}
	return result, nil
}
