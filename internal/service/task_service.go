package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// statusChangeNotes annotates status entries produced by a progress update.
const statusChangeNotes = "Auto-derived from progress"

// MutationResult describes everything a single mutation wrote.
type MutationResult struct {
	// Task is the mutated task as persisted.
	Task *domain.Task
	// History holds the entries appended for Task, in write order.
	History []*domain.HistoryEntry
	// Ancestors holds the rolled-up ancestors, nearest first.
	Ancestors []*domain.Task
}

// TaskService coordinates task mutations, history and rollups.
//
// Every mutation runs as one unit of work with the ordering: task write,
// history entries (value field first, then any derived status), then the
// ancestor rollup. A failure at any step aborts the unit, so history is never
// visible for a task write that did not happen.
type TaskService struct {
	backend   Backend
	engine    *RollupEngine
	history   *HistoryLogger
	validator *Validator
	project   ProjectInfo
	now       func() time.Time
}

// NewTaskService creates a new TaskService. now supplies both the mutation
// timestamps and "today" for status derivation.
func NewTaskService(backend Backend, project ProjectInfo, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		backend:   backend,
		engine:    NewRollupEngine(now),
		history:   NewHistoryLogger(),
		validator: NewValidator(),
		project:   project,
		now:       now,
	}
}

// UpdateProgress sets a leaf task's progress, re-derives its status and rolls
// up its ancestors.
func (s *TaskService) UpdateProgress(ctx context.Context, taskID int64, progress float64, notes string) (*MutationResult, error) {
	var result *MutationResult
	err := s.backend.InTx(ctx, func(store Store) error {
		task, err := store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		if err := s.validator.CanUpdateProgress(task, progress); err != nil {
			return err
		}

		now := s.now()
		updated := task.Clone()
		updated.Progress = NormalizeProgress(progress)
		updated.Status = DeriveLeafStatus(updated.Progress, updated.RiskFlagged, updated.EndDate, now)
		updated.UpdatedAt = now

		if err := store.PutTask(ctx, updated); err != nil {
			return fmt.Errorf("put task %d: %w", taskID, err)
		}
		result = &MutationResult{Task: updated}

		if err := s.record(ctx, store, result, domain.ActionProgressUpdate, domain.FieldProgress,
			domain.NumberValue(task.Progress), domain.NumberValue(updated.Progress), notes, now); err != nil {
			return err
		}
		if task.Status != updated.Status {
			if err := s.record(ctx, store, result, domain.ActionStatusChange, domain.FieldStatus,
				domain.StringValue(string(task.Status)), domain.StringValue(string(updated.Status)), statusChangeNotes, now); err != nil {
				return err
			}
		}

		return s.rollupParent(ctx, store, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task progress updated",
		"task_id", taskID,
		"progress", result.Task.Progress,
		"status", result.Task.Status,
		"ancestors_updated", len(result.Ancestors),
	)

	return result, nil
}

// UpdateDates changes a task's schedule and rolls up its ancestors, whose
// weighting depends on the task's duration.
func (s *TaskService) UpdateDates(ctx context.Context, taskID int64, start, end, notes string) (*MutationResult, error) {
	startDate, endDate, err := s.validator.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	var result *MutationResult
	err = s.backend.InTx(ctx, func(store Store) error {
		task, err := store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		updated := task.Clone()
		updated.StartDate = startDate
		updated.EndDate = endDate
		updated.Duration = domain.InclusiveDays(startDate, endDate)
		updated.UpdatedAt = now

		if err := store.PutTask(ctx, updated); err != nil {
			return fmt.Errorf("put task %d: %w", taskID, err)
		}
		result = &MutationResult{Task: updated}

		if err := s.record(ctx, store, result, domain.ActionDateChange, domain.FieldDates,
			domain.DateRangeValue(task.StartDate, task.EndDate), domain.DateRangeValue(startDate, endDate), notes, now); err != nil {
			return err
		}

		return s.rollupParent(ctx, store, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task dates updated",
		"task_id", taskID,
		"start_date", start,
		"end_date", end,
		"duration", result.Task.Duration,
	)

	return result, nil
}

// UpdateRisk flags or clears a task's risk. Flagging unfinished work forces
// at_risk; clearing re-derives the status as if the task had never been
// flagged. A non-leaf task is re-aggregated from its own children afterwards.
func (s *TaskService) UpdateRisk(ctx context.Context, taskID int64, flagged bool, riskNotes, notes string) (*MutationResult, error) {
	var result *MutationResult
	err := s.backend.InTx(ctx, func(store Store) error {
		task, err := store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		updated := task.Clone()
		updated.RiskFlagged = flagged
		updated.RiskNotes = riskNotes
		updated.UpdatedAt = now
		switch {
		case flagged && task.Status != domain.StatusCompleted:
			updated.Status = domain.StatusAtRisk
		case !flagged:
			updated.Status = DeriveLeafStatus(task.Progress, false, task.EndDate, now)
		}

		if err := store.PutTask(ctx, updated); err != nil {
			return fmt.Errorf("put task %d: %w", taskID, err)
		}
		result = &MutationResult{Task: updated}

		entryNotes := notes
		if entryNotes == "" {
			entryNotes = riskNotes
		}
		if err := s.record(ctx, store, result, domain.ActionRiskChange, domain.FieldRiskFlagged,
			domain.BoolValue(task.RiskFlagged), domain.BoolValue(flagged), entryNotes, now); err != nil {
			return err
		}

		if err := s.refreshSelf(ctx, store, result); err != nil {
			return err
		}
		return s.rollupParent(ctx, store, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task risk updated",
		"task_id", taskID,
		"risk_flagged", flagged,
		"status", result.Task.Status,
	)

	return result, nil
}

// UpdateNotes replaces a task's free-text notes. It writes no history and
// triggers no rollup.
func (s *TaskService) UpdateNotes(ctx context.Context, taskID int64, notes string) (*domain.Task, error) {
	var updated *domain.Task
	err := s.backend.InTx(ctx, func(store Store) error {
		task, err := store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		updated = task.Clone()
		updated.Notes = notes
		updated.UpdatedAt = s.now()

		if err := store.PutTask(ctx, updated); err != nil {
			return fmt.Errorf("put task %d: %w", taskID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task notes updated", "task_id", taskID)

	return updated, nil
}

// Recompute re-aggregates a task from its children (when it has any) and
// rolls up its ancestors. It repairs derived state after out-of-band edits.
func (s *TaskService) Recompute(ctx context.Context, taskID int64) (*MutationResult, error) {
	var result *MutationResult
	err := s.backend.InTx(ctx, func(store Store) error {
		task, err := store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		result = &MutationResult{Task: task}

		if err := s.refreshSelf(ctx, store, result); err != nil {
			return err
		}
		return s.rollupParent(ctx, store, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task recomputed",
		"task_id", taskID,
		"progress", result.Task.Progress,
		"status", result.Task.Status,
		"ancestors_updated", len(result.Ancestors),
	)

	return result, nil
}

// RecomputeAll rolls up every non-leaf task, deepest level first, each in
// its own unit of work. Returns the number of tasks processed, and an error
// if any of them failed.
func (s *TaskService) RecomputeAll(ctx context.Context) (int, error) {
	tasks, err := s.backend.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}

	var parents []*domain.Task
	for _, task := range tasks {
		if !task.IsLeaf {
			parents = append(parents, task)
		}
	}
	sort.SliceStable(parents, func(i, j int) bool {
		return parents[i].Level > parents[j].Level
	})

	count := 0
	var errs []error
	for _, parent := range parents {
		err := s.backend.InTx(ctx, func(store Store) error {
			_, err := s.engine.Step(ctx, store, parent.ID)
			return err
		})
		if err != nil {
			slog.Error("failed to recompute task",
				"task_id", parent.ID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("task %d: %w", parent.ID, err))
			continue
		}
		count++
	}

	failedCount := len(parents) - count
	slog.Info("recomputed task tree",
		"total", len(parents),
		"successful", count,
		"failed", failedCount,
	)

	if len(errs) > 0 {
		return count, fmt.Errorf("recomputed %d/%d tasks, %d failures: %v",
			count, len(parents), failedCount, errs)
	}

	return count, nil
}

// record appends a history entry for the mutated task and keeps it in result.
func (s *TaskService) record(
	ctx context.Context,
	store Store,
	result *MutationResult,
	action domain.Action,
	field string,
	oldValue, newValue domain.Value,
	notes string,
	at time.Time,
) error {
	entry, err := s.history.Record(ctx, store, result.Task.ID, action, field, oldValue, newValue, notes, at)
	if err != nil {
		return err
	}
	result.History = append(result.History, entry)
	return nil
}

// refreshSelf re-aggregates a non-leaf task from its own children.
func (s *TaskService) refreshSelf(ctx context.Context, store Store, result *MutationResult) error {
	if result.Task.IsLeaf {
		return nil
	}

	effect, err := s.engine.Step(ctx, store, result.Task.ID)
	if err != nil {
		return err
	}
	if effect.UpdatedParent != nil {
		result.Task = effect.UpdatedParent
	}
	return nil
}

// rollupParent propagates the mutated task's change to its ancestors.
func (s *TaskService) rollupParent(ctx context.Context, store Store, result *MutationResult) error {
	if !result.Task.HasParent() {
		return nil
	}

	ancestors, err := s.engine.Propagate(ctx, store, *result.Task.ParentID)
	if err != nil {
		return fmt.Errorf("rollup from task %d: %w", result.Task.ID, err)
	}
	result.Ancestors = ancestors
	return nil
}
