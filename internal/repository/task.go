package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/constructos/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "parent_id", "name", "level", "phase", "is_leaf", "exclude_from_rollup",
	"progress", "status", "start_date", "end_date", "duration",
	"risk_flagged", "risk_notes", "notes", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	db querier
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: pool}
}

// WithTx returns a repository whose statements run inside tx.
func (r *TaskRepository) WithTx(tx pgx.Tx) *TaskRepository {
	return &TaskRepository{db: tx}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.ParentID,
		&task.Name,
		&task.Level,
		&task.Phase,
		&task.IsLeaf,
		&task.ExcludeFromRollup,
		&task.Progress,
		&task.Status,
		&task.StartDate,
		&task.EndDate,
		&task.Duration,
		&task.RiskFlagged,
		&task.RiskNotes,
		&task.Notes,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task %d: %w", taskID, err)
	}

	return scanTask(r.db.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, taskID int64) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %d: %w", taskID, err)
	}

	return scanTask(r.db.QueryRow(ctx, query, args...))
}

// GetChildren retrieves the direct children of a task.
func (r *TaskRepository) GetChildren(ctx context.Context, parentID int64) ([]*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"parent_id": parentID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetChildren query for task %d: %w", parentID, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query children of task %d: %w", parentID, err)
	}

	return scanTasks(rows)
}

// Upsert inserts a task or overwrites every column of an existing one.
func (r *TaskRepository) Upsert(ctx context.Context, task *domain.Task) error {
	query, args, err := psql.
		Insert("tasks").
		Columns(taskColumns...).
		Values(
			task.ID,
			task.ParentID,
			task.Name,
			task.Level,
			task.Phase,
			task.IsLeaf,
			task.ExcludeFromRollup,
			task.Progress,
			task.Status,
			task.StartDate,
			task.EndDate,
			task.Duration,
			task.RiskFlagged,
			task.RiskNotes,
			task.Notes,
			task.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			phase = EXCLUDED.phase,
			is_leaf = EXCLUDED.is_leaf,
			exclude_from_rollup = EXCLUDED.exclude_from_rollup,
			progress = EXCLUDED.progress,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			duration = EXCLUDED.duration,
			risk_flagged = EXCLUDED.risk_flagged,
			risk_notes = EXCLUDED.risk_notes,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Upsert query for task %d: %w", task.ID, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert task %d: %w", task.ID, err)
	}

	return nil
}

// Count returns the number of stored tasks.
func (r *TaskRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("tasks").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// DeleteAll removes every task and its history.
func (r *TaskRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "TRUNCATE tasks, task_history"); err != nil {
		return fmt.Errorf("truncate tasks: %w", err)
	}
	return nil
}
