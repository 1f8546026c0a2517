package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mtlprog/constructos/internal/domain"
)

// List retrieves tasks matching the filter, ordered by id.
func (r *TaskRepository) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks")

	// Apply phase filter
	if filter.Phase != "" {
		qb = qb.Where(sq.Eq{"phase": filter.Phase})
	}

	// Apply status filter
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": filter.Status})
	}

	// Keep tasks whose schedule overlaps the requested window
	if filter.ActiveTo != nil {
		qb = qb.Where(sq.LtOrEq{"start_date": *filter.ActiveTo})
	}
	if filter.ActiveFrom != nil {
		qb = qb.Where(sq.GtOrEq{"end_date": *filter.ActiveFrom})
	}

	query, args, err := qb.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// Names maps the given task ids to their names. Unknown ids are omitted.
func (r *TaskRepository) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query, args, err := psql.
		Select("id", "name").
		From("tasks").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Names query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan task name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task name rows: %w", err)
	}

	return names, nil
}
