package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/constructos/internal/domain"
)

// HistoryRepository handles database operations for the task history.
// Entries are insert-only.
type HistoryRepository struct {
	db querier
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: pool}
}

// WithTx returns a repository whose statements run inside tx.
func (r *HistoryRepository) WithTx(tx pgx.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Create appends a history entry and fills in its ID.
func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query, args, err := psql.
		Insert("task_history").
		Columns("task_id", "action", "field", "value_kind", "old_value", "new_value", "notes", "created_at").
		Values(
			entry.TaskID,
			entry.Action,
			entry.Field,
			entry.NewValue.Kind,
			entry.OldValue.String(),
			entry.NewValue.String(),
			entry.Notes,
			entry.Timestamp,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("create history entry: %w", err)
	}

	return nil
}

// List retrieves history entries matching the filter, newest first.
// Entries sharing a timestamp come back in reverse insertion order.
func (r *HistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error) {
	qb := psql.
		Select("id", "task_id", "action", "field", "value_kind", "old_value", "new_value", "notes", "created_at").
		From("task_history")

	if filter.TaskID != nil {
		qb = qb.Where(sq.Eq{"task_id": *filter.TaskID})
	}
	if filter.Since != nil {
		qb = qb.Where(sq.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Until != nil {
		qb = qb.Where(sq.LtOrEq{"created_at": *filter.Until})
	}

	qb = qb.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var (
			entry    domain.HistoryEntry
			kind     domain.ValueKind
			oldValue string
			newValue string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.Action,
			&entry.Field,
			&kind,
			&oldValue,
			&newValue,
			&entry.Notes,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		if entry.OldValue, err = domain.ParseValue(kind, oldValue); err != nil {
			return nil, fmt.Errorf("history entry %d old value: %w", entry.ID, err)
		}
		if entry.NewValue, err = domain.ParseValue(kind, newValue); err != nil {
			return nil, fmt.Errorf("history entry %d new value: %w", entry.ID, err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
