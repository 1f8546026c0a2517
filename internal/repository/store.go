package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/service"
)

var (
	_ service.Backend = (*Store)(nil)
	_ service.Store   = (*txStore)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL backend for tasks and their history.
type Store struct {
	pool    *pgxpool.Pool
	tasks   *TaskRepository
	history *HistoryRepository
}

// NewStore creates a Store on top of a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		tasks:   NewTaskRepository(pool),
		history: NewHistoryRepository(pool),
	}
}

// Tasks returns the task repository bound to the pool.
func (s *Store) Tasks() *TaskRepository {
	return s.tasks
}

// InTx runs fn inside a database transaction and commits if fn succeeds.
// Tasks read through the transaction are locked FOR UPDATE, so concurrent
// rollups along a shared ancestor chain are serialized.
func (s *Store) InTx(ctx context.Context, fn func(service.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(&txStore{
		tasks:   s.tasks.WithTx(tx),
		history: s.history.WithTx(tx),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id without locking it.
func (s *Store) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// ListTasks returns matching tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.tasks.List(ctx, filter)
}

// ListHistory returns matching history entries, newest first.
func (s *Store) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error) {
	return s.history.List(ctx, filter)
}

// TaskNames maps task ids to names.
func (s *Store) TaskNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return s.tasks.Names(ctx, ids)
}

// txStore adapts the repositories bound to one transaction to service.Store.
type txStore struct {
	tasks   *TaskRepository
	history *HistoryRepository
}

func (s *txStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.GetByIDForUpdate(ctx, id)
}

func (s *txStore) GetChildren(ctx context.Context, parentID int64) ([]*domain.Task, error) {
	return s.tasks.GetChildren(ctx, parentID)
}

func (s *txStore) PutTask(ctx context.Context, task *domain.Task) error {
	return s.tasks.Upsert(ctx, task)
}

func (s *txStore) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	return s.history.Create(ctx, entry)
}
