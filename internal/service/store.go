package service

import (
	"context"

	"github.com/mtlprog/constructos/internal/domain"
)

// Store is the point-lookup capability the rollup engine and the mutation
// orchestrator work against. Implementations return domain.ErrTaskNotFound
// from GetTask when the id does not exist. Returned tasks are snapshots:
// callers may modify them freely and must call PutTask to persist.
type Store interface {
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	GetChildren(ctx context.Context, parentID int64) ([]*domain.Task, error)
	PutTask(ctx context.Context, task *domain.Task) error
	AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error
}

// UnitOfWork runs fn against a Store whose writes are committed together.
// If fn returns an error nothing it wrote may remain visible.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// Catalog is the read side used by listings, dashboards and reports.
type Catalog interface {
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error)
	TaskNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Backend is a store that offers both the transactional and the read side.
type Backend interface {
	UnitOfWork
	Catalog
}
