package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/repository/memstore"
	"github.com/mtlprog/constructos/internal/service"
)

var errStoreDown = errors.New("store unavailable")

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type taskOption func(*domain.Task)

// newTask builds a not-started task. parentID 0 means no parent; durations
// default to ten days starting 2025-06-01.
func newTask(id, parentID int64, opts ...taskOption) *domain.Task {
	t := &domain.Task{
		ID:        id,
		Name:      "Task",
		Phase:     domain.PhaseAdminAcademic,
		IsLeaf:    true,
		Status:    domain.StatusNotStarted,
		StartDate: date("2025-06-01"),
		EndDate:   date("2025-06-10"),
		Duration:  10,
	}
	if parentID != 0 {
		p := parentID
		t.ParentID = &p
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func named(name string) taskOption {
	return func(t *domain.Task) { t.Name = name }
}

func parentTask(level int) taskOption {
	return func(t *domain.Task) {
		t.IsLeaf = false
		t.Level = level
	}
}

func inPhase(phase domain.Phase) taskOption {
	return func(t *domain.Task) { t.Phase = phase }
}

func progress(p float64, status domain.Status) taskOption {
	return func(t *domain.Task) {
		t.Progress = p
		t.Status = status
	}
}

func dates(start, end string) taskOption {
	return func(t *domain.Task) {
		t.StartDate = date(start)
		t.EndDate = date(end)
		t.Duration = domain.InclusiveDays(t.StartDate, t.EndDate)
	}
}

func excluded() taskOption {
	return func(t *domain.Task) { t.ExcludeFromRollup = true }
}

func riskFlagged(notes string) taskOption {
	return func(t *domain.Task) {
		t.RiskFlagged = true
		t.RiskNotes = notes
	}
}

// faultyStore fails PutTask for one task id.
type faultyStore struct {
	service.Store
	failPut int64
}

func (f faultyStore) PutTask(ctx context.Context, task *domain.Task) error {
	if task.ID == f.failPut {
		return errStoreDown
	}
	return f.Store.PutTask(ctx, task)
}

// faultyBackend hands every unit of work a faultyStore.
type faultyBackend struct {
	*memstore.Store
	failPut int64
}

func (b faultyBackend) InTx(ctx context.Context, fn func(service.Store) error) error {
	return b.Store.InTx(ctx, func(store service.Store) error {
		return fn(faultyStore{Store: store, failPut: b.failPut})
	})
}
