// Package memstore is an in-memory task store with value semantics. It backs
// the demo server and the service tests. Units of work are serialized and
// rolled back by restoring a snapshot.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/service"
)

var (
	_ service.Backend = (*Store)(nil)
	_ service.Store   = (*txStore)(nil)
)

// Store holds tasks and history in memory.
type Store struct {
	mu      sync.RWMutex
	tasks   map[int64]domain.Task
	history []domain.HistoryEntry
	nextID  int64
}

// New creates a Store seeded with the given tasks.
func New(tasks ...*domain.Task) *Store {
	s := &Store{
		tasks:  make(map[int64]domain.Task, len(tasks)),
		nextID: 1,
	}
	for _, t := range tasks {
		s.tasks[t.ID] = *t.Clone()
	}
	return s
}

// InTx runs fn with exclusive access. If fn fails, every write it made is
// discarded.
func (s *Store) InTx(ctx context.Context, fn func(service.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make(map[int64]domain.Task, len(s.tasks))
	for id, t := range s.tasks {
		tasks[id] = t
	}
	historyLen := len(s.history)
	nextID := s.nextID

	if err := fn(&txStore{s: s}); err != nil {
		s.tasks = tasks
		s.history = s.history[:historyLen]
		s.nextID = nextID
		return err
	}
	return nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTask(id)
}

// ListTasks returns matching tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*domain.Task
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// ListHistory returns matching entries, newest first. Entries with equal
// timestamps are returned in reverse insertion order.
func (s *Store) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*domain.HistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		e := s.history[i]
		if filter.Matches(&e) {
			entries = append(entries, &e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

// TaskNames maps the given ids to task names, skipping unknown ids.
func (s *Store) TaskNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			names[id] = t.Name
		}
	}
	return names, nil
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) getTask(id int64) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// txStore is the view handed to a unit of work. The parent lock is held.
type txStore struct {
	s *Store
}

func (tx *txStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return tx.s.getTask(id)
}

func (tx *txStore) GetChildren(ctx context.Context, parentID int64) ([]*domain.Task, error) {
	var children []*domain.Task
	for _, t := range tx.s.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			children = append(children, t.Clone())
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (tx *txStore) PutTask(ctx context.Context, task *domain.Task) error {
	tx.s.tasks[task.ID] = *task.Clone()
	return nil
}

func (tx *txStore) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	entry.ID = tx.s.nextID
	tx.s.nextID++
	tx.s.history = append(tx.s.history, *entry)
	return nil
}
