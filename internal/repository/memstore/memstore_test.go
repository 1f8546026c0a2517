package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/repository/memstore"
	"github.com/mtlprog/constructos/internal/service"
)

func tasks() []*domain.Task {
	root := int64(1)
	return []*domain.Task{
		{ID: 1, Name: "Root", Phase: domain.PhaseExternal},
		{ID: 3, ParentID: &root, Name: "Second", Phase: domain.PhaseExternal, IsLeaf: true},
		{ID: 2, ParentID: &root, Name: "First", Phase: domain.PhaseAuditorium, IsLeaf: true},
	}
}

func TestStore_ValueSemantics(t *testing.T) {
	ctx := context.Background()
	seed := tasks()
	store := memstore.New(seed...)

	seed[0].Name = "mutated after New"
	got, err := store.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Root", got.Name)

	got.Name = "mutated after Get"
	again, err := store.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Root", again.Name)
}

func TestStore_GetTaskNotFound(t *testing.T) {
	_, err := memstore.New().GetTask(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_ChildrenAndListOrderedByID(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(tasks()...)

	err := store.InTx(ctx, func(s service.Store) error {
		children, err := s.GetChildren(ctx, 1)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, int64(2), children[0].ID)
		assert.Equal(t, int64(3), children[1].ID)
		return nil
	})
	require.NoError(t, err)

	list, err := store.ListTasks(ctx, domain.TaskFilter{Phase: domain.PhaseExternal})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(tasks()...)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(s service.Store) error {
		task, err := s.GetTask(ctx, 2)
		require.NoError(t, err)
		task.Progress = 50
		require.NoError(t, s.PutTask(ctx, task))
		require.NoError(t, s.PutTask(ctx, &domain.Task{ID: 9, Name: "new"}))
		require.NoError(t, s.AppendHistory(ctx, &domain.HistoryEntry{TaskID: 2}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	task, err := store.GetTask(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, task.Progress)
	assert.Equal(t, 3, store.Len())

	history, err := store.ListHistory(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(tasks()...)
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	err := store.InTx(ctx, func(s service.Store) error {
		for i, taskID := range []int64{2, 3, 2} {
			entry := &domain.HistoryEntry{TaskID: taskID, Notes: string(rune('a' + i)), Timestamp: t0}
			require.NoError(t, s.AppendHistory(ctx, entry))
			assert.Equal(t, int64(i+1), entry.ID)
		}
		return s.AppendHistory(ctx, &domain.HistoryEntry{TaskID: 2, Notes: "d", Timestamp: t0.Add(-time.Hour)})
	})
	require.NoError(t, err)

	all, err := store.ListHistory(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"c", "b", "a", "d"}, notes(all))

	taskID := int64(2)
	limited, err := store.ListHistory(ctx, domain.HistoryFilter{TaskID: &taskID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, notes(limited))

	since := t0
	recent, err := store.ListHistory(ctx, domain.HistoryFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	names, err := store.TaskNames(ctx, []int64{2, 3, 99})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{2: "First", 3: "Second"}, names)
}

func notes(entries []*domain.HistoryEntry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Notes
	}
	return result
}
