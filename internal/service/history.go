package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// HistoryLogger appends audit entries for task mutations.
type HistoryLogger struct{}

// NewHistoryLogger creates a HistoryLogger.
func NewHistoryLogger() *HistoryLogger {
	return &HistoryLogger{}
}

// Record appends exactly one history entry. Entries written for the same
// mutation should share at.
func (l *HistoryLogger) Record(
	ctx context.Context,
	store Store,
	taskID int64,
	action domain.Action,
	field string,
	oldValue domain.Value,
	newValue domain.Value,
	notes string,
	at time.Time,
) (*domain.HistoryEntry, error) {
	entry := &domain.HistoryEntry{
		TaskID:    taskID,
		Action:    action,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Notes:     notes,
		Timestamp: at,
	}

	if err := store.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("append %s history for task %d: %w", action, taskID, err)
	}

	return entry, nil
}
