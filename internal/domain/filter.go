package domain

import "time"

// TaskFilter selects tasks from the catalogue. Zero fields do not filter.
type TaskFilter struct {
	Phase  Phase
	Status Status
	// ActiveFrom and ActiveTo keep tasks whose [start, end] window overlaps
	// the given range. Either bound may be nil.
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

// Matches reports whether a task passes the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Phase != "" && t.Phase != f.Phase {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ActiveTo != nil && t.StartDate.After(*f.ActiveTo) {
		return false
	}
	if f.ActiveFrom != nil && t.EndDate.Before(*f.ActiveFrom) {
		return false
	}
	return true
}

// HistoryFilter selects history entries. Results are newest first.
type HistoryFilter struct {
	TaskID *int64
	Since  *time.Time
	Until  *time.Time
	Limit  int
}

// Matches reports whether an entry passes the filter, ignoring Limit.
func (f HistoryFilter) Matches(e *HistoryEntry) bool {
	if f.TaskID != nil && e.TaskID != *f.TaskID {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && e.Timestamp.After(*f.Until) {
		return false
	}
	return true
}
