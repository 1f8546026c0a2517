package domain

import "time"

// RootTaskID is the id of the project root task.
const RootTaskID int64 = 1

// Status is the categorical state of a task. It is always derived from
// progress, risk and dates, never set directly.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelayed    Status = "delayed"
	StatusAtRisk     Status = "at_risk"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusCompleted,
	StatusInProgress,
	StatusDelayed,
	StatusAtRisk,
	StatusNotStarted,
}

// IsValid checks if the status is one of the allowed values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusDelayed, StatusAtRisk:
		return true
	default:
		return false
	}
}

// Phase groups tasks into the construction phases of the project.
type Phase string

const (
	PhasePreConstruction Phase = "pre_construction"
	PhaseAdminAcademic   Phase = "admin_academic"
	PhaseAuditorium      Phase = "auditorium"
	PhaseResidential     Phase = "residential"
	PhaseExternal        Phase = "external"
)

// AllPhases lists every phase in project order.
var AllPhases = []Phase{
	PhasePreConstruction,
	PhaseAdminAcademic,
	PhaseAuditorium,
	PhaseResidential,
	PhaseExternal,
}

// IsValid checks if the phase is one of the known project phases.
func (p Phase) IsValid() bool {
	for _, known := range AllPhases {
		if p == known {
			return true
		}
	}
	return false
}

// Task is a node of the project work breakdown. Only leaf tasks carry
// ground-truth progress; every other task is rolled up from its children.
type Task struct {
	ID                int64
	ParentID          *int64 // nil for the root
	Name              string
	Level             int
	Phase             Phase
	IsLeaf            bool
	ExcludeFromRollup bool
	Progress          float64
	Status            Status
	StartDate         time.Time
	EndDate           time.Time
	Duration          int
	RiskFlagged       bool
	RiskNotes         string
	Notes             string
	UpdatedAt         time.Time
}

// HasParent returns true if the task is not a root.
func (t *Task) HasParent() bool {
	return t.ParentID != nil
}

// Contributes returns true if the task takes part in its parent's rollup.
func (t *Task) Contributes() bool {
	return !t.ExcludeFromRollup
}

// Clone returns a copy of the task that shares no memory with the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.ParentID != nil {
		parentID := *t.ParentID
		c.ParentID = &parentID
	}
	return &c
}
