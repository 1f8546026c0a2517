package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// MaxRollupDepth bounds the ancestor walk so a corrupted parent chain cannot
// loop forever.
const MaxRollupDepth = 256

// RollupEffect is the outcome of rolling up a single parent.
type RollupEffect struct {
	// UpdatedParent is the persisted parent, nil if nothing was written.
	UpdatedParent *domain.Task
	// NextParentID is the grandparent to continue with, nil at the root or
	// when the chain ends.
	NextParentID *int64
}

// RollupEngine recomputes ancestor progress and status from their children.
type RollupEngine struct {
	now func() time.Time
}

// NewRollupEngine creates a RollupEngine stamping updates with now.
func NewRollupEngine(now func() time.Time) *RollupEngine {
	if now == nil {
		now = time.Now
	}
	return &RollupEngine{now: now}
}

// Aggregate computes a parent's progress and status from its children.
// Excluded children are ignored. ok is false when no child contributes, in
// which case the parent must be left as it is.
func Aggregate(parent *domain.Task, children []*domain.Task) (progress float64, status domain.Status, ok bool) {
	var (
		effective     int
		totalDuration float64
		weighted      float64
		plain         float64
		hasDelayed    bool
		hasRisk       bool
	)
	for _, child := range children {
		if !child.Contributes() {
			continue
		}
		effective++
		totalDuration += float64(child.Duration)
		weighted += child.Progress * float64(child.Duration)
		plain += child.Progress
		if child.Status == domain.StatusDelayed {
			hasDelayed = true
		}
		if child.Status == domain.StatusAtRisk || child.RiskFlagged {
			hasRisk = true
		}
	}
	if effective == 0 {
		return 0, "", false
	}

	if totalDuration == 0 {
		progress = plain / float64(effective)
	} else {
		progress = weighted / totalDuration
	}
	progress = roundTenth(min(progress, 100))

	status = BaseStatus(progress)
	if progress < 100 {
		switch {
		case parent.RiskFlagged:
			status = domain.StatusAtRisk
		case hasDelayed:
			status = domain.StatusDelayed
		case hasRisk:
			status = domain.StatusAtRisk
		}
	}

	return progress, status, true
}

// Step rolls up one parent and persists it. A missing parent or a parent
// without contributing children yields an empty effect and no error.
func (e *RollupEngine) Step(ctx context.Context, store Store, parentID int64) (RollupEffect, error) {
	// The parent is read first so stores that lock rows hold it before the
	// children are aggregated.
	parent, err := store.GetTask(ctx, parentID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			slog.Warn("rollup stopped at missing ancestor", "task_id", parentID)
			return RollupEffect{}, nil
		}
		return RollupEffect{}, fmt.Errorf("get rollup parent %d: %w", parentID, err)
	}

	children, err := store.GetChildren(ctx, parentID)
	if err != nil {
		return RollupEffect{}, fmt.Errorf("get children of %d: %w", parentID, err)
	}
	if len(children) == 0 {
		return RollupEffect{}, nil
	}

	progress, status, ok := Aggregate(parent, children)
	if !ok {
		return RollupEffect{}, nil
	}

	updated := parent.Clone()
	updated.Progress = progress
	updated.Status = status
	updated.UpdatedAt = e.now()

	if err := store.PutTask(ctx, updated); err != nil {
		return RollupEffect{}, fmt.Errorf("put rolled up task %d: %w", parentID, err)
	}

	slog.Debug("task rolled up",
		"task_id", parentID,
		"progress", progress,
		"status", status,
	)

	return RollupEffect{UpdatedParent: updated, NextParentID: updated.ParentID}, nil
}

// Propagate rolls up parentID and then each ancestor in turn until the root
// or a dead end is reached. It returns the updated ancestors, nearest first.
// The first store failure stops the walk.
func (e *RollupEngine) Propagate(ctx context.Context, store Store, parentID int64) ([]*domain.Task, error) {
	var updated []*domain.Task
	next := &parentID
	for steps := 0; next != nil; steps++ {
		if steps >= MaxRollupDepth {
			return updated, fmt.Errorf("%w: stopped at task %d after %d levels", domain.ErrHierarchyTooDeep, *next, MaxRollupDepth)
		}

		effect, err := e.Step(ctx, store, *next)
		if err != nil {
			return updated, err
		}
		if effect.UpdatedParent == nil {
			break
		}
		updated = append(updated, effect.UpdatedParent)
		next = effect.NextParentID
	}
	return updated, nil
}
