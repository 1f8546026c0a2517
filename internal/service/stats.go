package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// PhaseStats summarises the leaf work of one phase.
type PhaseStats struct {
	Phase        domain.Phase
	Name         string
	Progress     float64
	TotalTasks   int
	LeafTasks    int
	StatusCounts map[domain.Status]int
}

// DashboardStats is the project-wide overview.
type DashboardStats struct {
	OverallProgress float64
	TotalTasks      int
	LeafTasks       int
	StatusCounts    map[domain.Status]int
	Phases          []PhaseStats
	AtRisk          []*domain.Task
	Delayed         []*domain.Task
	ProjectStart    time.Time
	ProjectEnd      time.Time
}

// DashboardStats computes the project overview from the current task set.
// Overall progress is the root task's rolled-up progress; phase progress is
// the duration-weighted mean of the phase's contributing leaves.
func (s *TaskService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	tasks, err := s.backend.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	stats := &DashboardStats{
		TotalTasks:   len(tasks),
		StatusCounts: make(map[domain.Status]int),
		ProjectStart: s.project.Start,
		ProjectEnd:   s.project.End,
	}

	for _, t := range tasks {
		if t.ID == domain.RootTaskID {
			stats.OverallProgress = t.Progress
		}
		if isCountedLeaf(t) {
			stats.LeafTasks++
			stats.StatusCounts[t.Status]++
		}
		if t.RiskFlagged {
			stats.AtRisk = append(stats.AtRisk, t)
		}
		if t.Status == domain.StatusDelayed {
			stats.Delayed = append(stats.Delayed, t)
		}
	}

	for _, phase := range domain.AllPhases {
		stats.Phases = append(stats.Phases, s.phaseStats(phase, tasks))
	}

	return stats, nil
}

func (s *TaskService) phaseStats(phase domain.Phase, tasks []*domain.Task) PhaseStats {
	ps := PhaseStats{
		Phase:        phase,
		Name:         s.project.PhaseName(phase),
		StatusCounts: make(map[domain.Status]int),
	}

	var totalDuration, weighted float64
	for _, t := range tasks {
		if t.Phase != phase {
			continue
		}
		ps.TotalTasks++
		if !isCountedLeaf(t) {
			continue
		}
		ps.LeafTasks++
		ps.StatusCounts[t.Status]++
		totalDuration += float64(t.Duration)
		weighted += t.Progress * float64(t.Duration)
	}
	if totalDuration > 0 {
		ps.Progress = roundTenth(weighted / totalDuration)
	}

	return ps
}

// StatusSummary counts the contributing leaves of tasks by status.
func StatusSummary(tasks []*domain.Task) (leaves int, counts map[domain.Status]int) {
	counts = make(map[domain.Status]int)
	for _, t := range tasks {
		if isCountedLeaf(t) {
			leaves++
			counts[t.Status]++
		}
	}
	return leaves, counts
}

func isCountedLeaf(t *domain.Task) bool {
	return t.IsLeaf && t.Contributes()
}
