package service

import (
	"fmt"
	"math"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// Validator checks incoming mutations against a task's current state.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// CanUpdateProgress validates that progress may be set directly on a task.
func (v *Validator) CanUpdateProgress(task *domain.Task, progress float64) error {
	if !task.IsLeaf {
		return fmt.Errorf("%w: task %d has children", domain.ErrNotLeafTask, task.ID)
	}

	if math.IsNaN(progress) || math.IsInf(progress, 0) {
		return fmt.Errorf("%w: progress must be a finite number", domain.ErrInvalidInput)
	}

	return nil
}

// ParseDateRange parses a start/end pair of YYYY-MM-DD dates.
// An end before the start is accepted; the duration floors at one day.
func (v *Validator) ParseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}

	endDate, err := domain.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}

	return startDate, endDate, nil
}
