package service

import (
	"math"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// DeriveLeafStatus maps a task's progress, risk flag and end date to a status.
// Rules apply in order, first match wins: a risk flag on unfinished work,
// zero progress, full progress, an end date already behind today, otherwise
// in progress. Dates are compared as calendar days.
func DeriveLeafStatus(progress float64, riskFlagged bool, endDate, today time.Time) domain.Status {
	if riskFlagged && progress < 100 {
		return domain.StatusAtRisk
	}
	if progress == 0 {
		return domain.StatusNotStarted
	}
	if progress >= 100 {
		return domain.StatusCompleted
	}
	if domain.DateOf(today).After(domain.DateOf(endDate)) {
		return domain.StatusDelayed
	}
	return domain.StatusInProgress
}

// BaseStatus derives a status from progress alone.
func BaseStatus(progress float64) domain.Status {
	switch {
	case progress == 0:
		return domain.StatusNotStarted
	case progress >= 100:
		return domain.StatusCompleted
	default:
		return domain.StatusInProgress
	}
}

// NormalizeProgress clamps a progress value to [0, 100] with one decimal.
// NaN becomes 0.
func NormalizeProgress(progress float64) float64 {
	if math.IsNaN(progress) {
		return 0
	}
	return math.Max(0, math.Min(100, roundTenth(progress)))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
