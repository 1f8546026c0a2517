package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound     = errors.New("task not found")
	ErrNotLeafTask      = errors.New("can only update leaf task progress")
	ErrHierarchyTooDeep = errors.New("task hierarchy exceeds maximum rollup depth")

	// Validation errors
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidPhase  = errors.New("invalid task phase")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidValue  = errors.New("invalid history value")
	ErrInvalidInput  = errors.New("invalid input")
)
