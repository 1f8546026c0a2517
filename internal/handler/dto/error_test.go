package dto_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/handler/dto"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
		{fmt.Errorf("%w: task 2 has children", domain.ErrNotLeafTask), http.StatusBadRequest, "NOT_LEAF_TASK"},
		{domain.ErrHierarchyTooDeep, http.StatusConflict, "HIERARCHY_TOO_DEEP"},
		{fmt.Errorf("start date: %w", domain.ErrInvalidDate), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrInvalidPhase, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrInvalidStatus, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrInvalidValue, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrInvalidInput, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, message := dto.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), message)
		})
	}
}

func TestMapDomainError_HidesUnknownErrors(t *testing.T) {
	status, code, message := dto.MapDomainError(errors.New("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", code)
	assert.NotContains(t, message, "pq")
}
