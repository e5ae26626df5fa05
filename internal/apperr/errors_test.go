package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("range", "end before start"), KindValidation},
		{"not found", NotFound("billing", 7), KindNotFound},
		{"wrapped conflict", fmt.Errorf("approve: %w", Conflict("overlap", "slot taken")), KindConflict},
		{"capacity", Capacity(120, 100), KindCapacity},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := InvalidTransition("event", "ONGOING", "PREPARING")
	assert.Equal(t, "[invalid_transition] event cannot move from ONGOING to PREPARING", err.Error())

	cause := errors.New("disk full")
	wrapped := Internal("write audit", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestIs(t *testing.T) {
	assert.True(t, Is(NotFound("event", 1), KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
	assert.False(t, Is(Validation("x", "y"), KindConflict))
}
