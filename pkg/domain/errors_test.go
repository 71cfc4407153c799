package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", domain.Validation("amount must be positive"), domain.ErrValidation, "amount must be positive"},
		{"not found", domain.NotFound("Budget", 7), domain.ErrNotFound, "Budget with ID 7 not found"},
		{"business", domain.BusinessLogic("Insufficient available budget. Available: %s", "10"), domain.ErrBusinessLogic, "Insufficient available budget. Available: 10"},
		{"database", domain.Database("save budget", errors.New("conn reset")), domain.ErrDatabase, "database operation failed: save budget"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.kind)
			assert.Equal(t, tc.msg, tc.err.Error())
			assert.True(t, domain.IsKnown(tc.err))

			wrapped := fmt.Errorf("outer: %w", tc.err)
			assert.ErrorIs(t, wrapped, tc.kind)
		})
	}
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := domain.Database("lock allocation", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "deadlock")
	assert.False(t, errors.Is(err, domain.ErrValidation))
}

func TestIsKnownRejectsForeignErrors(t *testing.T) {
	assert.False(t, domain.IsKnown(errors.New("boom")))
	assert.False(t, domain.IsKnown(nil))
}
