package budget_test

import (
	"testing"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeBudget(t *testing.T, total string) *budget.Budget {
	t.Helper()
	b, err := budget.New().
		WithName("Grants").
		WithTotal(money.MustParse(total)).
		WithStatus(budget.StatusActive).
		Build()
	require.NoError(t, err)
	return b
}

func TestBuild(t *testing.T) {
	b, err := budget.New().WithName("Ops").WithTotal(money.FromInt(10)).Build()
	require.NoError(t, err)
	assert.Equal(t, budget.StatusDraft, b.Status)

	start := time.Now()
	end := start.Add(-time.Hour)
	tests := []struct {
		name    string
		builder *budget.Builder
	}{
		{"missing name", budget.New().WithTotal(money.FromInt(1))},
		{"negative total", budget.New().WithName("x").WithTotal(money.FromInt(-1))},
		{"closed initial status", budget.New().WithName("x").WithStatus(budget.StatusClosed)},
		{"start after end", budget.New().WithName("x").WithPeriod(&start, &end)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to budget.Status
		ok       bool
	}{
		{budget.StatusDraft, budget.StatusActive, true},
		{budget.StatusDraft, budget.StatusClosed, true},
		{budget.StatusActive, budget.StatusClosed, true},
		{budget.StatusActive, budget.StatusExpired, true},
		{budget.StatusExpired, budget.StatusClosed, true},
		{budget.StatusDraft, budget.StatusExpired, false},
		{budget.StatusActive, budget.StatusDraft, false},
		{budget.StatusClosed, budget.StatusActive, false},
		{budget.StatusExpired, budget.StatusActive, false},
		{budget.StatusClosed, budget.StatusClosed, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			b := &budget.Budget{Status: tc.from}
			err := b.TransitionTo(tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, b.Status)
				return
			}
			require.ErrorIs(t, err, domain.ErrBusinessLogic)
			assert.Equal(t, tc.from, b.Status)
		})
	}
}

func TestReserveAndRelease(t *testing.T) {
	b := activeBudget(t, "100")

	require.NoError(t, b.Reserve(money.FromInt(60)))
	assert.Equal(t, "40", b.Available().String())

	err := b.Reserve(money.FromInt(41))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Allocated amount cannot exceed total budget amount", err.Error())

	require.ErrorIs(t, b.Release(money.FromInt(61)), domain.ErrValidation)

	require.NoError(t, b.TransitionTo(budget.StatusClosed))
	err = b.Reserve(money.FromInt(1))
	require.ErrorIs(t, err, domain.ErrBusinessLogic)
	assert.Equal(t, "Cannot update allocations for budget with status CLOSED", err.Error())

	err = b.Release(money.FromInt(60))
	require.ErrorIs(t, err, domain.ErrBusinessLogic)
	assert.Equal(t, "Cannot update allocations for budget with status CLOSED", err.Error())
	assert.Equal(t, "60", b.AllocatedAmount.String())
}

func TestAdjustSpent(t *testing.T) {
	b := activeBudget(t, "50")

	require.NoError(t, b.AdjustSpent(money.FromInt(50)))
	assert.True(t, b.Remaining().IsZero())
	require.ErrorIs(t, b.AdjustSpent(money.MustParse("0.000000000000000001")), domain.ErrValidation)
	require.ErrorIs(t, b.AdjustSpent(money.FromInt(-51)), domain.ErrValidation)
	require.ErrorIs(t, b.SetTotal(money.FromInt(49)), domain.ErrValidation)

	require.NoError(t, b.AdjustSpent(money.FromInt(-1)))
	assert.Equal(t, "49", b.SpentAmount.String())
}

func TestSetTotal(t *testing.T) {
	b := activeBudget(t, "100")
	require.NoError(t, b.Reserve(money.FromInt(70)))

	err := b.SetTotal(money.FromInt(69))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Total budget amount cannot be less than already allocated amount", err.Error())
	require.NoError(t, b.SetTotal(money.FromInt(70)))
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	b := activeBudget(t, "1")
	assert.False(t, b.IsExpired(now))

	b.EndDate = &future
	assert.False(t, b.IsExpired(now))

	b.EndDate = &past
	assert.True(t, b.IsExpired(now))

	b.Status = budget.StatusDraft
	assert.False(t, b.IsExpired(now))
}

func TestCanDelete(t *testing.T) {
	b, err := budget.New().WithName("x").Build()
	require.NoError(t, err)
	require.NoError(t, b.CanDelete(0))

	err = b.CanDelete(1)
	require.ErrorIs(t, err, domain.ErrBusinessLogic)
	assert.Equal(t, "Cannot delete budget with existing allocations", err.Error())

	b.Status = budget.StatusActive
	require.ErrorIs(t, b.CanDelete(0), domain.ErrBusinessLogic)
}
