//go:build integration

package allocation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/money"
	allocationsvc "github.com/amirasaad/treasury/pkg/service/allocation"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	budgetsvc "github.com/amirasaad/treasury/pkg/service/budget"
	"github.com/amirasaad/treasury/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against PostgreSQL so the row locks are real.
func TestConcurrentDisbursementPostgres(t *testing.T) {
	env := testutils.NewPostgresEnv(t)
	ctx := context.Background()
	deps := env.Deps()
	assets := assetsvc.NewService(deps)
	budgets := budgetsvc.NewService(deps)
	allocations := allocationsvc.NewService(deps)

	a, err := assets.Create(ctx, assetsvc.CreateInput{Name: "USD Coin", Symbol: "USDC", Balance: money.FromInt(1000)})
	require.NoError(t, err)
	b, err := budgets.Create(ctx, budgetsvc.CreateInput{
		Name: "Ops", TotalAmount: money.FromInt(1000), Status: budget.StatusActive,
	})
	require.NoError(t, err)
	alloc, err := allocations.Create(ctx, allocationsvc.CreateInput{
		Title: "Payroll", BudgetID: b.ID, AssetID: a.ID,
		Amount: money.MustParse("400.5"), Status: allocation.StatusApproved, ApprovedBy: "cfo",
	})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := allocations.ProcessDisbursement(ctx, alloc.ID, allocationsvc.DisbursementInput{
				Amount: money.MustParse("400.5"),
			})
			if err == nil {
				successes.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrBusinessLogic)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes.Load())

	stored, err := allocations.FindByID(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusCompleted, stored.Status)
	assert.Equal(t, "400.5", stored.SpentAmount.String())

	storedBudget, err := budgets.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "400.5", storedBudget.SpentAmount.String())
}
