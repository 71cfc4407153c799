package asset_test

import (
	"context"
	"sync"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	"github.com/amirasaad/treasury/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*assetsvc.Service, *testutils.Env) {
	t.Helper()
	env := testutils.NewSQLiteEnv(t)
	return assetsvc.NewService(env.Deps()), env
}

func TestCreate(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()

	eth, err := svc.Create(ctx, assetsvc.CreateInput{Name: "Ether", Symbol: "ETH", Balance: money.FromInt(100)})
	require.NoError(t, err)
	assert.True(t, eth.IsActive)
	assert.Equal(t, 18, eth.Decimals)
	assert.Equal(t, []events.EventType{events.EventTypeAssetCreated}, eventTypes(env))

	t.Run("duplicate native asset", func(t *testing.T) {
		_, err := svc.Create(ctx, assetsvc.CreateInput{Name: "Ether again", Symbol: "ETH"})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("same symbol on a contract is a different pair", func(t *testing.T) {
		_, err := svc.Create(ctx, assetsvc.CreateInput{
			Name: "Bridged Ether", Symbol: "ETH", Type: "token", ContractAddress: "0xabc", ChainID: "SN_MAIN",
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, assetsvc.CreateInput{Name: "dup", Symbol: "ETH", ContractAddress: "0xabc"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := svc.Create(ctx, assetsvc.CreateInput{Symbol: "BTC"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Create(ctx, assetsvc.CreateInput{Name: "Bitcoin", Symbol: "BTC", Type: "stock"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestBalances(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, assetsvc.CreateInput{Name: "USD Coin", Symbol: "USDC", Balance: money.FromInt(100)})
	require.NoError(t, err)

	_, err = svc.UpdateAllocatedBalance(ctx, a.ID, money.FromInt(40))
	require.NoError(t, err)

	available, err := svc.GetAvailableBalance(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, money.FromInt(60).Equal(available))

	_, err = svc.UpdateAllocatedBalance(ctx, a.ID, money.FromInt(61))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateAllocatedBalance(ctx, a.ID, money.FromInt(-41))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateBalance(ctx, a.ID, money.FromInt(-1))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateBalance(ctx, a.ID, money.FromInt(39))
	require.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.UpdateBalance(ctx, a.ID, money.MustParse("40.000000000000000001"))
	require.NoError(t, err)
	assert.Equal(t, "40.000000000000000001", updated.Balance.String())

	stored, err := svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.000000000000000001", stored.Balance.String())
	assert.True(t, money.FromInt(40).Equal(stored.AllocatedBalance))
}

func TestConcurrentAllocatedUpdatesDoNotLoseWrites(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, assetsvc.CreateInput{Name: "Dai", Symbol: "DAI", Balance: money.FromInt(100)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateAllocatedBalance(ctx, a.ID, money.FromInt(5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, money.FromInt(50).Equal(stored.AllocatedBalance))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, assetsvc.CreateInput{Name: "Stark", Symbol: "STRK"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, assetsvc.CreateInput{Name: "Ether", Symbol: "ETH"})
	require.NoError(t, err)

	name := "Starknet Token"
	updated, err := svc.Update(ctx, a.ID, assetsvc.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	clash := "ETH"
	_, err = svc.Update(ctx, a.ID, assetsvc.UpdateInput{Symbol: &clash})
	require.ErrorIs(t, err, domain.ErrValidation)

	env.Bus.ClearPublished()
	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, []events.EventType{events.EventTypeAssetDeactivated}, eventTypes(env))

	active, err := svc.FindAll(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.FindAll(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stored, err := svc.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	err = svc.Delete(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func eventTypes(env *testutils.Env) []events.EventType {
	var out []events.EventType
	for _, e := range env.Bus.Published() {
		out = append(out, e.Type())
	}
	return out
}
