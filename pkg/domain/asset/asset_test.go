package asset_test

import (
	"testing"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAsset(t *testing.T, balance, allocated string) *asset.Asset {
	t.Helper()
	a, err := asset.New().
		WithName("Ether").
		WithSymbol("ETH").
		WithBalance(money.MustParse(balance), money.MustParse(allocated)).
		Build()
	require.NoError(t, err)
	return a
}

func TestBuild(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := newAsset(t, "0", "0")
		assert.True(t, a.IsActive)
		assert.Equal(t, asset.DefaultDecimals, a.Decimals)
		assert.Equal(t, asset.TypeCryptocurrency, a.Type)
		assert.Nil(t, a.ContractAddress)
	})

	tests := []struct {
		name    string
		builder *asset.Builder
	}{
		{"missing name", asset.New().WithSymbol("ETH")},
		{"missing symbol", asset.New().WithName("Ether")},
		{"blank symbol", asset.New().WithName("Ether").WithSymbol("   ")},
		{"bad type", asset.New().WithName("Ether").WithSymbol("ETH").WithType("stock")},
		{"bad decimals", asset.New().WithName("Ether").WithSymbol("ETH").WithDecimals(30)},
		{"allocated above balance", asset.New().WithName("Ether").WithSymbol("ETH").
			WithBalance(money.FromInt(1), money.FromInt(2))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAdjustAllocated(t *testing.T) {
	a := newAsset(t, "100", "0")

	require.NoError(t, a.AdjustAllocated(money.FromInt(40)))
	assert.Equal(t, "40", a.AllocatedBalance.String())
	assert.Equal(t, "60", a.Available().String())

	err := a.AdjustAllocated(money.FromInt(61))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Allocated amount cannot exceed total balance", err.Error())

	err = a.AdjustAllocated(money.FromInt(-41))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "40", a.AllocatedBalance.String())

	require.NoError(t, a.AdjustAllocated(money.FromInt(-40)))
	assert.True(t, a.AllocatedBalance.IsZero())
}

func TestSetBalance(t *testing.T) {
	a := newAsset(t, "100", "30")

	require.ErrorIs(t, a.SetBalance(money.FromInt(-1)), domain.ErrValidation)
	require.ErrorIs(t, a.SetBalance(money.FromInt(29)), domain.ErrValidation)
	require.NoError(t, a.SetBalance(money.FromInt(30)))
	assert.Equal(t, "30", a.Balance.String())
}

func TestApplyTransfer(t *testing.T) {
	a := newAsset(t, "100", "30")

	require.NoError(t, a.ApplyTransfer(money.FromInt(50)))
	assert.Equal(t, "150", a.Balance.String())

	err := a.ApplyTransfer(money.FromInt(-200))
	require.ErrorIs(t, err, domain.ErrBusinessLogic)
	assert.Equal(t, "Withdrawal would result in negative balance", err.Error())

	require.ErrorIs(t, a.ApplyTransfer(money.FromInt(-121)), domain.ErrBusinessLogic)
	require.NoError(t, a.ApplyTransfer(money.FromInt(-120)))
	assert.Equal(t, "30", a.Balance.String())
}

func TestDeactivate(t *testing.T) {
	a := newAsset(t, "1", "0")
	a.Deactivate()
	assert.False(t, a.IsActive)
}
