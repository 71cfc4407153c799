package treasury

import (
	"testing"

	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/stretchr/testify/assert"
)

func holding(balance, allocated int64) *asset.Asset {
	return &asset.Asset{Balance: money.FromInt(balance), AllocatedBalance: money.FromInt(allocated)}
}

func TestRiskMetricsFor(t *testing.T) {
	tests := []struct {
		name      string
		assets    []*asset.Asset
		div, risk int
		liquidity float64
		band      RiskBand
	}{
		{
			name:      "empty treasury",
			liquidity: 100,
			band:      RiskHigh,
		},
		{
			name:      "even split, nothing allocated",
			assets:    []*asset.Asset{holding(50, 0), holding(50, 0)},
			div:       100,
			liquidity: 100,
			band:      RiskLow,
		},
		{
			name:      "skewed split",
			assets:    []*asset.Asset{holding(90, 0), holding(10, 0)},
			div:       60,
			liquidity: 100,
			band:      RiskLow,
		},
		{
			name:      "concentrated",
			assets:    []*asset.Asset{holding(100, 0), holding(0, 0), holding(0, 0), holding(0, 0)},
			div:       25,
			liquidity: 100,
			band:      RiskHigh,
		},
		{
			name:      "heavily allocated",
			assets:    []*asset.Asset{holding(100, 60), holding(100, 60)},
			div:       100,
			risk:      60,
			liquidity: 66.666666666666666667,
			band:      RiskLow,
		},
		{
			name:      "medium by liquidity",
			assets:    []*asset.Asset{holding(100, 70), holding(100, 70)},
			div:       100,
			risk:      70,
			liquidity: 42.857142857142857143,
			band:      RiskMedium,
		},
		{
			name:      "high by allocation",
			assets:    []*asset.Asset{holding(100, 90)},
			div:       100,
			risk:      90,
			liquidity: 11.111111111111111111,
			band:      RiskHigh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := RiskMetricsFor(tt.assets)
			assert.Equal(t, tt.div, m.DiversificationScore)
			assert.Equal(t, tt.risk, m.AllocationRiskScore)
			assert.InDelta(t, tt.liquidity, m.LiquidityRatio, 1e-9)
			assert.Equal(t, tt.band, m.RiskAssessment)
		})
	}
}
