package treasury

import (
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RiskMetricsFor scores assets.
//
// Diversification is 100 minus half the summed deviation of each asset's
// share of the total from an even split. Allocation risk is
// allocated/balance. Liquidity is available/allocated.
func RiskMetricsFor(assets []*asset.Asset) RiskMetrics {
	total, allocated := decimal.Zero, decimal.Zero
	for _, a := range assets {
		total = total.Add(a.Balance.Decimal())
		allocated = allocated.Add(a.AllocatedBalance.Decimal())
	}

	var m RiskMetrics
	if n := len(assets); n > 0 && !total.IsZero() {
		ideal := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(int64(n)), 18)
		deviation := decimal.Zero
		for _, a := range assets {
			share := a.Balance.Decimal().DivRound(total, 18)
			deviation = deviation.Add(share.Sub(ideal).Abs())
		}
		normalized := deviation.Div(decimal.NewFromInt(2))
		m.DiversificationScore = int(decimal.NewFromInt(1).Sub(normalized).Mul(hundred).Round(0).IntPart())
	}

	if !total.IsZero() {
		m.AllocationRiskScore = int(allocated.DivRound(total, 18).Mul(hundred).Round(0).IntPart())
	}

	liquidity := hundred
	if !allocated.IsZero() {
		liquidity = total.Sub(allocated).DivRound(allocated, 18).Mul(hundred)
	}
	m.LiquidityRatio = liquidity.InexactFloat64()

	switch {
	case m.DiversificationScore < 30 || m.AllocationRiskScore > 85 || liquidity.LessThan(decimal.NewFromInt(20)):
		m.RiskAssessment = RiskHigh
	case m.DiversificationScore < 50 || m.AllocationRiskScore > 70 || liquidity.LessThan(decimal.NewFromInt(50)):
		m.RiskAssessment = RiskMedium
	default:
		m.RiskAssessment = RiskLow
	}
	return m
}
