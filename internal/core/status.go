package core

import "github.com/shopspring/decimal"

// Tier is the three-level presentation state of a budget.
type Tier string

const (
	TierOnTrack Tier = "on_track"
	TierWarning Tier = "warning"
	TierOver    Tier = "over"
)

// BudgetStatus is the derived view of spend vs. limit for one budget. It is
// computed on every read and never persisted.
type BudgetStatus struct {
	Budget     Budget
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage int
	Overspent  decimal.Decimal
	Tier       Tier
}

var hundred = decimal.NewFromInt(100)

// ComputeStatus derives remaining balance, consumed percentage, overspend
// and tier from aggregated spend against a budget limit.
//
// Percentage is floor(spent/amount*100) capped at 100 for display. A zero or
// negative limit yields percentage 0 rather than a division fault; the tier
// then resolves from remaining alone.
func ComputeStatus(b Budget, spent decimal.Decimal) BudgetStatus {
	remaining := b.Amount.Sub(spent)

	percentage := 0
	if b.Amount.IsPositive() {
		percentage = int(spent.Mul(hundred).Div(b.Amount).IntPart())
		if percentage > 100 {
			percentage = 100
		}
	}

	overspent := decimal.Zero
	tier := TierOnTrack
	switch {
	case remaining.IsNegative():
		overspent = remaining.Neg()
		tier = TierOver
	case percentage >= 75:
		tier = TierWarning
	}

	return BudgetStatus{
		Budget:     b,
		Spent:      spent,
		Remaining:  remaining,
		Percentage: percentage,
		Overspent:  overspent,
		Tier:       tier,
	}
}
