package sizing

import "github.com/rvenkat/swing-trader/internal/config"

// Dollars maps model confidence and available cash to a target allocation.
// Tiers are evaluated high to low and do not overlap; below the lowest tier
// the allocation is zero.
func Dollars(confidence, cash float64, tiers []config.SizingTier) float64 {
	for _, t := range tiers {
		if confidence >= t.MinConfidence {
			return cash * t.CashFraction
		}
	}
	return 0
}

// Quantity is a whole-share sizing outcome. A zero-share quantity with zero
// price means the instrument could not be sized and must not be bought.
type Quantity struct {
	Shares  int
	Price   float64
	Dollars float64
}

func (q Quantity) Actionable() bool {
	return q.Shares >= 1
}

// Shares converts a dollar allocation to whole shares at the latest trade
// price. An unavailable price (zero or negative) fails safe: zero shares,
// never an error and never a placeholder quantity.
func Shares(dollars, price float64) Quantity {
	if price <= 0 {
		return Quantity{Shares: 0, Price: 0, Dollars: dollars}
	}
	n := int(dollars / price)
	if n < 0 {
		n = 0
	}
	return Quantity{Shares: n, Price: price, Dollars: dollars}
}
