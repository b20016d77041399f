package slippage

import (
	"github.com/shopspring/decimal"

	"liquidityDesk/internal/lperr"
)

// Precision is the ledger's smallest amount step, in fractional digits.
const Precision = 7

// DefaultTolerance is applied to withdrawals when none is configured (0.5%).
var DefaultTolerance = decimal.RequireFromString("0.005")

// ApplyTolerance returns the minimum acceptable amount for an expected amount:
// amount * (1 - tolerance), floored to the ledger precision.
func ApplyTolerance(amount, tolerance decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateTolerance(tolerance); err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, lperr.New(lperr.KindInvalidAmount, "apply tolerance", "amount %s is negative", amount)
	}
	return amount.Mul(decimal.NewFromInt(1).Sub(tolerance)).RoundFloor(Precision), nil
}

// ValidateTolerance requires 0 <= tolerance < 1.
func ValidateTolerance(tolerance decimal.Decimal) error {
	if tolerance.IsNegative() || tolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return lperr.New(lperr.KindInvalidAmount, "apply tolerance", "tolerance %s must be in [0, 1)", tolerance)
	}
	return nil
}
