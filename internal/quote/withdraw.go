package quote

import (
	"github.com/shopspring/decimal"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/slippage"
)

var hundred = decimal.NewFromInt(100)

// Withdraw is a pro-rata withdrawal quote. MinAmountA/B stay zero until a
// tolerance is applied.
type Withdraw struct {
	Percent      decimal.Decimal `json:"percent"`
	SharesToBurn decimal.Decimal `json:"shares_to_burn"`
	EstimatedA   decimal.Decimal `json:"estimated_a"`
	EstimatedB   decimal.Decimal `json:"estimated_b"`
	MinAmountA   decimal.Decimal `json:"min_amount_a"`
	MinAmountB   decimal.Decimal `json:"min_amount_b"`
}

// BuildWithdraw redeems burnPercent of the position's shares against the reserves.
func BuildWithdraw(reserves model.PoolReserves, position model.UserPosition, burnPercent decimal.Decimal) (Withdraw, error) {
	if !burnPercent.IsPositive() || burnPercent.GreaterThan(hundred) {
		return Withdraw{}, lperr.New(lperr.KindInvalidAmount, "quote withdraw", "percent %s must be in (0, 100]", burnPercent)
	}
	if err := checkSnapshot(reserves, position); err != nil {
		return Withdraw{}, err
	}

	shares := position.ShareBalance.Mul(burnPercent).Div(hundred).Truncate(slippage.Precision)
	if !shares.IsPositive() {
		return Withdraw{}, lperr.New(lperr.KindInvalidAmount, "quote withdraw", "no shares to burn")
	}

	estA, estB := redeem(reserves, shares)
	return Withdraw{
		Percent:      burnPercent,
		SharesToBurn: shares,
		EstimatedA:   estA,
		EstimatedB:   estB,
		MinAmountA:   decimal.Zero,
		MinAmountB:   decimal.Zero,
	}, nil
}

// WithTolerance returns a copy with minimum outputs guarded by the tolerance.
func (w Withdraw) WithTolerance(tolerance decimal.Decimal) (Withdraw, error) {
	minA, err := slippage.ApplyTolerance(w.EstimatedA, tolerance)
	if err != nil {
		return Withdraw{}, err
	}
	minB, err := slippage.ApplyTolerance(w.EstimatedB, tolerance)
	if err != nil {
		return Withdraw{}, err
	}
	w.MinAmountA = minA
	w.MinAmountB = minB
	return w, nil
}

// redeem returns the share of both reserves that shares entitle the holder to.
func redeem(reserves model.PoolReserves, shares decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	estA := shares.Mul(reserves.ReserveA).Div(reserves.TotalShares).Truncate(slippage.Precision)
	estB := shares.Mul(reserves.ReserveB).Div(reserves.TotalShares).Truncate(slippage.Precision)
	return estA, estB
}

func checkSnapshot(reserves model.PoolReserves, position model.UserPosition) error {
	if !reserves.TotalShares.IsPositive() {
		return lperr.New(lperr.KindEmptyPool, "quote withdraw", "pool %s has no shares", reserves.PoolID)
	}
	if !position.PoolID.IsZero() && position.PoolID != reserves.PoolID {
		return lperr.New(lperr.KindInconsistentSnapshot, "quote withdraw", "position pool %s does not match reserves pool %s", position.PoolID, reserves.PoolID)
	}
	if position.ShareBalance.IsNegative() {
		return lperr.New(lperr.KindInconsistentSnapshot, "quote withdraw", "negative share balance %s", position.ShareBalance)
	}
	if position.ShareBalance.GreaterThan(reserves.TotalShares) {
		return lperr.New(lperr.KindInconsistentSnapshot, "quote withdraw", "share balance %s exceeds pool total %s", position.ShareBalance, reserves.TotalShares)
	}
	return nil
}
