package quote

import (
	"github.com/shopspring/decimal"

	"liquidityDesk/internal/fraction"
	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
)

// Claim is the fee-harvest round trip: withdraw every share, then re-deposit the
// principal the position is entitled to right now. Whatever the withdrawal pays out
// beyond the principal stays in the account as claimed fees.
type Claim struct {
	Withdraw Withdraw `json:"withdraw"`
	Deposit  Deposit  `json:"deposit"`
}

// BuildClaim quotes the round trip on the position's full share balance.
// The withdraw leg carries zero minimums; the paired deposit bounds the outcome.
func BuildClaim(reserves model.PoolReserves, position model.UserPosition) (Claim, error) {
	if !position.ShareBalance.IsPositive() {
		return Claim{}, lperr.New(lperr.KindEmptyPosition, "quote claim", "account holds no shares in pool %s", reserves.PoolID)
	}
	if err := checkSnapshot(reserves, position); err != nil {
		return Claim{}, err
	}

	shares := position.ShareBalance
	estA, estB := redeem(reserves, shares)
	if !estA.IsPositive() || !estB.IsPositive() {
		return Claim{}, lperr.New(lperr.KindEmptyPosition, "quote claim", "position principal rounds to zero")
	}

	minPrice, maxPrice := fraction.FullRange()
	return Claim{
		Withdraw: Withdraw{
			Percent:      hundred,
			SharesToBurn: shares,
			EstimatedA:   estA,
			EstimatedB:   estB,
			MinAmountA:   decimal.Zero,
			MinAmountB:   decimal.Zero,
		},
		Deposit: Deposit{
			AmountA:   estA,
			AmountB:   estB,
			MinPrice:  minPrice,
			MaxPrice:  maxPrice,
			FullRange: true,
		},
	}, nil
}

// ClaimedFees is what the round trip leaves in the free balance given the amounts
// the withdrawal actually paid out.
func (c Claim) ClaimedFees(withdrawnA, withdrawnB decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return withdrawnA.Sub(c.Deposit.AmountA), withdrawnB.Sub(c.Deposit.AmountB)
}
