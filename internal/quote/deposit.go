// Package quote computes balanced deposits and pro-rata withdrawals from pool reserves.
// Every builder is a pure function of its inputs.
package quote

import (
	"strings"

	"github.com/shopspring/decimal"

	"liquidityDesk/internal/fraction"
	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/slippage"
)

// DepositPrecision is the fractional precision of a proposed complementary amount.
const DepositPrecision = 6

// DepositInput is what the user entered for a deposit.
type DepositInput struct {
	AmountA string
	// AmountB is only used when the pool is empty and no ratio can be inferred.
	AmountB string
	// LowPrice and HighPrice select a custom range; both empty means full range.
	LowPrice  string
	HighPrice string

	AvailableA decimal.NullDecimal
	AvailableB decimal.NullDecimal
}

func (in DepositInput) customRange() bool {
	return strings.TrimSpace(in.LowPrice) != "" || strings.TrimSpace(in.HighPrice) != ""
}

// Deposit is a two-sided deposit quote.
type Deposit struct {
	AmountA      decimal.Decimal     `json:"amount_a"`
	AmountB      decimal.Decimal     `json:"amount_b"`
	MinPrice     model.PriceFraction `json:"min_price"`
	MaxPrice     model.PriceFraction `json:"max_price"`
	FullRange    bool                `json:"full_range"`
	Proportional bool                `json:"proportional"`
}

// ProportionalAmountB returns amountA * reserveB / reserveA rounded to DepositPrecision.
// It reports false when the pool is empty or amountA is not positive.
func ProportionalAmountB(reserves model.PoolReserves, amountA decimal.Decimal) (decimal.Decimal, bool) {
	if reserves.Empty() || !amountA.IsPositive() {
		return decimal.Decimal{}, false
	}
	return amountA.Mul(reserves.ReserveB).Div(reserves.ReserveA).Round(DepositPrecision), true
}

// BuildDeposit builds the deposit quote from the latest reserves.
func BuildDeposit(reserves model.PoolReserves, in DepositInput) (Deposit, error) {
	amountA, err := ParseAmount("amount a", in.AmountA)
	if err != nil {
		return Deposit{}, err
	}

	q := Deposit{AmountA: amountA}
	if amountB, ok := ProportionalAmountB(reserves, amountA); ok {
		if !amountB.IsPositive() {
			return Deposit{}, lperr.New(lperr.KindInvalidAmount, "quote deposit", "amount a %s is too small for the pool ratio", amountA)
		}
		q.AmountB = amountB
		q.Proportional = true
	} else {
		if strings.TrimSpace(in.AmountB) == "" {
			return Deposit{}, lperr.New(lperr.KindEmptyPool, "quote deposit", "pool has no reserves, amount b is required")
		}
		amountB, err := ParseAmount("amount b", in.AmountB)
		if err != nil {
			return Deposit{}, err
		}
		q.AmountB = amountB
	}

	if in.customRange() {
		q.MinPrice, q.MaxPrice, err = fraction.Range(in.LowPrice, in.HighPrice)
		if err != nil {
			return Deposit{}, err
		}
	} else {
		q.MinPrice, q.MaxPrice = fraction.FullRange()
		q.FullRange = true
	}

	if err := checkAvailable("amount a", q.AmountA, in.AvailableA); err != nil {
		return Deposit{}, err
	}
	if err := checkAvailable("amount b", q.AmountB, in.AvailableB); err != nil {
		return Deposit{}, err
	}
	return q, nil
}

// ParseAmount parses a positive ledger amount with at most 7 fractional digits.
func ParseAmount(name, input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return decimal.Zero, lperr.New(lperr.KindInvalidAmount, "parse amount", "%s is required", name)
	}
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, lperr.New(lperr.KindInvalidAmount, "parse amount", "%s %q is not a number", name, input)
	}
	if !amount.IsPositive() {
		return decimal.Zero, lperr.New(lperr.KindInvalidAmount, "parse amount", "%s must be positive", name)
	}
	if !amount.Equal(amount.Truncate(slippage.Precision)) {
		return decimal.Zero, lperr.New(lperr.KindInvalidAmount, "parse amount", "%s has more than %d fractional digits", name, slippage.Precision)
	}
	return amount, nil
}

func checkAvailable(name string, amount decimal.Decimal, available decimal.NullDecimal) error {
	if !available.Valid {
		return nil
	}
	if amount.GreaterThan(available.Decimal) {
		return lperr.New(lperr.KindInsufficientBalance, "quote deposit", "%s %s exceeds available %s", name, amount, available.Decimal)
	}
	return nil
}
