// Package fraction converts human-entered decimal prices into the exact rational
// bounds the ledger accepts for liquidity deposits.
package fraction

import (
	"math"
	"math/big"
	"regexp"
	"strings"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
)

// MaxComponent is the largest numerator or denominator the ledger encodes.
const MaxComponent = math.MaxInt32

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ToFraction converts "digits" or "digits.digits" into numerator/denominator.
// The ratio is returned as written (1.05 -> 105/100) and only reduced when it would
// not otherwise fit the ledger's 32-bit encoding.
func ToFraction(input string) (model.PriceFraction, error) {
	input = strings.TrimSpace(input)
	if !decimalPattern.MatchString(input) {
		return model.PriceFraction{}, lperr.New(lperr.KindInvalidPriceFormat, "to fraction", "%q is not a decimal price", input)
	}

	intPart, fracPart, _ := strings.Cut(input, ".")

	d := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(fracPart))), nil)
	n, _ := new(big.Int).SetString(intPart+fracPart, 10)

	if fits(n, d) {
		return model.PriceFraction{Numerator: n.Int64(), Denominator: d.Int64()}, nil
	}

	g := new(big.Int).GCD(nil, nil, n, d)
	if g.Sign() > 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	if !fits(n, d) {
		return model.PriceFraction{}, lperr.New(lperr.KindInvalidPriceFormat, "to fraction", "%q is out of the encodable price range", input)
	}
	return model.PriceFraction{Numerator: n.Int64(), Denominator: d.Int64()}, nil
}

// FullRange returns sentinel bounds that impose no meaningful price constraint.
func FullRange() (minPrice, maxPrice model.PriceFraction) {
	return model.PriceFraction{Numerator: 1, Denominator: MaxComponent},
		model.PriceFraction{Numerator: MaxComponent, Denominator: 1}
}

// Range converts a low/high price pair, requiring low <= high.
func Range(low, high string) (minPrice, maxPrice model.PriceFraction, err error) {
	minPrice, err = ToFraction(low)
	if err != nil {
		return model.PriceFraction{}, model.PriceFraction{}, err
	}
	maxPrice, err = ToFraction(high)
	if err != nil {
		return model.PriceFraction{}, model.PriceFraction{}, err
	}
	if minPrice.Cmp(maxPrice) > 0 {
		return model.PriceFraction{}, model.PriceFraction{}, lperr.New(lperr.KindInvalidPriceFormat, "price range", "low %s is above high %s", low, high)
	}
	return minPrice, maxPrice, nil
}

func fits(n, d *big.Int) bool {
	limit := big.NewInt(MaxComponent)
	return n.Cmp(limit) <= 0 && d.Cmp(limit) <= 0
}
