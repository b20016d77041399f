package model

import (
	"fmt"
	"math/big"
)

// PriceFraction is an exact rational price bound. Denominator is always positive.
type PriceFraction struct {
	Numerator   int64 `json:"n"`
	Denominator int64 `json:"d"`
}

func (p PriceFraction) String() string {
	return fmt.Sprintf("%d/%d", p.Numerator, p.Denominator)
}

// Rat returns the exact value.
func (p PriceFraction) Rat() *big.Rat {
	if p.Denominator == 0 {
		return new(big.Rat)
	}
	return big.NewRat(p.Numerator, p.Denominator)
}

// Cmp compares two fractions by value.
func (p PriceFraction) Cmp(other PriceFraction) int {
	return p.Rat().Cmp(other.Rat())
}

// Reduce returns the fraction in lowest terms.
func (p PriceFraction) Reduce() PriceFraction {
	if p.Denominator == 0 {
		return p
	}
	n := big.NewInt(p.Numerator)
	d := big.NewInt(p.Denominator)
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	if g.Sign() == 0 || g.Cmp(big.NewInt(1)) == 0 {
		return p
	}
	return PriceFraction{
		Numerator:   new(big.Int).Quo(n, g).Int64(),
		Denominator: new(big.Int).Quo(d, g).Int64(),
	}
}

// Float is for display only.
func (p PriceFraction) Float() float64 {
	f, _ := p.Rat().Float64()
	return f
}
