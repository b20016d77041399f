package fraction

import (
	"math/big"
	"testing"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
)

func TestToFraction(t *testing.T) {
	cases := []struct {
		in   string
		want model.PriceFraction
	}{
		{in: "1.05", want: model.PriceFraction{Numerator: 105, Denominator: 100}},
		{in: "5", want: model.PriceFraction{Numerator: 5, Denominator: 1}},
		{in: "0.5", want: model.PriceFraction{Numerator: 5, Denominator: 10}},
		{in: "0", want: model.PriceFraction{Numerator: 0, Denominator: 1}},
		{in: "007.250", want: model.PriceFraction{Numerator: 7250, Denominator: 1000}},
		{in: " 2.5 ", want: model.PriceFraction{Numerator: 25, Denominator: 10}},
	}

	for _, tc := range cases {
		got, err := ToFraction(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: fraction mismatch: %s != %s", tc.in, got, tc.want)
		}
	}
}

func TestToFractionInvalid(t *testing.T) {
	for _, in := range []string{"abc", "", ".5", "5.", "1.2.3", "-1", "1e5", "1,5"} {
		_, err := ToFraction(in)
		if err == nil {
			t.Fatalf("%q: expected error", in)
		}
		if lperr.KindOf(err) != lperr.KindInvalidPriceFormat {
			t.Fatalf("%q: kind mismatch: %s", in, lperr.KindOf(err))
		}
	}
}

func TestToFractionReducesWhenTooLarge(t *testing.T) {
	// 0.0000000005 = 5/10^10; the denominator overflows int32 until reduced to 1/2e9.
	got, err := ToFraction("0.0000000005")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (model.PriceFraction{Numerator: 1, Denominator: 2000000000}) {
		t.Fatalf("fraction mismatch: %s", got)
	}

	if _, err := ToFraction("0.00000000001"); lperr.KindOf(err) != lperr.KindInvalidPriceFormat {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if _, err := ToFraction("99999999999"); lperr.KindOf(err) != lperr.KindInvalidPriceFormat {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestToFractionPreservesRatio(t *testing.T) {
	for _, in := range []string{"1.05", "3.14159", "1234.5678", "0.0001"} {
		got, err := ToFraction(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got.Denominator <= 0 {
			t.Fatalf("%q: denominator must be positive", in)
		}
		want, ok := new(big.Rat).SetString(in)
		if !ok {
			t.Fatalf("%q: bad test input", in)
		}
		if got.Rat().Cmp(want) != 0 {
			t.Fatalf("%q: ratio mismatch: %s", in, got)
		}
	}
}

func TestFullRange(t *testing.T) {
	minPrice, maxPrice := FullRange()
	if minPrice != (model.PriceFraction{Numerator: 1, Denominator: MaxComponent}) {
		t.Fatalf("min mismatch: %s", minPrice)
	}
	if maxPrice != (model.PriceFraction{Numerator: MaxComponent, Denominator: 1}) {
		t.Fatalf("max mismatch: %s", maxPrice)
	}
}

func TestRange(t *testing.T) {
	low, high, err := Range("1.5", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low != (model.PriceFraction{Numerator: 15, Denominator: 10}) || high != (model.PriceFraction{Numerator: 2, Denominator: 1}) {
		t.Fatalf("range mismatch: %s %s", low, high)
	}
	if _, _, err := Range("3", "2"); lperr.KindOf(err) != lperr.KindInvalidPriceFormat {
		t.Fatalf("expected inverted range error, got %v", err)
	}
}
