package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const testPoolHex = "dd7b1ab831c273310ddbec6f97870aa83c2fbd78ce22aded37ecbf4f3380fac7"

func TestParsePoolID(t *testing.T) {
	withPrefix, err := ParsePoolID("0x" + strings.ToUpper(testPoolHex))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bare, err := ParsePoolID(testPoolHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withPrefix != bare {
		t.Fatalf("prefix handling mismatch")
	}
	if bare.String() != testPoolHex {
		t.Fatalf("string mismatch: %s", bare.String())
	}
}

func TestParsePoolIDInvalid(t *testing.T) {
	for _, input := range []string{"", "zz", "abcd", testPoolHex + "00"} {
		if _, err := ParsePoolID(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestSnapshotRecordJSON(t *testing.T) {
	id, err := ParsePoolID(testPoolHex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reserves := PoolReserves{
		PoolID:      id,
		AssetA:      NativeAsset(),
		AssetB:      AssetRef{Code: "USDC", Issuer: "GISSUER"},
		ReserveA:    decimal.RequireFromString("1000"),
		ReserveB:    decimal.RequireFromString("2000"),
		TotalShares: decimal.RequireFromString("1414.2135623"),
		FetchedAt:   time.Unix(1700000000, 0),
	}

	rec := NewSnapshotRecord(reserves, time.Unix(1700000001, 0))
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["pool_id"] != testPoolHex {
		t.Fatalf("pool id mismatch: %v", decoded["pool_id"])
	}
	if decoded["asset_b"] != "USDC:GISSUER" {
		t.Fatalf("asset mismatch: %v", decoded["asset_b"])
	}
	if decoded["spot_price"] != "2.0000000" {
		t.Fatalf("spot price mismatch: %v", decoded["spot_price"])
	}
}

func TestPoolIDTextRoundTrip(t *testing.T) {
	var out struct {
		Pool PoolID `json:"pool"`
	}
	if err := json.Unmarshal([]byte(`{"pool":"`+testPoolHex+`"}`), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Pool.String() != testPoolHex {
		t.Fatalf("pool mismatch: %s", out.Pool)
	}
}

func TestParseAsset(t *testing.T) {
	native, err := ParseAsset("native")
	if err != nil || !native.IsNative() {
		t.Fatalf("native parse failed: %v", err)
	}
	usdc, err := ParseAsset("USDC:GISSUER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usdc.Code != "USDC" || usdc.Issuer != "GISSUER" {
		t.Fatalf("asset mismatch: %+v", usdc)
	}
	if _, err := ParseAsset("USDC"); err == nil {
		t.Fatalf("expected error for missing issuer")
	}
}

func TestPriceFractionReduce(t *testing.T) {
	p := PriceFraction{Numerator: 105, Denominator: 100}
	got := p.Reduce()
	if got != (PriceFraction{Numerator: 21, Denominator: 20}) {
		t.Fatalf("reduce mismatch: %s", got)
	}
	if p.Cmp(got) != 0 {
		t.Fatalf("reduce changed value")
	}
	zero := PriceFraction{Numerator: 0, Denominator: 100}.Reduce()
	if zero != (PriceFraction{Numerator: 0, Denominator: 1}) {
		t.Fatalf("zero reduce mismatch: %s", zero)
	}
}
