package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// PoolID is the 32-byte identifier of a liquidity pool.
type PoolID common.Hash

// ParsePoolID parses a hex pool id, with or without a 0x prefix.
func ParsePoolID(input string) (PoolID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return PoolID{}, fmt.Errorf("pool id is required")
	}
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		input = "0x" + input
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return PoolID{}, fmt.Errorf("invalid pool id: %s", input)
	}
	if len(data) != common.HashLength {
		return PoolID{}, fmt.Errorf("invalid pool id length: %s", input)
	}
	return PoolID(common.BytesToHash(data)), nil
}

// String renders the id as lowercase hex without prefix, the form the ledger API uses.
func (p PoolID) String() string {
	return strings.TrimPrefix(common.Hash(p).Hex(), "0x")
}

// IsZero reports whether the id is unset.
func (p PoolID) IsZero() bool {
	return p == PoolID{}
}

func (p PoolID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PoolID) UnmarshalText(text []byte) error {
	parsed, err := ParsePoolID(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PoolReserves is one snapshot of a pool's on-chain state. Snapshots are replaced
// whole and never mutated after publication.
type PoolReserves struct {
	PoolID      PoolID          `json:"pool_id"`
	AssetA      AssetRef        `json:"asset_a"`
	AssetB      AssetRef        `json:"asset_b"`
	ReserveA    decimal.Decimal `json:"reserve_a"`
	ReserveB    decimal.Decimal `json:"reserve_b"`
	TotalShares decimal.Decimal `json:"total_shares"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

// Empty reports whether either reserve is zero.
func (r PoolReserves) Empty() bool {
	return !r.ReserveA.IsPositive() || !r.ReserveB.IsPositive()
}

// SpotPrice returns reserveB per unit of reserveA, or false for an empty pool.
func (r PoolReserves) SpotPrice() (decimal.Decimal, bool) {
	if r.Empty() {
		return decimal.Zero, false
	}
	return r.ReserveB.Div(r.ReserveA), true
}

// ShareAsset is the pool-share asset an account must trust before holding shares.
func (r PoolReserves) ShareAsset() AssetRef {
	return PoolShareAsset(r.PoolID)
}
