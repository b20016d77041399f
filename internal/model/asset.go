package model

import (
	"fmt"
	"strings"
)

const (
	nativeCode    = "native"
	poolShareCode = "pool_share"
)

// AssetRef identifies an asset on the ledger.
type AssetRef struct {
	Code   string `json:"code"`
	Issuer string `json:"issuer,omitempty"`
}

// NativeAsset returns the ledger's native asset.
func NativeAsset() AssetRef {
	return AssetRef{Code: nativeCode}
}

// PoolShareAsset returns the share asset of a pool. Its issuer slot holds the pool id.
func PoolShareAsset(id PoolID) AssetRef {
	return AssetRef{Code: poolShareCode, Issuer: id.String()}
}

// ParseAsset parses "native" or "CODE:ISSUER".
func ParseAsset(input string) (AssetRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return AssetRef{}, fmt.Errorf("asset is required")
	}
	if strings.EqualFold(input, nativeCode) {
		return NativeAsset(), nil
	}
	parts := strings.SplitN(input, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AssetRef{}, fmt.Errorf("invalid asset: %s", input)
	}
	if len(parts[0]) > 12 {
		return AssetRef{}, fmt.Errorf("asset code too long: %s", parts[0])
	}
	return AssetRef{Code: parts[0], Issuer: parts[1]}, nil
}

func (a AssetRef) IsNative() bool {
	return a.Code == nativeCode && a.Issuer == ""
}

func (a AssetRef) IsPoolShare() bool {
	return a.Code == poolShareCode
}

func (a AssetRef) String() string {
	if a.IsNative() {
		return nativeCode
	}
	return a.Code + ":" + a.Issuer
}
