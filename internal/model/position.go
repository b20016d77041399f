package model

import "github.com/shopspring/decimal"

// UserPosition is one account's share holding in a pool.
type UserPosition struct {
	PoolID       PoolID          `json:"pool_id"`
	Account      string          `json:"account"`
	ShareBalance decimal.Decimal `json:"share_balance"`
	Trusted      bool            `json:"trusted"`
}
