package action

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"liquidityDesk/internal/model"
)

// OperationType names a ledger operation.
type OperationType string

const (
	OpChangeTrust OperationType = "change_trust"
	OpDeposit     OperationType = "liquidity_pool_deposit"
	OpWithdraw    OperationType = "liquidity_pool_withdraw"
)

// Operation is one entry of an ordered submission.
type Operation interface {
	Type() OperationType
}

// ChangeTrust establishes a trustline to a pool's share asset.
type ChangeTrust struct {
	Asset  model.AssetRef `json:"asset"`
	AssetA model.AssetRef `json:"asset_a"`
	AssetB model.AssetRef `json:"asset_b"`
}

// Deposit adds liquidity within a price range.
type Deposit struct {
	PoolID     model.PoolID        `json:"liquidity_pool_id"`
	MaxAmountA decimal.Decimal     `json:"max_amount_a"`
	MaxAmountB decimal.Decimal     `json:"max_amount_b"`
	MinPrice   model.PriceFraction `json:"min_price"`
	MaxPrice   model.PriceFraction `json:"max_price"`
}

// Withdraw burns shares for at least the given amounts.
type Withdraw struct {
	PoolID     model.PoolID    `json:"liquidity_pool_id"`
	Amount     decimal.Decimal `json:"amount"`
	MinAmountA decimal.Decimal `json:"min_amount_a"`
	MinAmountB decimal.Decimal `json:"min_amount_b"`
}

func (ChangeTrust) Type() OperationType { return OpChangeTrust }
func (Deposit) Type() OperationType     { return OpDeposit }
func (Withdraw) Type() OperationType    { return OpWithdraw }

// envelope is the wire form of an operation: its type next to its parameters.
type envelope struct {
	Type   OperationType `json:"type"`
	Params any           `json:"params"`
}

func (op ChangeTrust) MarshalJSON() ([]byte, error) {
	type params ChangeTrust
	return json.Marshal(envelope{Type: op.Type(), Params: params(op)})
}

func (op Deposit) MarshalJSON() ([]byte, error) {
	type params Deposit
	return json.Marshal(envelope{Type: op.Type(), Params: params(op)})
}

func (op Withdraw) MarshalJSON() ([]byte, error) {
	type params Withdraw
	return json.Marshal(envelope{Type: op.Type(), Params: params(op)})
}

// Signer authorizes a submission. Signing itself happens outside this module.
type Signer interface {
	Address() string
}

// AccountSigner is a Signer identified by account address only.
type AccountSigner string

func (s AccountSigner) Address() string { return string(s) }

// SubmitResult is a confirmed submission.
type SubmitResult struct {
	Hash   string `json:"hash"`
	Ledger int64  `json:"ledger,omitempty"`
}

// Submitter submits an ordered operation list as one atomic transaction: either
// every operation applies or none does.
type Submitter interface {
	Submit(ctx context.Context, ops []Operation, signer Signer) (SubmitResult, error)
}

// SubmitError is a rejection reported by a Submitter.
type SubmitError struct {
	Status      int
	Message     string
	ResultCodes []string
}

func (e *SubmitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "submission rejected"
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if len(e.ResultCodes) > 0 {
		msg += ": " + strings.Join(e.ResultCodes, ", ")
	}
	return msg
}
