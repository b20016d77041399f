package action

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/quote"
)

// Kind is the type of position action.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindClaim    Kind = "claim"
)

func (k Kind) valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindClaim:
		return true
	}
	return false
}

// Status is the lifecycle state of a PendingAction.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusBuilding  Status = "building"
	StatusSubmitted Status = "submitted"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

var transitions = map[Status][]Status{
	StatusIdle:      {StatusBuilding},
	StatusBuilding:  {StatusSubmitted, StatusFailed},
	StatusSubmitted: {StatusSucceeded, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Quote is the quote an action was confirmed with. Exactly one field is set.
type Quote struct {
	Deposit  *quote.Deposit  `json:"deposit,omitempty"`
	Withdraw *quote.Withdraw `json:"withdraw,omitempty"`
	Claim    *quote.Claim    `json:"claim,omitempty"`
}

// PendingAction is one user confirmation and its lifecycle. It is owned by the
// Orchestrator until Confirm or Submit returns. Position holds the refreshed
// position after a successful submission.
type PendingAction struct {
	ID         uuid.UUID           `json:"id"`
	Kind       Kind                `json:"kind"`
	PoolID     model.PoolID        `json:"pool_id"`
	Account    string              `json:"account"`
	Status     Status              `json:"status"`
	Reserves   model.PoolReserves  `json:"reserves"`
	Quote      Quote               `json:"quote"`
	Operations []Operation         `json:"operations"`
	ErrorKind  lperr.Kind          `json:"error_kind,omitempty"`
	Err        error               `json:"-"`
	Hash       string              `json:"hash,omitempty"`
	Position   *model.UserPosition `json:"position,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	signer Signer
	source ReservesSource
}

func (a *PendingAction) transition(to Status, now time.Time) error {
	if !canTransition(a.Status, to) {
		return fmt.Errorf("action %s: invalid transition %s -> %s", a.ID, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}
