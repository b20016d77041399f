package action

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"

	"liquidityDesk/internal/lperr"
)

var underfundedMarkers = []string{"underfunded", "unfunded", "insufficient_balance"}

// classify maps a submitter failure onto the error taxonomy. It runs once per
// action, at the orchestrator boundary.
func classify(err error) *lperr.Error {
	var classified *lperr.Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return lperr.Wrap(lperr.KindTransient, "submit", err)
	}

	var codes []string
	msg := err.Error()
	var subErr *SubmitError
	if errors.As(err, &subErr) {
		codes = subErr.ResultCodes
		if subErr.Message != "" {
			msg = subErr.Message
		}
	}

	underfunded := lo.SomeBy(codes, func(code string) bool {
		code = strings.ToLower(code)
		return lo.SomeBy(underfundedMarkers, func(marker string) bool {
			return strings.Contains(code, marker)
		})
	})

	kind := lperr.KindSubmissionRejected
	if underfunded {
		kind = lperr.KindInsufficientBalance
	}
	return &lperr.Error{Kind: kind, Op: "submit", Msg: msg, Codes: codes, Err: err}
}
