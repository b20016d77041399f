package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"liquidityDesk/internal/action"
)

// RelaySubmitter posts operation lists to a relay that signs them as one
// transaction and submits it. Submissions are never retried: a timeout may
// still have been applied.
type RelaySubmitter struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewRelaySubmitter creates a submitter for the relay base URL.
func NewRelaySubmitter(opts Options, logger *zap.Logger) (*RelaySubmitter, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("relay url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelaySubmitter{http: newResty(opts), logger: logger}, nil
}

type submitRequest struct {
	SourceAccount string             `json:"source_account"`
	Operations    []action.Operation `json:"operations"`
}

type submitResponse struct {
	Hash   string `json:"hash"`
	Ledger int64  `json:"ledger"`
}

// Submit implements action.Submitter.
func (s *RelaySubmitter) Submit(ctx context.Context, ops []action.Operation, signer action.Signer) (action.SubmitResult, error) {
	if len(ops) == 0 {
		return action.SubmitResult{}, errors.New("no operations to submit")
	}
	if signer == nil || signer.Address() == "" {
		return action.SubmitResult{}, errors.New("signer is required")
	}

	var (
		result  submitResponse
		problem Problem
	)
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(submitRequest{SourceAccount: signer.Address(), Operations: ops}).
		SetResult(&result).
		SetError(&problem).
		Post("/submit")
	if err != nil {
		return action.SubmitResult{}, fmt.Errorf("POST /submit: %w", err)
	}
	if resp.IsError() {
		return action.SubmitResult{}, problemError(resp.StatusCode(), problem)
	}
	if result.Hash == "" {
		return action.SubmitResult{}, errors.New("relay response has no transaction hash")
	}

	s.logger.Debug("relay accepted submission",
		zap.String("hash", result.Hash),
		zap.Int("operations", len(ops)),
		zap.Duration("took", resp.Time()),
	)
	return action.SubmitResult{Hash: result.Hash, Ledger: result.Ledger}, nil
}

func problemError(status int, p Problem) *action.SubmitError {
	var codes []string
	if tx := p.Extras.ResultCodes.Transaction; tx != "" {
		codes = append(codes, tx)
	}
	codes = append(codes, p.Extras.ResultCodes.Operations...)

	msg := p.Title
	if p.Detail != "" {
		if msg != "" {
			msg += ": "
		}
		msg += p.Detail
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &action.SubmitError{Status: status, Message: msg, ResultCodes: codes}
}
