// Package horizon reads pool and account state from a Horizon-compatible REST
// API and submits operation lists to a signing relay.
package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
)

const shareAssetType = "liquidity_pool_shares"

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	UserAgent    string
}

// Client wraps a resty client bound to one Horizon base URL.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewClient creates a reader for the given Horizon base URL. GETs are retried on
// transport errors, 429 and 5xx.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("horizon url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   newResty(opts).SetRetryCount(max(opts.MaxRetries, 0)).AddRetryCondition(retryable),
		logger: logger,
		now:    time.Now,
	}, nil
}

func newResty(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "lpctl"
	}
	return resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryWaitTime(opts.RetryBackoff).
		SetRetryMaxWaitTime(8*opts.RetryBackoff).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent)
}

func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Problem is a Horizon error document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Problem Problem
}

func (e *StatusError) Error() string {
	msg := e.Problem.Title
	if e.Problem.Detail != "" {
		msg += ": " + e.Problem.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var problem Problem
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&problem).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return &StatusError{Method: http.MethodGet, Path: path, Status: resp.StatusCode(), Problem: problem}
	}
	c.logger.Debug("horizon response", zap.String("path", path), zap.Int("status", resp.StatusCode()), zap.Duration("took", resp.Time()))
	return nil
}

type reserveDoc struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type poolDoc struct {
	ID          string       `json:"id"`
	FeeBP       int          `json:"fee_bp"`
	Type        string       `json:"type"`
	TotalShares string       `json:"total_shares"`
	Reserves    []reserveDoc `json:"reserves"`
}

// FetchPoolReserves reads GET /liquidity_pools/{id}.
func (c *Client) FetchPoolReserves(ctx context.Context, id model.PoolID) (model.PoolReserves, error) {
	var doc poolDoc
	if err := c.get(ctx, "/liquidity_pools/"+id.String(), &doc); err != nil {
		return model.PoolReserves{}, err
	}
	return doc.reserves(id, c.now().UTC())
}

func (d poolDoc) reserves(id model.PoolID, fetchedAt time.Time) (model.PoolReserves, error) {
	if d.ID != "" {
		got, err := model.ParsePoolID(d.ID)
		if err != nil {
			return model.PoolReserves{}, fmt.Errorf("pool document: %w", err)
		}
		if got != id {
			return model.PoolReserves{}, fmt.Errorf("pool document is for %s, want %s", got, id)
		}
	}
	if len(d.Reserves) != 2 {
		return model.PoolReserves{}, fmt.Errorf("pool %s: expected 2 reserves, got %d", id, len(d.Reserves))
	}

	out := model.PoolReserves{PoolID: id, FetchedAt: fetchedAt}
	var err error
	if out.AssetA, out.ReserveA, err = parseReserve(d.Reserves[0]); err != nil {
		return model.PoolReserves{}, fmt.Errorf("pool %s reserve a: %w", id, err)
	}
	if out.AssetB, out.ReserveB, err = parseReserve(d.Reserves[1]); err != nil {
		return model.PoolReserves{}, fmt.Errorf("pool %s reserve b: %w", id, err)
	}
	if out.TotalShares, err = parseAmount(d.TotalShares); err != nil {
		return model.PoolReserves{}, fmt.Errorf("pool %s total shares: %w", id, err)
	}
	return out, nil
}

func parseReserve(r reserveDoc) (model.AssetRef, decimal.Decimal, error) {
	asset, err := model.ParseAsset(r.Asset)
	if err != nil {
		return model.AssetRef{}, decimal.Decimal{}, err
	}
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return model.AssetRef{}, decimal.Decimal{}, err
	}
	return asset, amount, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %q", s)
	}
	return d, nil
}

type balanceDoc struct {
	AssetType       string `json:"asset_type"`
	LiquidityPoolID string `json:"liquidity_pool_id"`
	Balance         string `json:"balance"`
}

type accountDoc struct {
	ID       string       `json:"id"`
	Balances []balanceDoc `json:"balances"`
}

// FetchPosition reads GET /accounts/{account} and picks the share balance of the
// pool. An account without that trustline yields an untrusted zero position.
func (c *Client) FetchPosition(ctx context.Context, account string, id model.PoolID) (model.UserPosition, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return model.UserPosition{}, errors.New("account is required")
	}
	var doc accountDoc
	if err := c.get(ctx, "/accounts/"+account, &doc); err != nil {
		return model.UserPosition{}, err
	}

	pos := model.UserPosition{PoolID: id, Account: account, ShareBalance: decimal.Zero}
	for _, b := range doc.Balances {
		if b.AssetType != shareAssetType {
			continue
		}
		got, err := model.ParsePoolID(b.LiquidityPoolID)
		if err != nil || got != id {
			continue
		}
		balance, err := parseAmount(b.Balance)
		if err != nil {
			return model.UserPosition{}, fmt.Errorf("account %s share balance: %w", account, err)
		}
		pos.ShareBalance = balance
		pos.Trusted = true
		break
	}
	return pos, nil
}
