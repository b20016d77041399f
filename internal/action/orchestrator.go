// Package action turns a user confirmation into an ordered, atomic ledger
// submission and tracks it to a terminal state.
package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/observability"
	"liquidityDesk/internal/poolsync"
	"liquidityDesk/internal/quote"
	"liquidityDesk/internal/slippage"
)

// ErrSuperseded is returned when an action was discarded or replaced by a newer
// one for the same pool. A response that arrives afterwards is ignored.
var ErrSuperseded = errors.New("action superseded")

// AccountReader fetches an account's share position in a pool. An account
// without a trustline to the share asset yields a zero, untrusted position.
type AccountReader interface {
	FetchPosition(ctx context.Context, account string, id model.PoolID) (model.UserPosition, error)
}

// ReservesSource provides the latest known reserves of a pool.
// *poolsync.Subscription satisfies it.
type ReservesSource interface {
	Latest() (model.PoolReserves, bool)
}

// refresher is implemented by sources that can be asked to re-fetch.
type refresher interface {
	Refresh()
}

// Config tunes the orchestrator.
type Config struct {
	// Tolerance guards withdrawal minimums. Unset means slippage.DefaultTolerance;
	// a set zero disables the guard.
	Tolerance decimal.NullDecimal
	Refresh   RetryPolicy
}

// Request is a user confirmation.
type Request struct {
	Kind    Kind
	PoolID  model.PoolID
	Account string
	Signer  Signer
	// Reserves supplies the snapshot the quote is built from. When nil or still
	// empty, the pool is read directly once.
	Reserves ReservesSource

	Deposit     quote.DepositInput
	BurnPercent decimal.Decimal
	// Tolerance overrides Config.Tolerance for this action.
	Tolerance decimal.NullDecimal
}

// Orchestrator builds and submits position actions. At most one action per pool
// is current; starting a new one supersedes the previous.
type Orchestrator struct {
	cfg       Config
	pools     poolsync.PoolReader
	accounts  AccountReader
	submitter Submitter
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	current map[model.PoolID]uuid.UUID
	closed  bool
}

// NewOrchestrator wires an Orchestrator to its collaborators.
func NewOrchestrator(cfg Config, pools poolsync.PoolReader, accounts AccountReader, submitter Submitter, logger *zap.Logger, metrics *observability.Metrics) *Orchestrator {
	if !cfg.Tolerance.Valid {
		cfg.Tolerance = decimal.NewNullDecimal(slippage.DefaultTolerance)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Orchestrator{
		cfg:       cfg,
		pools:     pools,
		accounts:  accounts,
		submitter: submitter,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		current:   make(map[model.PoolID]uuid.UUID),
	}
}

// Confirm prepares and submits an action. The returned action is non-nil
// whenever the request was well formed, including on failure.
func (o *Orchestrator) Confirm(ctx context.Context, req Request) (*PendingAction, error) {
	a, err := o.Prepare(ctx, req)
	if err != nil {
		return a, err
	}
	return a, o.Submit(ctx, a)
}

// Prepare builds the quote and operation list from the latest reserves and moves
// the action to building. Nothing is submitted. Local validation failures leave
// the action failed.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*PendingAction, error) {
	if !req.Kind.valid() {
		return nil, fmt.Errorf("unknown action kind %q", req.Kind)
	}
	if req.PoolID.IsZero() {
		return nil, errors.New("pool id is required")
	}
	if req.Account == "" {
		return nil, errors.New("account is required")
	}
	if req.Signer == nil {
		req.Signer = AccountSigner(req.Account)
	}

	now := o.now().UTC()
	a := &PendingAction{
		ID:        uuid.New(),
		Kind:      req.Kind,
		PoolID:    req.PoolID,
		Account:   req.Account,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
		signer:    req.Signer,
		source:    req.Reserves,
	}
	if err := o.register(a); err != nil {
		return nil, err
	}
	o.advance(a, StatusBuilding)

	logger := o.logger.With(zap.Stringer("action", a.ID), zap.String("kind", string(a.Kind)), zap.String("pool", a.PoolID.String()))

	reserves, err := o.latestReserves(ctx, req)
	if err != nil {
		return a, o.fail(a, logger, lperr.Wrap(lperr.KindTransient, "fetch pool reserves", err))
	}
	a.Reserves = reserves

	position, err := o.accounts.FetchPosition(ctx, req.Account, req.PoolID)
	if err != nil {
		return a, o.fail(a, logger, lperr.Wrap(lperr.KindTransient, "fetch position", err))
	}
	if position.PoolID.IsZero() {
		position.PoolID = req.PoolID
	}

	tolerance := o.cfg.Tolerance.Decimal
	if req.Tolerance.Valid {
		tolerance = req.Tolerance.Decimal
	}
	if err := slippage.ValidateTolerance(tolerance); err != nil {
		return a, o.fail(a, logger, err)
	}

	ops, err := o.build(a, req, reserves, position, tolerance)
	if err != nil {
		return a, o.fail(a, logger, err)
	}
	if !position.Trusted {
		ops = append([]Operation{ChangeTrust{
			Asset:  reserves.ShareAsset(),
			AssetA: reserves.AssetA,
			AssetB: reserves.AssetB,
		}}, ops...)
	}
	a.Operations = ops

	logger.Info("action prepared", zap.Int("operations", len(ops)), zap.Bool("trustline", !position.Trusted))
	return a, nil
}

// build quotes the action and returns its operations, excluding any trustline.
func (o *Orchestrator) build(a *PendingAction, req Request, reserves model.PoolReserves, position model.UserPosition, tolerance decimal.Decimal) ([]Operation, error) {
	switch a.Kind {
	case KindDeposit:
		q, err := quote.BuildDeposit(reserves, req.Deposit)
		if err != nil {
			return nil, err
		}
		a.Quote.Deposit = &q
		return []Operation{depositOp(a.PoolID, q)}, nil

	case KindWithdraw:
		q, err := quote.BuildWithdraw(reserves, position, req.BurnPercent)
		if err != nil {
			return nil, err
		}
		q, err = q.WithTolerance(tolerance)
		if err != nil {
			return nil, err
		}
		a.Quote.Withdraw = &q
		return []Operation{withdrawOp(a.PoolID, q)}, nil

	case KindClaim:
		q, err := quote.BuildClaim(reserves, position)
		if err != nil {
			return nil, err
		}
		a.Quote.Claim = &q
		return []Operation{withdrawOp(a.PoolID, q.Withdraw), depositOp(a.PoolID, q.Deposit)}, nil
	}
	return nil, fmt.Errorf("unknown action kind %q", a.Kind)
}

func depositOp(id model.PoolID, q quote.Deposit) Deposit {
	return Deposit{
		PoolID:     id,
		MaxAmountA: q.AmountA,
		MaxAmountB: q.AmountB,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
	}
}

func withdrawOp(id model.PoolID, q quote.Withdraw) Withdraw {
	return Withdraw{
		PoolID:     id,
		Amount:     q.SharesToBurn,
		MinAmountA: q.MinAmountA,
		MinAmountB: q.MinAmountB,
	}
}

// Submit sends a prepared action as one transaction and waits for the outcome.
// If the action was superseded while in flight, the outcome is discarded and
// ErrSuperseded is returned.
func (o *Orchestrator) Submit(ctx context.Context, a *PendingAction) error {
	if a == nil || a.Status != StatusBuilding {
		return errors.New("action is not ready for submission")
	}
	logger := o.logger.With(zap.Stringer("action", a.ID), zap.String("kind", string(a.Kind)), zap.String("pool", a.PoolID.String()))

	if !o.isCurrent(a) {
		o.metrics.ActionsSuperseded.Inc()
		logger.Info("action superseded before submission")
		return ErrSuperseded
	}
	o.advance(a, StatusSubmitted)

	start := time.Now()
	result, err := o.submitter.Submit(ctx, a.Operations, a.signer)
	o.metrics.SubmitDuration.WithLabelValues(string(a.Kind)).Observe(time.Since(start).Seconds())

	if !o.isCurrent(a) {
		o.metrics.ActionsSuperseded.Inc()
		logger.Info("ignoring submission response for superseded action", zap.Bool("failed", err != nil))
		return ErrSuperseded
	}
	if err != nil {
		return o.fail(a, logger, classify(err))
	}

	a.Hash = result.Hash
	o.advance(a, StatusSucceeded)
	o.release(a)
	logger.Info("action succeeded", zap.String("hash", result.Hash), zap.Int64("ledger", result.Ledger))

	o.refresh(ctx, a, logger)
	return nil
}

// refresh re-reads the position and the pool after a successful submission.
// Failures are logged; they do not fail the action.
func (o *Orchestrator) refresh(ctx context.Context, a *PendingAction, logger *zap.Logger) {
	var position model.UserPosition
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.cfg.Refresh.do(gctx, logger, "refresh position", func(ctx context.Context) error {
			p, err := o.accounts.FetchPosition(ctx, a.Account, a.PoolID)
			if err != nil {
				return err
			}
			position = p
			return nil
		})
	})
	if r, ok := a.source.(refresher); ok {
		g.Go(func() error {
			r.Refresh()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("post-confirmation refresh failed", zap.Error(lperr.Wrap(lperr.KindTransient, "refresh position", err)))
		return
	}
	a.Position = &position
}

// Discard drops the current action for its pool. A response that arrives for it
// later is ignored. Unknown ids are a no-op.
func (o *Orchestrator) Discard(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for pool, cur := range o.current {
		if cur == id {
			delete(o.current, pool)
			return
		}
	}
}

// Close discards every in-flight action. Further Prepare calls fail.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	clear(o.current)
}

func (o *Orchestrator) register(a *PendingAction) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return errors.New("orchestrator closed")
	}
	if prev, ok := o.current[a.PoolID]; ok {
		o.logger.Debug("superseding action", zap.Stringer("previous", prev), zap.Stringer("action", a.ID))
	}
	o.current[a.PoolID] = a.ID
	return nil
}

func (o *Orchestrator) isCurrent(a *PendingAction) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.closed && o.current[a.PoolID] == a.ID
}

func (o *Orchestrator) release(a *PendingAction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current[a.PoolID] == a.ID {
		delete(o.current, a.PoolID)
	}
}

func (o *Orchestrator) latestReserves(ctx context.Context, req Request) (model.PoolReserves, error) {
	if req.Reserves != nil {
		if r, ok := req.Reserves.Latest(); ok {
			return r, nil
		}
	}
	r, err := o.pools.FetchPoolReserves(ctx, req.PoolID)
	if err != nil {
		return model.PoolReserves{}, err
	}
	r.PoolID = req.PoolID
	return r, nil
}

func (o *Orchestrator) advance(a *PendingAction, to Status) {
	if err := a.transition(to, o.now().UTC()); err != nil {
		// Transitions are driven only by this type; an invalid one is a bug.
		panic(err)
	}
	o.metrics.ActionTransitions.WithLabelValues(string(a.Kind), string(to)).Inc()
}

func (o *Orchestrator) fail(a *PendingAction, logger *zap.Logger, err error) error {
	kind := lperr.KindOf(err)
	a.ErrorKind = kind
	a.Err = err
	o.advance(a, StatusFailed)
	o.release(a)
	o.metrics.ActionErrors.WithLabelValues(string(a.Kind), string(kind)).Inc()

	if kind.Local() {
		logger.Info("action refused", zap.String("error_kind", string(kind)), zap.Error(err))
	} else {
		logger.Warn("action failed", zap.String("error_kind", string(kind)), zap.Error(err))
	}
	return err
}
