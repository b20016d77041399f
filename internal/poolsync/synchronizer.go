// Package poolsync keeps a local snapshot of one pool's reserves fresh while a
// consumer is interested in it.
package poolsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/observability"
)

// DefaultInterval is the poll period used when none is given.
const DefaultInterval = 5 * time.Second

// PoolReader fetches the authoritative state of a pool.
type PoolReader interface {
	FetchPoolReserves(ctx context.Context, id model.PoolID) (model.PoolReserves, error)
}

// Synchronizer starts polling subscriptions against a PoolReader.
type Synchronizer struct {
	reader  PoolReader
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewSynchronizer builds a Synchronizer with its dependencies.
func NewSynchronizer(reader PoolReader, logger *zap.Logger, metrics *observability.Metrics) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Synchronizer{
		reader:  reader,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Start fetches a snapshot immediately and then every interval until the
// subscription is stopped or ctx is cancelled.
func (s *Synchronizer) Start(ctx context.Context, poolID model.PoolID, interval time.Duration) *Subscription {
	if interval <= 0 {
		interval = DefaultInterval
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		poolID:   poolID,
		interval: interval,
		reader:   s.reader,
		logger:   s.logger.With(zap.String("pool", poolID.String())),
		metrics:  s.metrics,
		now:      s.now,
		ctx:      subCtx,
		cancel:   cancel,
		updates:  make(chan model.PoolReserves, 1),
		refresh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	s.metrics.ActiveSubscriptions.Inc()
	sub.logger.Debug("polling start", zap.Duration("interval", interval))
	go sub.run()
	return sub
}

// Stop ends the subscription. It is equivalent to sub.Stop().
func (s *Synchronizer) Stop(sub *Subscription) {
	if sub != nil {
		sub.Stop()
	}
}

// Subscription is the handle of one polling loop. Snapshots are published by
// atomic replacement; readers never observe a partially updated value.
type Subscription struct {
	poolID   model.PoolID
	interval time.Duration
	reader   PoolReader
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	latest   atomic.Pointer[model.PoolReserves]
	inFlight atomic.Bool

	mu      sync.Mutex
	stopped bool
	updates chan model.PoolReserves
	refresh chan struct{}
	done    chan struct{}
}

// PoolID returns the polled pool.
func (s *Subscription) PoolID() model.PoolID {
	return s.poolID
}

// Latest returns the most recently published snapshot.
func (s *Subscription) Latest() (model.PoolReserves, bool) {
	r := s.latest.Load()
	if r == nil {
		return model.PoolReserves{}, false
	}
	return *r, true
}

// Snapshots delivers published snapshots. An undelivered snapshot is replaced by a
// newer one, so slow readers only ever see the latest. Closed on stop.
func (s *Subscription) Snapshots() <-chan model.PoolReserves {
	return s.updates
}

// Done is closed once the polling loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Refresh requests an out-of-band fetch. It is skipped like a tick if a fetch is
// already in flight.
func (s *Subscription) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Stop halts polling. No snapshot is published once Stop has been called, even
// when a fetch started earlier resolves afterwards. Safe to call more than once.
func (s *Subscription) Stop() {
	s.shutdown()
	s.cancel()
	<-s.done
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.updates)
	s.metrics.ActiveSubscriptions.Dec()
	s.logger.Debug("polling stop")
}

func (s *Subscription) run() {
	defer close(s.done)
	defer s.shutdown()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		case <-s.refresh:
			s.tick()
		}
	}
}

// tick starts a fetch unless one is already in flight.
func (s *Subscription) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.PollSkipped.WithLabelValues(s.poolID.String()).Inc()
		s.logger.Debug("poll tick skipped, fetch in flight")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		s.fetch()
	}()
}

func (s *Subscription) fetch() {
	pool := s.poolID.String()
	s.metrics.PollFetches.WithLabelValues(pool).Inc()

	start := time.Now()
	reserves, err := s.reader.FetchPoolReserves(s.ctx, s.poolID)
	s.metrics.PollDuration.Observe(time.Since(start).Seconds())

	if err == nil && !reserves.PoolID.IsZero() && reserves.PoolID != s.poolID {
		err = fmt.Errorf("reader returned pool %s", reserves.PoolID)
	}
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.metrics.PollFailures.WithLabelValues(pool).Inc()
		s.logger.Warn("pool fetch failed, keeping previous snapshot", zap.Error(lperr.Wrap(lperr.KindTransient, "fetch pool reserves", err)))
		return
	}

	reserves.PoolID = s.poolID
	if reserves.FetchedAt.IsZero() {
		reserves.FetchedAt = s.now().UTC()
	}
	if s.publish(reserves) {
		s.logger.Debug("snapshot published",
			zap.String("reserve_a", reserves.ReserveA.String()),
			zap.String("reserve_b", reserves.ReserveB.String()),
			zap.String("total_shares", reserves.TotalShares.String()),
		)
	}
}

func (s *Subscription) publish(reserves model.PoolReserves) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug("snapshot dropped, subscription stopped")
		return false
	}

	s.latest.Store(&reserves)
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- reserves:
	default:
	}
	s.metrics.SnapshotsPublished.WithLabelValues(s.poolID.String()).Inc()
	return true
}
