package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/observability"
	"liquidityDesk/internal/poolsync"
	"liquidityDesk/internal/storage"
	"liquidityDesk/internal/storage/postgres"
)

func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll pools and record the latest snapshot on each publish",
		RunE:  runWatch,
	}

	watchCmd.Flags().StringSlice("pool", nil, "liquidity pool ids (comma-separated)")
	watchCmd.Flags().Duration("interval", poolsync.DefaultInterval, "poll interval")
	watchCmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN; when set, snapshots go to Postgres instead of --out")
	watchCmd.Flags().String("metrics-addr", "", "address for the Prometheus /metrics endpoint, e.g. :9102")
	return watchCmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ids, err := cfg.PoolIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("at least one pool is required")
	}

	client, err := newHorizonClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sink, closeSink, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	syncer := poolsync.NewSynchronizer(client, logger.Named("poolsync"), metrics)

	logger.Info("watch start",
		zap.String("horizon", cfg.HorizonURL),
		zap.Int("pools", len(ids)),
		zap.Duration("interval", cfg.Interval),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, reg, logger) })
	}
	for _, id := range ids {
		id := id
		sub := syncer.Start(gctx, id, cfg.Interval)
		g.Go(func() error {
			defer syncer.Stop(sub)
			record(gctx, sub, sink, logger.With(zap.String("pool", id.String())))
			return nil
		})
	}

	err = g.Wait()
	logger.Info("watch stop")
	return err
}

// record writes the latest snapshot of sub to sink until the subscription
// stops. Snapshots published while a write is in progress are coalesced.
// Sink failures are logged and polling continues.
func record(ctx context.Context, sub *poolsync.Subscription, sink storage.Storage, logger *zap.Logger) {
	for reserves := range sub.Snapshots() {
		rec := model.NewSnapshotRecord(reserves, time.Now())
		if err := sink.PutSnapshotBatch(ctx, []model.SnapshotRecord{rec}); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("snapshot write failed", zap.Error(err))
			continue
		}
		logger.Debug("snapshot recorded", zap.String("fetched_at", rec.FetchedAt), zap.String("spot_price", rec.SpotPrice))
	}
}

func openSink(ctx context.Context, cfg config.Config) (storage.Storage, func(), error) {
	if cfg.PGDSN == "" {
		return storage.NewJsonlStorage(cfg.Out), func() {}, nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("metrics listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	return nil
}
