package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"liquidityDesk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_id       TEXT PRIMARY KEY,
	asset_a       TEXT NOT NULL,
	asset_b       TEXT NOT NULL,
	first_seen_at TIMESTAMPTZ NOT NULL,
	last_seen_at  TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool_id      TEXT NOT NULL REFERENCES pools (pool_id),
	fetched_at   TIMESTAMPTZ NOT NULL,
	reserve_a    NUMERIC NOT NULL,
	reserve_b    NUMERIC NOT NULL,
	total_shares NUMERIC NOT NULL,
	spot_price   NUMERIC,
	recorded_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_id, fetched_at)
);
`

// Store records pool observations in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshotBatch implements storage.Storage.
func (s *Store) PutSnapshotBatch(ctx context.Context, records []model.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.UpsertPools(ctx, records); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	if err := s.InsertSnapshots(ctx, records); err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	return nil
}

// UpsertPools inserts or refreshes one row per distinct pool in records.
func (s *Store) UpsertPools(ctx context.Context, records []model.SnapshotRecord) error {
	pools := lo.UniqBy(records, func(r model.SnapshotRecord) string { return r.PoolID })
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_id, asset_a, asset_b, first_seen_at, last_seen_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4::timestamptz, $4::timestamptz, now(), now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				asset_a = EXCLUDED.asset_a,
				asset_b = EXCLUDED.asset_b,
				first_seen_at = LEAST(pools.first_seen_at, EXCLUDED.first_seen_at),
				last_seen_at = GREATEST(pools.last_seen_at, EXCLUDED.last_seen_at),
				updated_at = now()
		`,
			p.PoolID,
			p.AssetA,
			p.AssetB,
			p.FetchedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshots appends snapshot rows. A snapshot already stored for the same
// pool and fetch time is left untouched.
func (s *Store) InsertSnapshots(ctx context.Context, records []model.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		var spot any
		if r.SpotPrice != "" {
			spot = r.SpotPrice
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_id, fetched_at, reserve_a, reserve_b, total_shares, spot_price, recorded_at
			) VALUES ($1, $2::timestamptz, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::timestamptz)
			ON CONFLICT (pool_id, fetched_at) DO NOTHING
		`,
			r.PoolID,
			r.FetchedAt,
			r.ReserveA,
			r.ReserveB,
			r.TotalShares,
			spot,
			r.RecordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// CountSnapshots returns the number of stored snapshots of a pool.
func (s *Store) CountSnapshots(ctx context.Context, poolID string) (int64, error) {
	var n int64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM pool_snapshots WHERE pool_id=$1`, poolID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
