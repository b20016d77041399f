package storage

import (
	"context"

	"liquidityDesk/internal/model"
)

// Storage is a sink for published pool snapshots.
type Storage interface {
	PutSnapshotBatch(ctx context.Context, records []model.SnapshotRecord) error
}
