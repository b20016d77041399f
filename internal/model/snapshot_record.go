package model

import "time"

// SnapshotRecord is the normalized representation of a published pool snapshot for storage.
type SnapshotRecord struct {
	PoolID      string `json:"pool_id"`
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	ReserveA    string `json:"reserve_a"`
	ReserveB    string `json:"reserve_b"`
	TotalShares string `json:"total_shares"`
	SpotPrice   string `json:"spot_price,omitempty"`
	FetchedAt   string `json:"fetched_at"`
	RecordedAt  string `json:"recorded_at"`
}

// NewSnapshotRecord flattens a snapshot into its storage form.
func NewSnapshotRecord(r PoolReserves, recordedAt time.Time) SnapshotRecord {
	rec := SnapshotRecord{
		PoolID:      r.PoolID.String(),
		AssetA:      r.AssetA.String(),
		AssetB:      r.AssetB.String(),
		ReserveA:    r.ReserveA.String(),
		ReserveB:    r.ReserveB.String(),
		TotalShares: r.TotalShares.String(),
		FetchedAt:   r.FetchedAt.UTC().Format(time.RFC3339Nano),
		RecordedAt:  recordedAt.UTC().Format(time.RFC3339Nano),
	}
	if price, ok := r.SpotPrice(); ok {
		rec.SpotPrice = price.StringFixed(7)
	}
	return rec
}
