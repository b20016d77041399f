package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"liquidityDesk/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.jsonl")
	s := NewJsonlStorage(path)

	first := []model.SnapshotRecord{
		{PoolID: "aa", ReserveA: "1000", ReserveB: "2000", TotalShares: "100", SpotPrice: "2.0000000"},
		{PoolID: "aa", ReserveA: "1001", ReserveB: "1998", TotalShares: "100"},
	}
	if err := s.PutSnapshotBatch(context.Background(), first); err != nil {
		t.Fatalf("put first batch: %v", err)
	}
	if err := s.PutSnapshotBatch(context.Background(), []model.SnapshotRecord{{PoolID: "bb"}}); err != nil {
		t.Fatalf("put second batch: %v", err)
	}
	if err := s.PutSnapshotBatch(context.Background(), nil); err != nil {
		t.Fatalf("put empty batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var got []model.SnapshotRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.SnapshotRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		got = append(got, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0] != first[0] || got[1] != first[1] {
		t.Fatalf("unexpected records: %+v", got[:2])
	}
	if got[2].PoolID != "bb" {
		t.Fatalf("unexpected last record: %+v", got[2])
	}
}

func TestJsonlStorageHonorsCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewJsonlStorage(path).PutSnapshotBatch(ctx, []model.SnapshotRecord{{PoolID: "aa"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no file, stat err %v", statErr)
	}
}
