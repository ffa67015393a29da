package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

func tick(ts time.Time, pairID int32, ask int64) model.Tick {
	return model.Tick{
		Time:     ts,
		PairID:   pairID,
		SourceID: 1,
		Bid:      decimal.NewFromInt(ask - 60),
		Mid:      decimal.NewFromInt(ask - 30),
		Ask:      decimal.NewFromInt(ask),
	}
}

func TestDedupe_LaterElementWins(t *testing.T) {
	ts := time.Date(2026, 1, 29, 9, 25, 44, 0, time.UTC)

	rows, deduped := dedupe([]model.Tick{
		tick(ts, 1, 25410),
		tick(ts, 1, 25420),
	})

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if deduped != 1 {
		t.Errorf("deduped = %d, want 1", deduped)
	}
	if !rows[0].Ask.Equal(decimal.NewFromInt(25420)) {
		t.Errorf("surviving ask = %s, want the later 25420", rows[0].Ask)
	}
}

func TestDedupe_DistinctKeysUntouched(t *testing.T) {
	ts := time.Date(2026, 1, 29, 9, 25, 44, 0, time.UTC)

	rows, deduped := dedupe([]model.Tick{
		tick(ts, 1, 25410),
		tick(ts, 2, 26000),
		tick(ts.Add(time.Minute), 1, 25430),
	})

	if len(rows) != 3 || deduped != 0 {
		t.Fatalf("got %d rows / %d deduped, want 3 / 0", len(rows), deduped)
	}
}

func TestDedupe_PreservesFirstSeenOrder(t *testing.T) {
	ts := time.Date(2026, 1, 29, 9, 25, 44, 0, time.UTC)

	rows, _ := dedupe([]model.Tick{
		tick(ts, 1, 25410),
		tick(ts, 2, 26000),
		tick(ts, 1, 25420),
	})

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].PairID != 1 || rows[1].PairID != 2 {
		t.Errorf("order = [%d, %d], want [1, 2]", rows[0].PairID, rows[1].PairID)
	}
	if !rows[0].Ask.Equal(decimal.NewFromInt(25420)) {
		t.Errorf("pair 1 ask = %s, want 25420", rows[0].Ask)
	}
}

func TestChunks(t *testing.T) {
	ts := time.Now()
	rows := make([]model.Tick, 0, 2500)
	for i := 0; i < 2500; i++ {
		rows = append(rows, tick(ts.Add(time.Duration(i)*time.Second), 1, 25410))
	}

	got := chunks(rows, 1000)
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	if len(got[0]) != 1000 || len(got[1]) != 1000 || len(got[2]) != 500 {
		t.Errorf("chunk sizes = %d/%d/%d, want 1000/1000/500", len(got[0]), len(got[1]), len(got[2]))
	}

	total := 0
	for _, c := range got {
		total += len(c)
	}
	if total != 2500 {
		t.Errorf("chunks cover %d rows, want 2500", total)
	}
}

func TestChunks_Empty(t *testing.T) {
	if got := chunks(nil, 1000); got != nil {
		t.Errorf("chunks(nil) = %v, want nil", got)
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	inner := &PersistenceError{Op: "commit", Err: errSentinel}
	if inner.Unwrap() != errSentinel {
		t.Error("Unwrap did not return the wrapped error")
	}
}

var errSentinel = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
