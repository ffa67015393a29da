package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuote_OpenDiffersFromLast(t *testing.T) {
	raw := []byte(`{"symbol": "VND=X", "last": 25390, "open": 25350, "timestamp": 1769644800}`)

	n := &Quote{spread: decimal.NewFromFloat(0.0001)}
	cands, report, err := n.Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if report.Ticks != 2 {
		t.Errorf("report.Ticks = %d, want 2", report.Ticks)
	}

	tradeTime := time.Unix(1769644800, 0).UTC()
	open, last := cands[0], cands[1]

	if !open.Time.Equal(tradeTime.Add(-time.Hour)) {
		t.Errorf("open tick time = %s, want %s", open.Time, tradeTime.Add(-time.Hour))
	}
	if !open.Mid.Equal(decimal.NewFromInt(25350)) {
		t.Errorf("open tick mid = %s, want 25350", open.Mid)
	}
	if !last.Time.Equal(tradeTime) {
		t.Errorf("last tick time = %s, want %s", last.Time, tradeTime)
	}
	if !last.Mid.Equal(decimal.NewFromInt(25390)) {
		t.Errorf("last tick mid = %s, want 25390", last.Mid)
	}
}

func TestQuote_OpenEqualsLast(t *testing.T) {
	raw := []byte(`{"symbol": "VND=X", "last": 25390, "open": 25390, "timestamp": 1769644800}`)

	n := &Quote{spread: decimal.NewFromFloat(0.0001)}
	cands, _, err := n.Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
}

func TestQuote_CloseFallbackAndCaptureTime(t *testing.T) {
	capturedAt := time.Date(2026, 1, 29, 2, 30, 0, 0, time.UTC)
	raw := []byte(`{"symbol": "EURUSD=X", "close": 1.0845}`)

	n := &Quote{spread: decimal.NewFromFloat(0.0001)}
	cands, _, err := n.Normalize(raw, capturedAt)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if !cands[0].Time.Equal(capturedAt) {
		t.Errorf("tick time = %s, want capture time %s", cands[0].Time, capturedAt)
	}
}

func TestQuote_NoUsablePriceIsBatchFatal(t *testing.T) {
	raw := []byte(`{"symbol": "VND=X", "timestamp": 1769644800}`)

	n := &Quote{spread: decimal.NewFromFloat(0.0001)}
	_, _, err := n.Normalize(raw, time.Now())
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestForFormat_UnknownFormat(t *testing.T) {
	if _, err := ForFormat("csv", Options{}); err == nil {
		t.Error("want error for unknown format")
	}
}
