package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBars_MidFallbackChain(t *testing.T) {
	// Sample 0: close wins. Sample 1: no close, open wins.
	// Sample 2: only high/low, midpoint wins. Sample 3: nothing, skipped.
	raw := []byte(`{
		"symbol": "VND=X",
		"timestamp": [1769644800, 1769731200, 1769817600, 1769904000],
		"open":   [25300, 25310, null, null],
		"high":   [25400, 25420, 25440, null],
		"low":    [25200, 25210, 25220, null],
		"close":  [25380, null, null, null],
		"volume": [1000, null, 3000, null]
	}`)

	n := &Bars{spread: decimal.NewFromFloat(0.0001)}
	cands, report, err := n.Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3", len(cands))
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}

	if want := decimal.NewFromInt(25380); !cands[0].Mid.Equal(want) {
		t.Errorf("sample 0 mid = %s, want close %s", cands[0].Mid, want)
	}
	if want := decimal.NewFromInt(25310); !cands[1].Mid.Equal(want) {
		t.Errorf("sample 1 mid = %s, want open %s", cands[1].Mid, want)
	}
	if want := decimal.NewFromInt(25330); !cands[2].Mid.Equal(want) {
		t.Errorf("sample 2 mid = %s, want (high+low)/2 = %s", cands[2].Mid, want)
	}

	if cands[0].Volume == nil || !cands[0].Volume.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sample 0 volume = %v, want 1000", cands[0].Volume)
	}
	if cands[1].Volume != nil {
		t.Errorf("sample 1 volume = %s, want nil", cands[1].Volume)
	}

	for i, c := range cands {
		if c.Base != "USD" || c.Quote != "VND" {
			t.Errorf("sample %d pair = %s/%s, want USD/VND", i, c.Base, c.Quote)
		}
	}
}

func TestBars_ShortParallelArraysReadAsAbsent(t *testing.T) {
	raw := []byte(`{
		"symbol": "EURUSD=X",
		"timestamp": [1769644800, 1769731200],
		"close": [1.0845]
	}`)

	n := &Bars{spread: decimal.NewFromFloat(0.0001)}
	cands, report, err := n.Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(cands) != 1 || report.Skipped != 1 {
		t.Fatalf("got %d candidates / %d skipped, want 1 / 1", len(cands), report.Skipped)
	}
	if cands[0].Base != "EUR" || cands[0].Quote != "USD" {
		t.Errorf("pair = %s/%s, want EUR/USD", cands[0].Base, cands[0].Quote)
	}
}

func TestBars_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bad symbol length", raw: `{"symbol": "EURUS=X", "timestamp": [1], "close": [1.0]}`},
		{name: "no timestamps", raw: `{"symbol": "VND=X", "close": [25380]}`},
		{name: "all samples empty", raw: `{"symbol": "VND=X", "timestamp": [1, 2]}`},
	}

	n := &Bars{spread: decimal.NewFromFloat(0.0001)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := n.Normalize([]byte(tt.raw), time.Now())
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("err = %v, want ErrMalformedPayload", err)
			}
		})
	}
}
