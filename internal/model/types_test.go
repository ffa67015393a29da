package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSynthesizeSpread_StrictOrdering(t *testing.T) {
	mids := []string{"25380", "1.0845", "0.5", "143.27"}

	for _, m := range mids {
		mid := decimal.RequireFromString(m)
		bid, ask := SynthesizeSpread(mid, DefaultSpread)

		if !bid.LessThan(mid) {
			t.Errorf("mid=%s: bid %s not strictly below mid", m, bid)
		}
		if !ask.GreaterThan(mid) {
			t.Errorf("mid=%s: ask %s not strictly above mid", m, ask)
		}
	}
}

func TestSynthesizeSpread_Width(t *testing.T) {
	mid := decimal.NewFromInt(20000)
	bid, ask := SynthesizeSpread(mid, DefaultSpread)

	// One basis point of 20000 is 2, split evenly around the mid.
	if want := decimal.NewFromInt(19999); !bid.Equal(want) {
		t.Errorf("bid = %s, want %s", bid, want)
	}
	if want := decimal.NewFromInt(20001); !ask.Equal(want) {
		t.Errorf("ask = %s, want %s", ask, want)
	}
}

func TestMidFromBidAsk(t *testing.T) {
	bid := decimal.NewFromInt(25350)
	ask := decimal.NewFromInt(25410)

	if got, want := MidFromBidAsk(bid, ask), decimal.NewFromInt(25380); !got.Equal(want) {
		t.Errorf("MidFromBidAsk = %s, want %s", got, want)
	}
}

func TestDecodePairSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		base    string
		quote   string
		wantErr bool
	}{
		{symbol: "VND=X", base: "USD", quote: "VND"},
		{symbol: "EURUSD=X", base: "EUR", quote: "USD"},
		{symbol: "JPY=X", base: "USD", quote: "JPY"},
		{symbol: "GBPVND=X", base: "GBP", quote: "VND"},
		{symbol: "eurusd=X", base: "EUR", quote: "USD"},
		{symbol: "VN=X", wantErr: true},
		{symbol: "EURUS=X", wantErr: true},
		{symbol: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			base, quote, err := DecodePairSymbol(tt.symbol)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodePairSymbol(%q) = (%s, %s), want error", tt.symbol, base, quote)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePairSymbol(%q) error: %v", tt.symbol, err)
			}
			if base != tt.base || quote != tt.quote {
				t.Errorf("DecodePairSymbol(%q) = (%s, %s), want (%s, %s)", tt.symbol, base, quote, tt.base, tt.quote)
			}
		})
	}
}

func TestPairSymbol(t *testing.T) {
	if got := PairSymbol("USD", "VND"); got != "USDVND" {
		t.Errorf("PairSymbol = %q, want USDVND", got)
	}
}
