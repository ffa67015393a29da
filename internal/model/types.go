package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Dimension Types
// -----------------------------------------------------------------------------

// Source represents a quote provider. Rows are created lazily on first
// normalization referencing the provider name and are never deleted.
type Source struct {
	ID       int32  // Serial primary key
	Name     string // Unique provider name (e.g., "vietcombank")
	Priority int    // Reserved for future weighting; unused by ingestion
}

// CurrencyPair represents an ordered base/quote currency combination.
// Symbol is the concatenation of base and quote and is the natural
// de-duplication key. Rows are never updated once created.
type CurrencyPair struct {
	ID     int32  // Serial primary key
	Symbol string // Unique, = Base + Quote (e.g., "USDVND")
	Base   string // ISO-like 3-letter base currency
	Quote  string // ISO-like 3-letter quote currency
}

// PairSymbol builds the unique symbol for a base/quote combination.
func PairSymbol(base, quote string) string {
	return base + quote
}

// -----------------------------------------------------------------------------
// Fact Types
// -----------------------------------------------------------------------------

// Tick is one canonical bid/mid/ask/volume observation for a currency
// pair from one source at one instant. (Time, PairID, SourceID) is the
// primary key: at most one tick may exist for a given instant, pair,
// and provider.
type Tick struct {
	Time     time.Time
	PairID   int32
	SourceID int32
	Bid      decimal.Decimal
	Mid      decimal.Decimal
	Ask      decimal.Decimal
	Volume   *decimal.Decimal // nil when the source reports no volume
}

// Candidate is a normalizer output that has not been resolved to
// dimension IDs yet.
type Candidate struct {
	Base   string
	Quote  string
	Time   time.Time
	Bid    decimal.Decimal
	Mid    decimal.Decimal
	Ask    decimal.Decimal
	Volume *decimal.Decimal
}
