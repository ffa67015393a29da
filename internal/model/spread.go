package model

import "github.com/shopspring/decimal"

// DefaultSpread is the relative spread applied when a source supplies
// only a single mid rate. 0.0001 (one basis point) is an approximation,
// not a market truth: synthesized bid/ask must never be treated as
// tradable quotes.
var DefaultSpread = decimal.NewFromFloat(0.0001)

var two = decimal.NewFromInt(2)

// SynthesizeSpread derives bid and ask from a single mid rate using a
// fixed relative spread k:
//
//	bid = mid - mid*k/2
//	ask = mid + mid*k/2
//
// For any k > 0 the result satisfies bid < mid < ask strictly.
func SynthesizeSpread(mid, k decimal.Decimal) (bid, ask decimal.Decimal) {
	half := mid.Mul(k).Div(two)
	return mid.Sub(half), mid.Add(half)
}

// MidFromBidAsk returns the arithmetic mid between bid and ask. Used
// when a source supplies buy/sell quotes but no explicit transfer/mid
// rate.
func MidFromBidAsk(bid, ask decimal.Decimal) decimal.Decimal {
	return bid.Add(ask).Div(two)
}
