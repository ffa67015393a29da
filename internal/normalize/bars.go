package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

// Bars normalizes a historical OHLCV chart shaped as parallel arrays.
// Mid is close, falling back to open, falling back to (high+low)/2; a
// sample is dropped only when all four prices are absent.
type Bars struct {
	spread decimal.Decimal
}

type barsPayload struct {
	Symbol     string     `json:"symbol"`
	Timestamps []int64    `json:"timestamp"` // seconds since epoch
	Open       []*float64 `json:"open"`
	High       []*float64 `json:"high"`
	Low        []*float64 `json:"low"`
	Close      []*float64 `json:"close"`
	Volume     []*float64 `json:"volume"`
}

func (n *Bars) Normalize(raw []byte, capturedAt time.Time) ([]model.Candidate, Report, error) {
	var p barsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Report{}, fmt.Errorf("%w: decode bars: %v", ErrMalformedPayload, err)
	}

	base, quote, err := model.DecodePairSymbol(p.Symbol)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(p.Timestamps) == 0 {
		return nil, Report{}, fmt.Errorf("%w: bars have no timestamps", ErrMalformedPayload)
	}

	var (
		cands  []model.Candidate
		report Report
	)
	for i, ts := range p.Timestamps {
		mid, ok := barMid(at(p.Close, i), at(p.Open, i), at(p.High, i), at(p.Low, i))
		if !ok {
			report.Skipped++
			continue
		}

		bid, ask := model.SynthesizeSpread(mid, n.spread)
		c := model.Candidate{
			Base:  base,
			Quote: quote,
			Time:  time.Unix(ts, 0).UTC(),
			Bid:   bid,
			Mid:   mid,
			Ask:   ask,
		}
		if v := at(p.Volume, i); v != nil {
			c.Volume = decimalPtr(decimal.NewFromFloat(*v))
		}
		cands = append(cands, c)
	}

	if len(cands) == 0 {
		return nil, report, fmt.Errorf("%w: bars have no usable samples", ErrMalformedPayload)
	}

	report.Ticks = len(cands)
	return cands, report, nil
}

// barMid picks the mid for one sample: close, then open, then the
// high/low midpoint. ok=false only when all four are absent.
func barMid(close, open, high, low *float64) (decimal.Decimal, bool) {
	switch {
	case close != nil:
		return decimal.NewFromFloat(*close), true
	case open != nil:
		return decimal.NewFromFloat(*open), true
	case high != nil && low != nil:
		h := decimal.NewFromFloat(*high)
		l := decimal.NewFromFloat(*low)
		return model.MidFromBidAsk(l, h), true
	case high != nil:
		return decimal.NewFromFloat(*high), true
	case low != nil:
		return decimal.NewFromFloat(*low), true
	default:
		return decimal.Decimal{}, false
	}
}

// at indexes a parallel array defensively: short arrays read as absent.
func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
