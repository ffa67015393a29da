package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

// syntheticOpenOffset backdates the synthesized "open" tick relative to
// the last trade. The offset is a structural approximation of intraday
// behavior, not a verified timestamp.
const syntheticOpenOffset = time.Hour

// Quote normalizes a single last-trade snapshot into at most two ticks:
// the last trade at its reported time and, when the session open
// differs from it, one synthetic earlier tick. A snapshot with no
// usable price is an unrecoverable per-batch error.
type Quote struct {
	spread decimal.Decimal
}

type quotePayload struct {
	Symbol    string   `json:"symbol"`
	Last      *float64 `json:"last"`
	Close     *float64 `json:"close"`
	Open      *float64 `json:"open"`
	Timestamp int64    `json:"timestamp"` // seconds since epoch, 0 = unreported
}

func (n *Quote) Normalize(raw []byte, capturedAt time.Time) ([]model.Candidate, Report, error) {
	var p quotePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Report{}, fmt.Errorf("%w: decode quote: %v", ErrMalformedPayload, err)
	}

	base, quote, err := model.DecodePairSymbol(p.Symbol)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	last := p.Last
	if last == nil {
		last = p.Close
	}
	if last == nil {
		return nil, Report{}, fmt.Errorf("%w: quote %q has no usable price", ErrMalformedPayload, p.Symbol)
	}

	tradeTime := capturedAt.UTC()
	if p.Timestamp > 0 {
		tradeTime = time.Unix(p.Timestamp, 0).UTC()
	}

	lastMid := decimal.NewFromFloat(*last)

	var cands []model.Candidate
	if p.Open != nil {
		openMid := decimal.NewFromFloat(*p.Open)
		if !openMid.Equal(lastMid) {
			cands = append(cands, n.candidate(base, quote, tradeTime.Add(-syntheticOpenOffset), openMid))
		}
	}
	cands = append(cands, n.candidate(base, quote, tradeTime, lastMid))

	return cands, Report{Ticks: len(cands)}, nil
}

func (n *Quote) candidate(base, quote string, ts time.Time, mid decimal.Decimal) model.Candidate {
	bid, ask := model.SynthesizeSpread(mid, n.spread)
	return model.Candidate{
		Base:  base,
		Quote: quote,
		Time:  ts,
		Bid:   bid,
		Mid:   mid,
		Ask:   ask,
	}
}
