package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

// chartSanityFloor: samples at or below this value are corrupt chart
// artifacts, not real rates.
var chartSanityFloor = decimal.NewFromFloat(0.01)

// Chart normalizes an intraday converter chart: a mid-rate series keyed
// by (startTime, interval, values), where sample i is stamped
// startTime + i*interval. An optional converter payload yields one
// extra tick at capture time.
type Chart struct {
	spread decimal.Decimal
}

type chartPayload struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	StartTime int64           `json:"startTime"` // ms since epoch
	Interval  int64           `json:"interval"`  // ms between samples
	Values    []float64       `json:"values"`
	Converter *chartConverter `json:"converter"`
}

type chartConverter struct {
	Rate float64 `json:"rate"`
}

func (n *Chart) Normalize(raw []byte, capturedAt time.Time) ([]model.Candidate, Report, error) {
	var p chartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Report{}, fmt.Errorf("%w: decode chart: %v", ErrMalformedPayload, err)
	}

	if p.Base == "" || p.Quote == "" {
		return nil, Report{}, fmt.Errorf("%w: chart has no currency pair", ErrMalformedPayload)
	}
	if len(p.Values) > 0 && (p.StartTime <= 0 || p.Interval <= 0) {
		return nil, Report{}, fmt.Errorf("%w: chart series has no time base", ErrMalformedPayload)
	}

	var (
		cands  []model.Candidate
		report Report
	)
	for i, v := range p.Values {
		mid := decimal.NewFromFloat(v)
		if mid.LessThanOrEqual(chartSanityFloor) {
			report.Skipped++
			continue
		}

		ts := time.UnixMilli(p.StartTime + int64(i)*p.Interval).UTC()
		cands = append(cands, n.candidate(p.Base, p.Quote, ts, mid))
	}

	if p.Converter != nil {
		rate := decimal.NewFromFloat(p.Converter.Rate)
		if rate.GreaterThan(chartSanityFloor) {
			cands = append(cands, n.candidate(p.Base, p.Quote, capturedAt.UTC(), rate))
		} else {
			report.Skipped++
		}
	}

	if len(cands) == 0 {
		return nil, report, fmt.Errorf("%w: chart has no usable samples", ErrMalformedPayload)
	}

	report.Ticks = len(cands)
	return cands, report, nil
}

func (n *Chart) candidate(base, quote string, ts time.Time, mid decimal.Decimal) model.Candidate {
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
