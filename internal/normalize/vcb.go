package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

// vcbQuoteCurrency is the fixed domestic currency every sheet row is
// quoted against.
const vcbQuoteCurrency = "VND"

// vcbTimeLayout matches sheet timestamps like "1/29/2026 9:25:44 AM".
const vcbTimeLayout = "1/2/2006 3:04:05 PM"

// vcbZone is Indochina Time; the sheet timestamp carries no offset.
var vcbZone = time.FixedZone("ICT", 7*60*60)

// VCB normalizes a bank rate sheet: one timestamp for the whole sheet
// and one row per foreign currency with buy/transfer/sell columns from
// the bank's point of view (bank buys at Buy, sells at Sell).
type VCB struct {
	spread decimal.Decimal
}

type vcbPayload struct {
	DateTime string   `json:"DateTime"`
	Data     []vcbRow `json:"Data"`
}

type vcbRow struct {
	Code     string `json:"code"`
	Buy      string `json:"buy"`
	Transfer string `json:"transfer"`
	Sell     string `json:"sell"`
}

func (n *VCB) Normalize(raw []byte, capturedAt time.Time) ([]model.Candidate, Report, error) {
	var p vcbPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Report{}, fmt.Errorf("%w: decode rate sheet: %v", ErrMalformedPayload, err)
	}

	if p.DateTime == "" {
		return nil, Report{}, fmt.Errorf("%w: rate sheet has no timestamp", ErrMalformedPayload)
	}
	sheetTime, err := time.ParseInLocation(vcbTimeLayout, p.DateTime, vcbZone)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%w: parse sheet timestamp %q: %v", ErrMalformedPayload, p.DateTime, err)
	}

	var (
		cands  []model.Candidate
		report Report
	)
	for _, row := range p.Data {
		c, ok := n.normalizeRow(row, sheetTime)
		if !ok {
			report.Skipped++
			continue
		}
		cands = append(cands, c)
	}

	if len(cands) == 0 {
		return nil, report, fmt.Errorf("%w: rate sheet has no decodable rows", ErrMalformedPayload)
	}

	report.Ticks = len(cands)
	return cands, report, nil
}

// normalizeRow maps one sheet row to a candidate. Rows with no
// decodable rate field report ok=false and are skipped by the caller.
func (n *VCB) normalizeRow(row vcbRow, sheetTime time.Time) (model.Candidate, bool) {
	if len(row.Code) != 3 {
		return model.Candidate{}, false
	}

	buy, hasBuy := parseRate(row.Buy)
	transfer, hasTransfer := parseRate(row.Transfer)
	sell, hasSell := parseRate(row.Sell)

	c := model.Candidate{
		Base:  row.Code,
		Quote: vcbQuoteCurrency,
		Time:  sheetTime,
	}

	switch {
	case hasBuy && hasSell:
		c.Bid, c.Ask = buy, sell
		if hasTransfer {
			c.Mid = transfer
		} else {
			c.Mid = model.MidFromBidAsk(buy, sell)
		}
	case hasTransfer:
		c.Mid = transfer
		c.Bid, c.Ask = model.SynthesizeSpread(transfer, n.spread)
	case hasBuy:
		c.Mid = buy
		c.Bid, c.Ask = model.SynthesizeSpread(buy, n.spread)
	case hasSell:
		c.Mid = sell
		c.Bid, c.Ask = model.SynthesizeSpread(sell, n.spread)
	default:
		return model.Candidate{}, false
	}

	return c, true
}
