package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/model"
)

// ErrMalformedPayload marks a structural decode failure: the payload is
// missing required fields or carries no resolvable rate information.
// Batch-fatal, but retryable at the task level since the cause may be a
// transient upstream glitch.
var ErrMalformedPayload = errors.New("malformed payload")

// Report counts per-record outcomes of one normalization pass.
type Report struct {
	Ticks   int // Candidates produced
	Skipped int // Samples dropped as undecodable or corrupt
}

// Normalizer turns one raw provider payload into canonical tick
// candidates. capturedAt is the adapter's capture timestamp, used when
// the payload itself carries no time for a record.
type Normalizer interface {
	Normalize(raw []byte, capturedAt time.Time) ([]model.Candidate, Report, error)
}

// Format identifies one of the supported provider payload shapes.
type Format string

const (
	FormatVCB   Format = "vcb"
	FormatChart Format = "chart"
	FormatBars  Format = "bars"
	FormatQuote Format = "quote"
)

// Options configure normalizer construction.
type Options struct {
	// Spread is the relative spread used when synthesizing bid/ask from
	// a single mid rate. Zero means model.DefaultSpread.
	Spread decimal.Decimal
}

func (o Options) spread() decimal.Decimal {
	if o.Spread.IsZero() {
		return model.DefaultSpread
	}
	return o.Spread
}

// ForFormat returns the normalizer variant for a provider format.
func ForFormat(f Format, opts Options) (Normalizer, error) {
	switch f {
	case FormatVCB:
		return &VCB{spread: opts.spread()}, nil
	case FormatChart:
		return &Chart{spread: opts.spread()}, nil
	case FormatBars:
		return &Bars{spread: opts.spread()}, nil
	case FormatQuote:
		return &Quote{spread: opts.spread()}, nil
	default:
		return nil, fmt.Errorf("unknown payload format %q", f)
	}
}
