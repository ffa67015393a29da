package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseRate decodes a provider numeric string defensively. Thousands
// separators are stripped; empty strings and the sentinel dash mean
// "no quote". Returns ok=false when no rate can be decoded.
func parseRate(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Decimal{}, false
	}

	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// decimalPtr boxes a decimal for nullable columns.
func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
