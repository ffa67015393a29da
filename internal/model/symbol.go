package model

import (
	"fmt"
	"strings"
)

// implicitBase is the base currency implied by 3-character chart
// symbols (e.g., "VND=X" quotes VND against USD).
const implicitBase = "USD"

// DecodePairSymbol decodes a chart-style symbol into a currency pair
// following the fixed-width convention:
//
//   - a 3-character code is a domestic quote currency with an implicit
//     USD base: "VND=X" -> (USD, VND)
//   - a 6-character code splits evenly: "EURUSD=X" -> (EUR, USD)
//
// Any other length is a decoding error.
func DecodePairSymbol(symbol string) (base, quote string, err error) {
	code := strings.ToUpper(strings.TrimSuffix(symbol, "=X"))
	switch len(code) {
	case 3:
		return implicitBase, code, nil
	case 6:
		return code[:3], code[3:], nil
	default:
		return "", "", fmt.Errorf("decode pair symbol %q: expected 3 or 6 characters, got %d", symbol, len(code))
	}
}
