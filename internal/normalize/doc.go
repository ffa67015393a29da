// Package normalize maps provider-specific raw payloads onto the
// canonical tick model.
//
// Each provider format is a fixed, explicitly-validated variant
// implementing the same Normalizer contract:
//
//   - vcb:   bank rate sheet (buy/transfer/sell columns against VND)
//   - chart: intraday converter chart (startTime + interval + values)
//   - bars:  historical OHLCV parallel arrays
//   - quote: single last-trade snapshot
//
// Failure policy: a malformed individual sample is skipped and counted,
// never fatal; a payload with no resolvable rate information or missing
// structurally-required fields fails the whole batch with
// ErrMalformedPayload.
package normalize
