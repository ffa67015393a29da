// Package model defines the canonical tick schema shared across the FX
// ingestion pipeline.
//
// Conventions:
//   - Rates: decimal.Decimal (exact arithmetic across rate magnitudes)
//   - Timestamps: time.Time with zone, persisted as TIMESTAMPTZ
//   - IDs: int32 serial keys for dimension rows
//
// Normalizers produce Candidates keyed by currency codes; the ingest
// engine resolves them into Ticks keyed by (time, pair_id, source_id).
package model
