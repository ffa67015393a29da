// Package ingest is the dedup and upsert engine: the only component
// permitted to write the ticks fact table.
//
// One Ingest call is one run: resolver lookups, intra-batch dedup, and
// the chunked upsert share a single transaction, so a run either lands
// completely or not at all. Re-running the same payload is a no-op on
// final state, which makes at-least-once task delivery safe.
package ingest
