// Package refdata resolves Source and CurrencyPair dimension rows with
// idempotent get-or-create semantics.
//
// Rows are append-only: resolution inserts on first sight and never
// updates existing content, which makes the shared in-memory ID cache
// safe across ingestion runs. Cache entries are only published after
// the owning transaction commits, so a rolled-back run cannot leak IDs
// of rows that were never created.
package refdata
