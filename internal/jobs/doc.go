// Package jobs implements the crawl and import task handlers.
//
// A crawl fetches a provider snapshot, persists it verbatim, and
// ingests it; when the source is flagged for chaining it then enqueues
// a matching import task, fire-and-forget. An import re-reads a stored
// snapshot (latest or the full history) and repeats normalization and
// ingestion. Both handlers are safe to re-run on redelivery because
// ingestion is idempotent.
package jobs
