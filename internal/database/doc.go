// Package database provides connection pool management for the
// fact/dimension store.
//
// The store is PostgreSQL with the TimescaleDB extension when
// available: sources and currency_pairs are plain relational lookup
// tables, ticks is a time-partitioned hypertable.
package database
