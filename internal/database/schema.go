package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		priority INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS currency_pairs (
		id SERIAL PRIMARY KEY,
		symbol TEXT NOT NULL UNIQUE,
		base_currency CHAR(3) NOT NULL,
		quote_currency CHAR(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticks (
		time TIMESTAMPTZ NOT NULL,
		pair_id INT NOT NULL REFERENCES currency_pairs(id),
		source_id INT NOT NULL REFERENCES sources(id),
		bid NUMERIC NOT NULL,
		mid NUMERIC NOT NULL,
		ask NUMERIC NOT NULL,
		volume NUMERIC,
		PRIMARY KEY (time, pair_id, source_id)
	)`,
}

// Migrate creates the fact and dimension tables if they do not exist,
// then promotes ticks to a hypertable when TimescaleDB is installed.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	// Plain Postgres works too; partitioning is an optimization.
	_, err := pool.Exec(ctx,
		`SELECT create_hypertable('ticks', 'time', if_not_exists => TRUE)`)
	if err != nil {
		logger.Warn("ticks not promoted to hypertable; continuing on plain postgres", "error", err)
	}

	return nil
}
