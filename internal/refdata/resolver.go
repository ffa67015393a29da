package refdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quangdng/fxrates-data/internal/model"
)

// Querier is the slice of pgx.Tx the resolver needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver caches dimension IDs across ingestion runs.
type Resolver struct {
	mu      sync.RWMutex
	sources map[string]int32
	pairs   map[string]int32
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		sources: make(map[string]int32),
		pairs:   make(map[string]int32),
	}
}

// Session binds the resolver to one ingestion transaction. Freshly
// resolved IDs stay session-local until Commit.
func (r *Resolver) Session(db Querier) *Session {
	return &Session{
		r:       r,
		db:      db,
		sources: make(map[string]int32),
		pairs:   make(map[string]int32),
	}
}

func (r *Resolver) lookupSource(name string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.sources[name]
	return id, ok
}

func (r *Resolver) lookupPair(symbol string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pairs[symbol]
	return id, ok
}

// Session resolves dimension rows inside one transaction.
type Session struct {
	r       *Resolver
	db      Querier
	sources map[string]int32
	pairs   map[string]int32
}

// ResolveSource returns the ID for a provider name, inserting the row
// on first sight. Existing rows are never modified: a conflicting
// insert is a no-op followed by a read of the surviving row.
func (s *Session) ResolveSource(ctx context.Context, name string, priority int) (int32, error) {
	if id, ok := s.r.lookupSource(name); ok {
		return id, nil
	}
	if id, ok := s.sources[name]; ok {
		return id, nil
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO sources (name, priority) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, priority)
	if err != nil {
		return 0, fmt.Errorf("insert source %q: %w", name, err)
	}

	var id int32
	err = s.db.QueryRow(ctx, `SELECT id FROM sources WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select source %q: %w", name, err)
	}

	s.sources[name] = id
	return id, nil
}

// ResolvePair returns the ID for a base/quote combination, inserting
// the row on first sight.
func (s *Session) ResolvePair(ctx context.Context, base, quote string) (int32, error) {
	symbol := model.PairSymbol(base, quote)

	if id, ok := s.r.lookupPair(symbol); ok {
		return id, nil
	}
	if id, ok := s.pairs[symbol]; ok {
		return id, nil
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO currency_pairs (symbol, base_currency, quote_currency) VALUES ($1, $2, $3)
		 ON CONFLICT (symbol) DO NOTHING`,
		symbol, base, quote)
	if err != nil {
		return 0, fmt.Errorf("insert pair %q: %w", symbol, err)
	}

	var id int32
	err = s.db.QueryRow(ctx, `SELECT id FROM currency_pairs WHERE symbol = $1`, symbol).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select pair %q: %w", symbol, err)
	}

	s.pairs[symbol] = id
	return id, nil
}

// Commit publishes session-local IDs to the shared cache. Call only
// after the owning transaction has committed.
func (s *Session) Commit() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for name, id := range s.sources {
		s.r.sources[name] = id
	}
	for symbol, id := range s.pairs {
		s.r.pairs[symbol] = id
	}
}
