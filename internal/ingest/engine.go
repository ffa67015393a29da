package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quangdng/fxrates-data/internal/model"
	"github.com/quangdng/fxrates-data/internal/refdata"
)

// DefaultChunkSize bounds the size of any single batched write.
const DefaultChunkSize = 1000

const upsertSQL = `
	INSERT INTO ticks (time, pair_id, source_id, bid, mid, ask, volume)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (time, pair_id, source_id)
	DO UPDATE SET bid = EXCLUDED.bid, mid = EXCLUDED.mid, ask = EXCLUDED.ask, volume = EXCLUDED.volume
	RETURNING (xmax = 0) AS inserted
`

// Engine persists normalized tick candidates.
type Engine struct {
	db        *pgxpool.Pool
	resolver  *refdata.Resolver
	chunkSize int
	logger    *slog.Logger
}

// NewEngine creates an Engine. chunkSize <= 0 selects DefaultChunkSize.
func NewEngine(db *pgxpool.Pool, resolver *refdata.Resolver, chunkSize int, logger *slog.Logger) *Engine {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		db:        db,
		resolver:  resolver,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Result counts the outcome of one ingestion run.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deduped  int `json:"deduped"`
}

// Ingest resolves, dedups, and upserts one batch of candidates from a
// single source. The whole run commits or rolls back together.
func (e *Engine) Ingest(ctx context.Context, src model.Source, cands []model.Candidate) (Result, error) {
	if len(cands) == 0 {
		return Result{}, nil
	}

	start := time.Now()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return Result{}, &PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	sess := e.resolver.Session(tx)

	sourceID, err := sess.ResolveSource(ctx, src.Name, src.Priority)
	if err != nil {
		return Result{}, &PersistenceError{Op: "resolve source", Err: err}
	}

	rows := make([]model.Tick, 0, len(cands))
	for _, c := range cands {
		pairID, err := sess.ResolvePair(ctx, c.Base, c.Quote)
		if err != nil {
			return Result{}, &PersistenceError{Op: "resolve pair", Err: err}
		}
		rows = append(rows, model.Tick{
			Time:     c.Time,
			PairID:   pairID,
			SourceID: sourceID,
			Bid:      c.Bid,
			Mid:      c.Mid,
			Ask:      c.Ask,
			Volume:   c.Volume,
		})
	}

	rows, deduped := dedupe(rows)

	var res Result
	for _, chunk := range chunks(rows, e.chunkSize) {
		inserted, updated, err := upsertChunk(ctx, tx, chunk)
		if err != nil {
			return Result{}, &PersistenceError{Op: "upsert ticks", Err: err}
		}
		res.Inserted += inserted
		res.Updated += updated
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, &PersistenceError{Op: "commit", Err: err}
	}
	sess.Commit()

	res.Deduped = deduped

	e.logger.Info("ingestion run committed",
		"source", src.Name,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"deduped", res.Deduped,
		"duration", time.Since(start),
	)
	return res, nil
}

type tickKey struct {
	time     int64
	pairID   int32
	sourceID int32
}

// dedupe collapses rows sharing (time, pair_id, source_id). The later
// element in ingestion order wins.
func dedupe(rows []model.Tick) ([]model.Tick, int) {
	idx := make(map[tickKey]int, len(rows))
	out := make([]model.Tick, 0, len(rows))
	deduped := 0

	for _, r := range rows {
		k := tickKey{time: r.Time.UnixNano(), pairID: r.PairID, sourceID: r.SourceID}
		if i, ok := idx[k]; ok {
			out[i] = r
			deduped++
			continue
		}
		idx[k] = len(out)
		out = append(out, r)
	}
	return out, deduped
}

// chunks splits rows into slices of at most size elements. Each chunk
// is independently upsertable: after dedup no two rows share a key, so
// chunk boundaries cannot violate idempotence.
func chunks(rows []model.Tick, size int) [][]model.Tick {
	var out [][]model.Tick
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

func upsertChunk(ctx context.Context, tx pgx.Tx, rows []model.Tick) (inserted, updated int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertSQL, r.Time, r.PairID, r.SourceID, r.Bid, r.Mid, r.Ask, r.Volume)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		var fresh bool
		if err := results.QueryRow().Scan(&fresh); err != nil {
			results.Close()
			return 0, 0, err
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	if err := results.Close(); err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}
