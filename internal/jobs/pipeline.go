package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quangdng/fxrates-data/internal/ingest"
	"github.com/quangdng/fxrates-data/internal/model"
	"github.com/quangdng/fxrates-data/internal/normalize"
	"github.com/quangdng/fxrates-data/internal/queue"
	"github.com/quangdng/fxrates-data/internal/snapshot"
	"github.com/quangdng/fxrates-data/internal/source"
)

// Task types handled by the pipeline.
const (
	TypeCrawl  = "crawl"
	TypeImport = "import"
)

// Import modes.
const (
	ModeLatest = "latest"
	ModeAll    = "all"
)

// SourceSpec wires one provider into the pipeline.
type SourceSpec struct {
	Name        string
	Queue       string
	Priority    int
	ChainImport bool
	Fetcher     source.Fetcher
	Normalizer  normalize.Normalizer
}

// Ingestor is the slice of the ingest engine the pipeline needs.
type Ingestor interface {
	Ingest(ctx context.Context, src model.Source, cands []model.Candidate) (ingest.Result, error)
}

// Enqueuer publishes follow-up tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, t queue.Task) error
}

// Pipeline holds the shared collaborators of all task handlers.
type Pipeline struct {
	specs     map[string]SourceSpec
	snapshots *snapshot.Store
	engine    Ingestor
	queue     Enqueuer
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline for a set of source specs.
func NewPipeline(specs []SourceSpec, snapshots *snapshot.Store, engine Ingestor, q Enqueuer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[string]SourceSpec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return &Pipeline{
		specs:     m,
		snapshots: snapshots,
		engine:    engine,
		queue:     q,
		logger:    logger,
	}
}

// Register binds the pipeline's handlers to a queue worker.
func (p *Pipeline) Register(w *queue.Worker) {
	w.Register(TypeCrawl, queue.HandlerFunc(p.HandleCrawl))
	w.Register(TypeImport, queue.HandlerFunc(p.HandleImport))
}

// CrawlPayload selects the source to crawl.
type CrawlPayload struct {
	Source string `json:"source"`
}

// ImportPayload selects the snapshots to re-ingest.
type ImportPayload struct {
	Source     string `json:"source"`
	Mode       string `json:"mode,omitempty"`        // latest (default) or all
	SnapshotID string `json:"snapshot_id,omitempty"` // explicit snapshot for latest mode
}

// CrawlResult is the stored outcome of a crawl task.
type CrawlResult struct {
	SnapshotID string `json:"snapshot_id"`
	Method     string `json:"method"`
	Ticks      int    `json:"ticks"`
	Skipped    int    `json:"skipped"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Deduped    int    `json:"deduped"`
}

// ImportResult is the stored outcome of an import task.
type ImportResult struct {
	Files       int    `json:"files"`
	FilesFailed int    `json:"files_failed"`
	FirstError  string `json:"first_error,omitempty"`
	Ticks       int    `json:"ticks"`
	Skipped     int    `json:"skipped"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Deduped     int    `json:"deduped"`
}

// HandleCrawl fetches, snapshots, and ingests one source.
func (p *Pipeline) HandleCrawl(ctx context.Context, task queue.Task) (json.RawMessage, error) {
	var payload CrawlPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode crawl payload: %w", err)
	}

	spec, ok := p.specs[payload.Source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", payload.Source)
	}

	capture, err := spec.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", spec.Name, err)
	}

	snapID, err := p.snapshots.Write(spec.Name, capture.CapturedAt, capture.Raw)
	if err != nil {
		return nil, fmt.Errorf("store snapshot for %s: %w", spec.Name, err)
	}

	cands, report, err := spec.Normalizer.Normalize(capture.Raw, capture.CapturedAt)
	if err != nil {
		return nil, fmt.Errorf("normalize %s snapshot %s: %w", spec.Name, snapID, err)
	}

	res, err := p.engine.Ingest(ctx, model.Source{Name: spec.Name, Priority: spec.Priority}, cands)
	if err != nil {
		return nil, err
	}

	if spec.ChainImport {
		p.chainImport(ctx, spec, snapID)
	}

	return json.Marshal(CrawlResult{
		SnapshotID: snapID,
		Method:     capture.Method,
		Ticks:      report.Ticks,
		Skipped:    report.Skipped,
		Inserted:   res.Inserted,
		Updated:    res.Updated,
		Deduped:    res.Deduped,
	})
}

// chainImport enqueues the follow-up import, fire-and-forget: the
// crawl's success never depends on it.
func (p *Pipeline) chainImport(ctx context.Context, spec SourceSpec, snapID string) {
	payload, _ := json.Marshal(ImportPayload{
		Source:     spec.Name,
		Mode:       ModeLatest,
		SnapshotID: snapID,
	})

	err := p.queue.Enqueue(ctx, queue.Task{
		ID:      fmt.Sprintf("import:%s:%s", spec.Name, snapID),
		Queue:   spec.Queue,
		Type:    TypeImport,
		Payload: payload,
	})
	switch {
	case errors.Is(err, queue.ErrDuplicateTask):
		p.logger.Debug("import already chained", "source", spec.Name, "snapshot", snapID)
	case err != nil:
		p.logger.Error("chain import failed", "source", spec.Name, "snapshot", snapID, "error", err)
	}
}

// HandleImport re-ingests stored snapshots.
func (p *Pipeline) HandleImport(ctx context.Context, task queue.Task) (json.RawMessage, error) {
	var payload ImportPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode import payload: %w", err)
	}

	spec, ok := p.specs[payload.Source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", payload.Source)
	}

	if payload.Mode == ModeAll {
		return p.importAll(ctx, spec)
	}
	return p.importOne(ctx, spec, payload.SnapshotID)
}

func (p *Pipeline) importOne(ctx context.Context, spec SourceSpec, snapID string) (json.RawMessage, error) {
	var (
		snap snapshot.Snapshot
		err  error
	)
	if snapID != "" {
		snap, err = p.snapshots.Read(spec.Name, snapID)
	} else {
		snap, err = p.snapshots.ReadLatest(spec.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", spec.Name, err)
	}

	var result ImportResult
	result.Files = 1
	if err := p.ingestSnapshot(ctx, spec, snap, &result); err != nil {
		return nil, err
	}

	return json.Marshal(result)
}

// importAll reprocesses every retained snapshot. Per-file failures are
// reported independently; the run fails only when nothing ingests.
func (p *Pipeline) importAll(ctx context.Context, spec SourceSpec) (json.RawMessage, error) {
	ids, err := p.snapshots.List(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", spec.Name, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no snapshots retained for %s", spec.Name)
	}

	var result ImportResult
	result.Files = len(ids)

	for _, id := range ids {
		snap, err := p.snapshots.Read(spec.Name, id)
		if err == nil {
			err = p.ingestSnapshot(ctx, spec, snap, &result)
		}
		if err != nil {
			result.FilesFailed++
			if result.FirstError == "" {
				result.FirstError = err.Error()
			}
			p.logger.Warn("snapshot import failed",
				"source", spec.Name,
				"snapshot", id,
				"error", err,
			)
		}
	}

	if result.FilesFailed == result.Files {
		return nil, fmt.Errorf("import all for %s: every snapshot failed: %s", spec.Name, result.FirstError)
	}

	return json.Marshal(result)
}

func (p *Pipeline) ingestSnapshot(ctx context.Context, spec SourceSpec, snap snapshot.Snapshot, result *ImportResult) error {
	cands, report, err := spec.Normalizer.Normalize(snap.Raw, snap.CapturedAt)
	if err != nil {
		return fmt.Errorf("normalize %s snapshot %s: %w", spec.Name, snap.ID, err)
	}

	res, err := p.engine.Ingest(ctx, model.Source{Name: spec.Name, Priority: spec.Priority}, cands)
	if err != nil {
		return err
	}

	result.Ticks += report.Ticks
	result.Skipped += report.Skipped
	result.Inserted += res.Inserted
	result.Updated += res.Updated
	result.Deduped += res.Deduped
	return nil
}
