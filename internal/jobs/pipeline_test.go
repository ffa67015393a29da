package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quangdng/fxrates-data/internal/ingest"
	"github.com/quangdng/fxrates-data/internal/model"
	"github.com/quangdng/fxrates-data/internal/normalize"
	"github.com/quangdng/fxrates-data/internal/queue"
	"github.com/quangdng/fxrates-data/internal/snapshot"
	"github.com/quangdng/fxrates-data/internal/source"
)

const vcbSheet = `{
	"DateTime": "1/29/2026 9:25:44 AM",
	"Data": [
		{"code": "USD", "buy": "25,350.00", "transfer": "25,380.00", "sell": "25,410.00"},
		{"code": "XYZ", "buy": "-", "transfer": "-", "sell": "-"}
	]
}`

type fakeFetcher struct {
	raw []byte
	err error
}

func (f *fakeFetcher) Fetch(context.Context) (source.Capture, error) {
	if f.err != nil {
		return source.Capture{}, f.err
	}
	return source.Capture{
		Raw:        f.raw,
		CapturedAt: time.Date(2026, 1, 29, 2, 25, 44, 0, time.UTC),
		Method:     source.MethodDirectAPI,
	}, nil
}

type fakeIngestor struct {
	calls [][]model.Candidate
	errs  []error
}

func (f *fakeIngestor) Ingest(_ context.Context, _ model.Source, cands []model.Candidate) (ingest.Result, error) {
	f.calls = append(f.calls, cands)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return ingest.Result{}, err
		}
	}
	return ingest.Result{Inserted: len(cands)}, nil
}

type fakeEnqueuer struct {
	tasks []queue.Task
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t queue.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

func newTestPipeline(t *testing.T, spec SourceSpec) (*Pipeline, *snapshot.Store, *fakeIngestor, *fakeEnqueuer) {
	t.Helper()

	store, err := snapshot.NewStore(t.TempDir())
	require.NoError(t, err)

	eng := &fakeIngestor{}
	q := &fakeEnqueuer{}
	return NewPipeline([]SourceSpec{spec}, store, eng, q, nil), store, eng, q
}

func vcbSpec(t *testing.T, chain bool) SourceSpec {
	t.Helper()
	n, err := normalize.ForFormat(normalize.FormatVCB, normalize.Options{})
	require.NoError(t, err)
	return SourceSpec{
		Name:        "vietcombank",
		Queue:       "vietcombank",
		Priority:    1,
		ChainImport: chain,
		Fetcher:     &fakeFetcher{raw: []byte(vcbSheet)},
		Normalizer:  n,
	}
}

func TestHandleCrawl_SnapshotsIngestsAndChains(t *testing.T) {
	p, store, eng, q := newTestPipeline(t, vcbSpec(t, true))

	payload, _ := json.Marshal(CrawlPayload{Source: "vietcombank"})
	raw, err := p.HandleCrawl(context.Background(), queue.Task{Type: TypeCrawl, Payload: payload})
	require.NoError(t, err)

	var res CrawlResult
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Equal(t, 1, res.Ticks)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 1, res.Inserted)

	// The snapshot was persisted verbatim under the returned ID.
	snap, err := store.Read("vietcombank", res.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, vcbSheet, string(snap.Raw))

	// One ingestion run with the USD row only.
	require.Len(t, eng.calls, 1)
	require.Len(t, eng.calls[0], 1)
	require.Equal(t, "USD", eng.calls[0][0].Base)
	require.Equal(t, "VND", eng.calls[0][0].Quote)

	// The follow-up import was chained with a deterministic identity.
	require.Len(t, q.tasks, 1)
	chained := q.tasks[0]
	require.Equal(t, TypeImport, chained.Type)
	require.Equal(t, "import:vietcombank:"+res.SnapshotID, chained.ID)

	var imp ImportPayload
	require.NoError(t, json.Unmarshal(chained.Payload, &imp))
	require.Equal(t, res.SnapshotID, imp.SnapshotID)
}

func TestHandleCrawl_NoChainWhenUnflagged(t *testing.T) {
	p, _, _, q := newTestPipeline(t, vcbSpec(t, false))

	payload, _ := json.Marshal(CrawlPayload{Source: "vietcombank"})
	_, err := p.HandleCrawl(context.Background(), queue.Task{Type: TypeCrawl, Payload: payload})
	require.NoError(t, err)
	require.Empty(t, q.tasks)
}

func TestHandleCrawl_UnknownSource(t *testing.T) {
	p, _, _, _ := newTestPipeline(t, vcbSpec(t, false))

	payload, _ := json.Marshal(CrawlPayload{Source: "nope"})
	_, err := p.HandleCrawl(context.Background(), queue.Task{Type: TypeCrawl, Payload: payload})
	require.Error(t, err)
}

func TestHandleImport_Latest(t *testing.T) {
	p, store, eng, _ := newTestPipeline(t, vcbSpec(t, false))

	_, err := store.Write("vietcombank", time.Now().UTC(), []byte(vcbSheet))
	require.NoError(t, err)

	payload, _ := json.Marshal(ImportPayload{Source: "vietcombank"})
	raw, err := p.HandleImport(context.Background(), queue.Task{Type: TypeImport, Payload: payload})
	require.NoError(t, err)

	var res ImportResult
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Equal(t, 1, res.Files)
	require.Equal(t, 0, res.FilesFailed)
	require.Equal(t, 1, res.Ticks)
	require.Len(t, eng.calls, 1)
}

func TestHandleImport_AllToleratesPerFileFailures(t *testing.T) {
	p, store, eng, _ := newTestPipeline(t, vcbSpec(t, false))

	base := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	_, err := store.Write("vietcombank", base, []byte(vcbSheet))
	require.NoError(t, err)
	_, err = store.Write("vietcombank", base.Add(time.Hour), []byte(`not json`))
	require.NoError(t, err)
	_, err = store.Write("vietcombank", base.Add(2*time.Hour), []byte(vcbSheet))
	require.NoError(t, err)

	payload, _ := json.Marshal(ImportPayload{Source: "vietcombank", Mode: ModeAll})
	raw, err := p.HandleImport(context.Background(), queue.Task{Type: TypeImport, Payload: payload})
	require.NoError(t, err)

	var res ImportResult
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Equal(t, 3, res.Files)
	require.Equal(t, 1, res.FilesFailed)
	require.NotEmpty(t, res.FirstError)
	require.Equal(t, 2, res.Ticks)
	require.Len(t, eng.calls, 2)
}

func TestHandleImport_AllFailsWhenEverySnapshotFails(t *testing.T) {
	p, store, _, _ := newTestPipeline(t, vcbSpec(t, false))

	_, err := store.Write("vietcombank", time.Now().UTC(), []byte(`not json`))
	require.NoError(t, err)

	payload, _ := json.Marshal(ImportPayload{Source: "vietcombank", Mode: ModeAll})
	_, err = p.HandleImport(context.Background(), queue.Task{Type: TypeImport, Payload: payload})
	require.Error(t, err)
}

func TestHandleImport_PersistenceErrorAborts(t *testing.T) {
	spec := vcbSpec(t, false)
	p, store, eng, _ := newTestPipeline(t, spec)
	eng.errs = []error{&ingest.PersistenceError{Op: "commit", Err: context.DeadlineExceeded}}

	_, err := store.Write("vietcombank", time.Now().UTC(), []byte(vcbSheet))
	require.NoError(t, err)

	payload, _ := json.Marshal(ImportPayload{Source: "vietcombank"})
	_, err = p.HandleImport(context.Background(), queue.Task{Type: TypeImport, Payload: payload})
	require.Error(t, err)
}
