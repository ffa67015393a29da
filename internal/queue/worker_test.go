package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDelay_DoublesPerAttempt(t *testing.T) {
	base := 60 * time.Second

	require.Equal(t, 60*time.Second, backoffDelay(base, 1))
	require.Equal(t, 120*time.Second, backoffDelay(base, 2))
	require.Equal(t, 240*time.Second, backoffDelay(base, 3))
}

func TestDefaultWorkerConfig(t *testing.T) {
	cfg := DefaultWorkerConfig()

	require.Equal(t, 5*time.Minute, cfg.LeaseDuration)
	require.Equal(t, 60*time.Second, cfg.RetryBaseDelay)
	require.Positive(t, cfg.PollInterval)
	require.Positive(t, cfg.ResultTTL)
}

func TestHandlerFunc_Adapter(t *testing.T) {
	var seen Task
	h := HandlerFunc(func(_ context.Context, task Task) (json.RawMessage, error) {
		seen = task
		return json.RawMessage(`{"ok":true}`), nil
	})

	res, err := h.Handle(context.Background(), Task{ID: "t1", Type: "crawl"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(res))
	require.Equal(t, "t1", seen.ID)
}

func TestTask_RoundTripKeepsIdentity(t *testing.T) {
	in := Task{
		ID:          "crawl:vietcombank:1769644800",
		Queue:       "vietcombank",
		Type:        "crawl",
		Payload:     json.RawMessage(`{"source":"vietcombank"}`),
		Attempt:     2,
		MaxAttempts: 3,
		EnqueuedAt:  time.Date(2026, 1, 29, 2, 0, 0, 0, time.UTC),
		RunAt:       time.Date(2026, 1, 29, 2, 2, 0, 0, time.UTC),
		LastError:   "fetch: 502",
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Task
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in.ID, out.ID)
	require.Equal(t, in.Attempt, out.Attempt)
	require.Equal(t, in.LastError, out.LastError)
	require.True(t, in.RunAt.Equal(out.RunAt))
}
