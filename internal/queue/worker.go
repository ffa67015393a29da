package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Handler executes one task attempt. The returned payload, if any, is
// retained as the task's result.
type Handler interface {
	Handle(ctx context.Context, task Task) (json.RawMessage, error)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, task Task) (json.RawMessage, error)

func (f HandlerFunc) Handle(ctx context.Context, task Task) (json.RawMessage, error) {
	return f(ctx, task)
}

// WorkerConfig holds worker tuning.
type WorkerConfig struct {
	PollInterval   time.Duration // Idle poll period (default: 1s)
	LeaseDuration  time.Duration // Per-attempt claim bound (default: 5m)
	RetryBaseDelay time.Duration // First backoff step (default: 60s)
	ResultTTL      time.Duration // Completion result retention (default: 24h)
}

// DefaultWorkerConfig returns sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:   time.Second,
		LeaseDuration:  5 * time.Minute,
		RetryBaseDelay: 60 * time.Second,
		ResultTTL:      24 * time.Hour,
	}
}

// Worker executes tasks from one queue with concurrency 1: tasks bound
// to a queue are strictly serialized, so stateful external resources
// (sessions, cookie jars) never see two concurrent fetches.
type Worker struct {
	cfg      WorkerConfig
	client   *Client
	queue    string
	id       string
	handlers map[string]Handler
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker bound to a queue.
func NewWorker(cfg WorkerConfig, client *Client, queue string, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 5 * time.Minute
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 60 * time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:      cfg,
		client:   client,
		queue:    queue,
		id:       uuid.NewString(),
		handlers: make(map[string]Handler),
		logger:   logger.With("queue", queue),
	}
}

// Register binds a handler to a task type. Not safe to call after
// Start.
func (w *Worker) Register(taskType string, h Handler) {
	w.handlers[taskType] = h
}

// Start begins the single-flight execution loop.
func (w *Worker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("queue worker started",
		"lease", w.cfg.LeaseDuration,
		"retry_base_delay", w.cfg.RetryBaseDelay,
	)
	return nil
}

// Stop gracefully shuts down the worker, waiting for the in-flight
// task attempt to finish.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("queue worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("queue worker stop timed out")
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if !w.processNext() {
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(w.cfg.PollInterval):
			}
		}
	}
}

// processNext claims and runs at most one due task. Returns false when
// the queue had nothing due.
func (w *Worker) processNext() bool {
	ctx := w.ctx
	rdb := w.client.rdb
	now := time.Now().UTC()

	ids, err := rdb.ZRangeByScore(ctx, schedKey(w.queue), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: 1,
	}).Result()
	if err != nil {
		w.logger.Error("poll queue failed", "error", err)
		return false
	}
	if len(ids) == 0 {
		return false
	}
	id := ids[0]

	// Claim. A live lease means another attempt holds the task; an
	// expired lease means it was abandoned and is ours to redeliver.
	claimed, err := rdb.SetNX(ctx, leaseKey(id), w.id, w.cfg.LeaseDuration).Result()
	if err != nil || !claimed {
		return false
	}

	// Push the task past the lease window so a crashed worker's claim
	// resurfaces instead of being lost.
	err = rdb.ZAdd(ctx, schedKey(w.queue), redis.Z{
		Score:  float64(now.Add(w.cfg.LeaseDuration).Unix()),
		Member: id,
	}).Err()
	if err != nil {
		w.logger.Error("reschedule claim failed", "id", id, "error", err)
		rdb.Del(ctx, leaseKey(id))
		return false
	}

	data, err := rdb.Get(ctx, taskKey(id)).Bytes()
	if err == redis.Nil {
		w.dropOrphan(id, "task body missing")
		return true
	}
	if err != nil {
		w.logger.Error("load task failed", "id", id, "error", err)
		rdb.Del(ctx, leaseKey(id))
		return false
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		w.dropOrphan(id, "task body undecodable")
		return true
	}

	t.Attempt++
	w.execute(t)
	return true
}

func (w *Worker) execute(t Task) {
	h, ok := w.handlers[t.Type]
	if !ok {
		w.fail(t, fmt.Errorf("no handler for task type %q", t.Type))
		return
	}

	w.logger.Info("task running", "id", t.ID, "type", t.Type, "attempt", t.Attempt)

	runCtx, cancel := context.WithTimeout(w.ctx, w.cfg.LeaseDuration)
	result, err := h.Handle(runCtx, t)
	cancel()

	if err != nil {
		w.fail(t, err)
		return
	}
	w.complete(t, result)
}

// complete finalizes a successful attempt: the task leaves the queue
// and its result stays queryable for ResultTTL.
func (w *Worker) complete(t Task, result json.RawMessage) {
	ctx := w.ctx
	rdb := w.client.rdb

	rdb.ZRem(ctx, schedKey(w.queue), t.ID)
	rdb.Del(ctx, taskKey(t.ID), leaseKey(t.ID))
	if len(result) > 0 {
		if err := rdb.Set(ctx, resultKey(t.ID), []byte(result), w.cfg.ResultTTL).Err(); err != nil {
			w.logger.Warn("store task result failed", "id", t.ID, "error", err)
		}
	}

	w.logger.Info("task succeeded",
		"id", t.ID,
		"type", t.Type,
		"attempt", t.Attempt,
		"result", string(result),
	)
}

// fail applies the retry policy: reschedule with doubled backoff while
// budget remains, otherwise park the task in the dead set.
func (w *Worker) fail(t Task, cause error) {
	ctx := w.ctx
	rdb := w.client.rdb
	t.LastError = cause.Error()

	if t.Attempt >= t.MaxAttempts {
		data, _ := json.Marshal(t)
		rdb.ZRem(ctx, schedKey(w.queue), t.ID)
		rdb.HSet(ctx, deadKey(w.queue), t.ID, data)
		rdb.Del(ctx, taskKey(t.ID), leaseKey(t.ID))

		w.logger.Error("task failed terminally",
			"id", t.ID,
			"type", t.Type,
			"attempts", t.Attempt,
			"error", cause,
		)
		return
	}

	delay := backoffDelay(w.cfg.RetryBaseDelay, t.Attempt)
	t.RunAt = time.Now().UTC().Add(delay)

	data, _ := json.Marshal(t)
	rdb.Set(ctx, taskKey(t.ID), data, 0)
	rdb.ZAdd(ctx, schedKey(w.queue), redis.Z{
		Score:  float64(t.RunAt.Unix()),
		Member: t.ID,
	})
	rdb.Del(ctx, leaseKey(t.ID))

	w.logger.Warn("task failed, retrying",
		"id", t.ID,
		"type", t.Type,
		"attempt", t.Attempt,
		"next_run_in", delay,
		"error", cause,
	)
}

// dropOrphan discards a scheduled member with no task body.
func (w *Worker) dropOrphan(id, reason string) {
	rdb := w.client.rdb
	rdb.ZRem(w.ctx, schedKey(w.queue), id)
	rdb.Del(w.ctx, taskKey(id), leaseKey(id))
	w.logger.Warn("dropped orphaned task", "id", id, "reason", reason)
}

// backoffDelay is the wait before retrying attempt+1: base doubled per
// completed attempt (60s, 120s, 240s, ...).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
