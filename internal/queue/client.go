package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrDuplicateTask reports that a task with the same identity is
// already pending. Deterministic IDs rely on this to make re-fired
// schedule ticks a no-op.
var ErrDuplicateTask = errors.New("duplicate task id")

// Client enqueues tasks and exposes the operator surface.
type Client struct {
	rdb         *redis.Client
	logger      *slog.Logger
	maxAttempts int
}

// NewClient wraps an existing Redis connection. maxAttempts is the
// retry budget stamped on tasks that don't carry their own; <= 0
// selects DefaultMaxAttempts.
func NewClient(rdb *redis.Client, maxAttempts int, logger *slog.Logger) *Client {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{rdb: rdb, logger: logger, maxAttempts: maxAttempts}
}

// Ping verifies the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Enqueue schedules a task. An empty ID gets a random one; a supplied
// ID is an identity claim and collides with any pending task sharing
// it (ErrDuplicateTask).
func (c *Client) Enqueue(ctx context.Context, t Task) error {
	if t.Queue == "" {
		return errors.New("task queue name is required")
	}
	if t.Type == "" {
		return errors.New("task type is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = c.maxAttempts
	}

	now := time.Now().UTC()
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = now
	}
	if t.RunAt.IsZero() {
		t.RunAt = now
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	ok, err := c.rdb.SetNX(ctx, taskKey(t.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("register task %s: %w", t.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
	}

	err = c.rdb.ZAdd(ctx, schedKey(t.Queue), redis.Z{
		Score:  float64(t.RunAt.Unix()),
		Member: t.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule task %s: %w", t.ID, err)
	}

	c.logger.Debug("task enqueued",
		"id", t.ID,
		"queue", t.Queue,
		"type", t.Type,
		"run_at", t.RunAt,
	)
	return nil
}

// Depth returns the number of pending (scheduled or retrying) tasks on
// a queue.
func (c *Client) Depth(ctx context.Context, queue string) (int64, error) {
	return c.rdb.ZCard(ctx, schedKey(queue)).Result()
}

// Dead returns terminally failed tasks on a queue. They remain until
// cleared or removed.
func (c *Client) Dead(ctx context.Context, queue string) ([]Task, error) {
	entries, err := c.rdb.HGetAll(ctx, deadKey(queue)).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead set: %w", err)
	}

	tasks := make([]Task, 0, len(entries))
	for id, data := range entries {
		var t Task
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			c.logger.Warn("undecodable dead task", "id", id, "error", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Result returns the stored completion result for a task, or nil when
// none is retained.
func (c *Client) Result(ctx context.Context, id string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, resultKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", id, err)
	}
	return data, nil
}

// Clear drops a queue's pending tasks and dead set.
func (c *Client) Clear(ctx context.Context, queue string) error {
	ids, err := c.rdb.ZRange(ctx, schedKey(queue), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list queue %s: %w", queue, err)
	}

	keys := make([]string, 0, 2*len(ids)+2)
	for _, id := range ids {
		keys = append(keys, taskKey(id), leaseKey(id))
	}
	keys = append(keys, schedKey(queue), deadKey(queue))

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear queue %s: %w", queue, err)
	}

	c.logger.Info("queue cleared", "queue", queue, "pending_dropped", len(ids))
	return nil
}

// Remove deletes one task from a queue, pending or dead.
func (c *Client) Remove(ctx context.Context, queue, id string) error {
	if err := c.rdb.ZRem(ctx, schedKey(queue), id).Err(); err != nil {
		return fmt.Errorf("remove task %s: %w", id, err)
	}
	if err := c.rdb.HDel(ctx, deadKey(queue), id).Err(); err != nil {
		return fmt.Errorf("remove dead task %s: %w", id, err)
	}
	if err := c.rdb.Del(ctx, taskKey(id), leaseKey(id)).Err(); err != nil {
		return fmt.Errorf("remove task body %s: %w", id, err)
	}
	return nil
}

// AddRepeat registers a repeating task spec. Returns the repeat ID.
func (c *Client) AddRepeat(ctx context.Context, r Repeat) (string, error) {
	if r.Queue == "" || r.Type == "" {
		return "", errors.New("repeat queue and type are required")
	}
	if r.Every <= 0 {
		return "", errors.New("repeat interval must be positive")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal repeat: %w", err)
	}
	if err := c.rdb.HSet(ctx, repeatsKey, r.ID, data).Err(); err != nil {
		return "", fmt.Errorf("register repeat: %w", err)
	}
	return r.ID, nil
}

// ListRepeats returns all registered repeating task specs.
func (c *Client) ListRepeats(ctx context.Context) ([]Repeat, error) {
	entries, err := c.rdb.HGetAll(ctx, repeatsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list repeats: %w", err)
	}

	repeats := make([]Repeat, 0, len(entries))
	for id, data := range entries {
		var r Repeat
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			c.logger.Warn("undecodable repeat spec", "id", id, "error", err)
			continue
		}
		repeats = append(repeats, r)
	}
	return repeats, nil
}

// RemoveRepeat unregisters a repeating task spec.
func (c *Client) RemoveRepeat(ctx context.Context, id string) error {
	return c.rdb.HDel(ctx, repeatsKey, id).Err()
}
