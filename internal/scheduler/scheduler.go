// Package scheduler enqueues crawl tasks on fixed per-source intervals
// and replays operator-registered repeating tasks.
//
// Task identity is deterministic: the fire time truncated to the
// source's interval is part of the ID, so a restarted scheduler
// re-firing within the same window collides with the pending task and
// enqueues nothing.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quangdng/fxrates-data/internal/queue"
)

// repeatPoll is how often operator-registered repeats are examined.
const repeatPoll = 30 * time.Second

// Entry is one recurring crawl schedule.
type Entry struct {
	Source   string        // Provider name, also the crawl payload
	Queue    string        // Target queue (one worker, concurrency 1)
	Interval time.Duration // Fixed enqueue period
}

// Enqueuer is the slice of the queue client the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, t queue.Task) error
	ListRepeats(ctx context.Context) ([]queue.Repeat, error)
}

// Scheduler drives the recurring enqueue loops.
type Scheduler struct {
	entries []Entry
	queue   Enqueuer
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler for a set of schedule entries.
func New(entries []Entry, q Enqueuer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		entries: entries,
		queue:   q,
		logger:  logger,
	}
}

// Start launches one loop per entry plus the repeats loop.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.entries {
		if e.Interval <= 0 {
			return fmt.Errorf("schedule for %q has no interval", e.Source)
		}
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.runEntry(e)
	}

	s.wg.Add(1)
	go s.runRepeats()

	s.logger.Info("scheduler started", "entries", len(s.entries))
	return nil
}

// Stop shuts down all loops.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runEntry(e Entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	// Fire immediately on start.
	s.enqueueCrawl(e, time.Now().UTC())

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.enqueueCrawl(e, now.UTC())
		}
	}
}

func (s *Scheduler) enqueueCrawl(e Entry, fireTime time.Time) {
	payload, _ := json.Marshal(map[string]string{"source": e.Source})

	err := s.queue.Enqueue(s.ctx, queue.Task{
		ID:      CrawlTaskID(e.Source, fireTime, e.Interval),
		Queue:   e.Queue,
		Type:    "crawl",
		Payload: payload,
	})
	switch {
	case errors.Is(err, queue.ErrDuplicateTask):
		s.logger.Debug("schedule tick already enqueued", "source", e.Source)
	case err != nil:
		s.logger.Error("enqueue crawl failed", "source", e.Source, "error", err)
	}
}

func (s *Scheduler) runRepeats() {
	defer s.wg.Done()

	ticker := time.NewTicker(repeatPoll)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.fireRepeats(now.UTC())
		}
	}
}

// fireRepeats enqueues one task per repeat spec per window; duplicate
// IDs keep re-polls within a window idempotent.
func (s *Scheduler) fireRepeats(now time.Time) {
	repeats, err := s.queue.ListRepeats(s.ctx)
	if err != nil {
		s.logger.Error("list repeats failed", "error", err)
		return
	}

	for _, r := range repeats {
		err := s.queue.Enqueue(s.ctx, queue.Task{
			ID:      RepeatTaskID(r, now),
			Queue:   r.Queue,
			Type:    r.Type,
			Payload: r.Payload,
		})
		if err != nil && !errors.Is(err, queue.ErrDuplicateTask) {
			s.logger.Error("enqueue repeat failed", "repeat", r.ID, "error", err)
		}
	}
}

// CrawlTaskID derives the deterministic identity for one schedule tick.
func CrawlTaskID(source string, fireTime time.Time, interval time.Duration) string {
	return fmt.Sprintf("crawl:%s:%d", source, fireTime.Truncate(interval).Unix())
}

// RepeatTaskID derives the deterministic identity for one repeat window.
func RepeatTaskID(r queue.Repeat, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", r.Type, r.ID, now.Truncate(r.Every).Unix())
}
