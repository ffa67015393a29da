package queue

import (
	"encoding/json"
	"time"
)

// DefaultMaxAttempts is the retry budget per task.
const DefaultMaxAttempts = 3

// Task is one unit of queued work.
type Task struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	RunAt       time.Time       `json:"run_at"`
	LastError   string          `json:"last_error,omitempty"`
}

// Repeat is an operator-registered repeating task spec. Each window of
// Every yields one task with a deterministic ID, so restarts and
// overlapping registrars cannot double-fire a window.
type Repeat struct {
	ID      string          `json:"id"`
	Queue   string          `json:"queue"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Every   time.Duration   `json:"every"`
}

func taskKey(id string) string { return "fxq:task:" + id }

func schedKey(queue string) string { return "fxq:sched:" + queue }

func leaseKey(id string) string { return "fxq:lease:" + id }

func deadKey(queue string) string { return "fxq:dead:" + queue }

func resultKey(id string) string { return "fxq:result:" + id }

const repeatsKey = "fxq:repeats"
