// Package queue is a Redis-backed task queue with deterministic task
// identity, per-queue single-flight execution, lease-based redelivery,
// and exponential-backoff retry.
//
// Task lifecycle: scheduled -> enqueued -> running -> succeeded |
// failed-retrying | failed-terminal. Terminal failures are parked in a
// per-queue dead set and stay queryable until cleared by an operator.
//
// Keys:
//
//	fxq:task:<id>    task body (JSON), guards duplicate identity via SETNX
//	fxq:sched:<q>    ZSET of task IDs scored by next run time
//	fxq:lease:<id>   claim marker with TTL; expiry makes the task redeliverable
//	fxq:dead:<q>     HASH of terminally failed tasks
//	fxq:result:<id>  last completion result (JSON), bounded TTL
//	fxq:repeats      HASH of operator-registered repeating task specs
//
// The Redis client is constructed once at startup and passed by
// reference to every Client and Worker; there is no hidden global
// connection state.
package queue
