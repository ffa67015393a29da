package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultRedisAddr      = "localhost:6379"
	DefaultSnapshotDir    = "data/snapshots"
	DefaultChunkSize      = 1000
	DefaultSpreadBps      = 1
	DefaultMaxAttempts    = 3
	DefaultPollInterval   = 1 * time.Second
	DefaultRetryBaseDelay = 60 * time.Second
	DefaultLeaseDuration  = 5 * time.Minute
	DefaultResultTTL      = 24 * time.Hour
	DefaultHealthPort     = 8090
	DefaultHealthPath     = "/health"
	DefaultSourceTimeout  = 30 * time.Second
	DefaultSourceRetries  = 3
	DefaultCrawlInterval  = 1 * time.Hour
)

func (c *IngestorConfig) applyDefaults() {
	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}

	// Snapshot defaults
	if c.Snapshots.Dir == "" {
		c.Snapshots.Dir = DefaultSnapshotDir
	}

	// Ingest defaults
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = DefaultChunkSize
	}
	if c.Ingest.SpreadBps == 0 {
		c.Ingest.SpreadBps = DefaultSpreadBps
	}

	// Queue defaults
	if c.Queue.MaxAttempts == 0 {
		c.Queue.MaxAttempts = DefaultMaxAttempts
	}
	if c.Queue.PollInterval == 0 {
		c.Queue.PollInterval = DefaultPollInterval
	}
	if c.Queue.RetryBaseDelay == 0 {
		c.Queue.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Queue.LeaseDuration == 0 {
		c.Queue.LeaseDuration = DefaultLeaseDuration
	}
	if c.Queue.ResultTTL == 0 {
		c.Queue.ResultTTL = DefaultResultTTL
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}

	// Source defaults
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Queue == "" {
			src.Queue = src.Name
		}
		if src.Method == "" {
			src.Method = "direct-api"
		}
		if src.Interval == 0 {
			src.Interval = DefaultCrawlInterval
		}
		if src.Timeout == 0 {
			src.Timeout = DefaultSourceTimeout
		}
		if src.MaxRetries == 0 {
			src.MaxRetries = DefaultSourceRetries
		}
		if src.Priority == 0 {
			src.Priority = i + 1
		}
	}
}
