package config

import (
	"errors"
	"fmt"
)

// payload formats the normalize package understands.
var knownFormats = map[string]bool{
	"vcb":   true,
	"chart": true,
	"bars":  true,
	"quote": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *IngestorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}

	if c.Ingest.ChunkSize < 1 {
		return errors.New("ingest.chunk_size must be >= 1")
	}
	if c.Ingest.SpreadBps < 0 {
		return errors.New("ingest.spread_bps must be >= 0")
	}

	if c.Queue.MaxAttempts < 1 {
		return errors.New("queue.max_attempts must be >= 1")
	}
	if c.Queue.LeaseDuration <= 0 {
		return errors.New("queue.lease_duration must be positive")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].validate(i); err != nil {
			return err
		}
		name := c.Sources[i].Name
		if seen[name] {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, name)
		}
		seen[name] = true
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (s *SourceConfig) validate(i int) error {
	if s.Name == "" {
		return fmt.Errorf("sources[%d].name is required", i)
	}
	if s.URL == "" {
		return fmt.Errorf("sources[%d].url is required", i)
	}
	if !knownFormats[s.Format] {
		return fmt.Errorf("sources[%d].format %q is not supported", i, s.Format)
	}
	// Browser-driven capture is ingested via snapshots, not crawled
	// directly.
	if s.Method != "" && s.Method != "direct-api" {
		return fmt.Errorf("sources[%d].method %q is not supported", i, s.Method)
	}
	if s.Interval <= 0 {
		return fmt.Errorf("sources[%d].interval must be positive", i)
	}
	if s.Priority < 1 {
		return fmt.Errorf("sources[%d].priority must be >= 1", i)
	}
	return nil
}
