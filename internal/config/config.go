package config

import "time"

// IngestorConfig is the root configuration for an ingestor instance.
type IngestorConfig struct {
	Instance  InstanceConfig `yaml:"instance"`
	Database  DBConfig       `yaml:"database"`
	Redis     RedisConfig    `yaml:"redis"`
	Snapshots SnapshotConfig `yaml:"snapshots"`
	Ingest    IngestConfig   `yaml:"ingest"`
	Queue     QueueConfig    `yaml:"queue"`
	Health    HealthConfig   `yaml:"health"`
	Sources   []SourceConfig `yaml:"sources"`
}

// InstanceConfig identifies this ingestor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DBConfig holds the PostgreSQL connection for tick storage.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds the queue backend connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SnapshotConfig holds raw payload archive settings.
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// IngestConfig holds write-path tuning.
type IngestConfig struct {
	// ChunkSize bounds the rows per batched upsert.
	ChunkSize int `yaml:"chunk_size"`
	// SpreadBps is the synthetic spread, in basis points, applied when
	// a provider reports only a mid rate.
	SpreadBps int `yaml:"spread_bps"`
}

// QueueConfig holds task execution tuning shared by all workers.
type QueueConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// SourceConfig wires one rate provider.
type SourceConfig struct {
	Name        string        `yaml:"name"`
	Queue       string        `yaml:"queue"`
	URL         string        `yaml:"url"`
	Method      string        `yaml:"method"`
	Format      string        `yaml:"format"`
	Interval    time.Duration `yaml:"interval"`
	Priority    int           `yaml:"priority"`
	ChainImport bool          `yaml:"chain_import"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}
