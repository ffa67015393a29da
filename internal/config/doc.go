// Package config loads and validates the YAML configuration for the
// ingestor and its operator tooling. Files are read with ${VAR}
// environment expansion, then defaults are applied before validation.
package config
