// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package config loads and validates application configuration from layered
// sources: struct defaults, an optional YAML config file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development" or "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "jwt" or "none"
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// IngestConfig holds CSV ingestion settings.
type IngestConfig struct {
	// RowBatchSize is the number of CSV rows normalized per chunk while
	// streaming through the file. The reconciliation phase still sees the
	// whole upload as one batch.
	RowBatchSize int `koanf:"row_batch_size"`

	// DownloadChunkBytes is the buffer size used when streaming the remote
	// CSV to local storage.
	DownloadChunkBytes int `koanf:"download_chunk_bytes"`

	// TempDir is where fetched CSV files are staged. Empty uses the OS
	// default. Files are removed when the request completes.
	TempDir string `koanf:"temp_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8642,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/gamedex.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Ingest: IngestConfig{
			RowBatchSize:       20000,
			DownloadChunkBytes: 8192,
			TempDir:            "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode is jwt")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required when auth_mode is jwt")
		}
	case "none":
		// Explicitly disabled; acceptable for development only.
	default:
		return fmt.Errorf("security.auth_mode must be \"jwt\" or \"none\", got %q", c.Security.AuthMode)
	}

	if c.Ingest.RowBatchSize <= 0 {
		return fmt.Errorf("ingest.row_batch_size must be positive, got %d", c.Ingest.RowBatchSize)
	}
	if c.Ingest.DownloadChunkBytes <= 0 {
		return fmt.Errorf("ingest.download_chunk_bytes must be positive, got %d", c.Ingest.DownloadChunkBytes)
	}

	return nil
}
