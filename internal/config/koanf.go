// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gamedex/config.yaml",
	"/etc/gamedex/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Struct defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; cors_origins expects a slice.
	if raw, ok := k.Get("security.cors_origins").(string); ok {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := k.Set("security.cors_origins", parts); err != nil {
			return nil, fmt.Errorf("failed to normalize cors_origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envAliases maps short environment variable names to config paths.
// These cover the variables operators most commonly set without a file.
var envAliases = map[string]string{
	"port":           "server.port",
	"host":           "server.host",
	"environment":    "server.environment",
	"duckdb_path":    "database.path",
	"jwt_secret":     "security.jwt_secret",
	"auth_mode":      "security.auth_mode",
	"admin_username": "security.admin_username",
	"admin_password": "security.admin_password",
	"cors_origins":   "security.cors_origins",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
}

// configSections are the recognized top-level config sections for the
// SECTION_KEY_NAME -> section.key_name environment variable convention.
var configSections = map[string]bool{
	"server":   true,
	"database": true,
	"security": true,
	"ingest":   true,
	"logging":  true,
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - SERVER_PORT -> server.port
//   - SECURITY_RATE_LIMIT_REQS -> security.rate_limit_reqs
//   - JWT_SECRET -> security.jwt_secret (alias)
//
// Unrecognized variables return "" and are ignored, so unrelated process
// environment does not leak into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if path, ok := envAliases[key]; ok {
		return path
	}

	section, rest, found := strings.Cut(key, "_")
	if !found || !configSections[section] || rest == "" {
		return ""
	}

	return section + "." + rest
}
