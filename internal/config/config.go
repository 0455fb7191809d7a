// Copyright (c) 2026 Avodesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment
// variables. The YAML file is optional: with no file present the service
// runs on environment variables and defaults alone.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avodesk/mailroom/internal/classify"
)

// MailboxConfig holds credentials and scope for the monitored mailbox.
type MailboxConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	Label           string `yaml:"label"`
}

// Config holds all configuration for the mailroom service.
type Config struct {
	// Identity of the law practice the mailbox belongs to.
	TenantID string

	Mailbox MailboxConfig

	// Polling
	PollInterval time.Duration
	FetchTimeout time.Duration
	BatchLimit   int64

	// Postgres
	DatabaseURL string

	// Redis
	RedisURL    string
	AlertsQueue string

	// Alert excerpt cap, in runes.
	ExcerptLimit int

	// Classifier thresholds and confidence curves.
	Classifier classify.Params

	// Server (API + health check)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	TenantID string        `yaml:"tenant_id"`
	Mailbox  MailboxConfig `yaml:"mailbox"`
	Redis    struct {
		URL    string `yaml:"url"`
		Queues struct {
			Alerts string `yaml:"alerts"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Classifier *classify.Params `yaml:"classifier"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only operation.
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		TenantID: firstNonEmpty(raw.TenantID, os.Getenv("TENANT_ID")),
		Mailbox: MailboxConfig{
			CredentialsFile: firstNonEmpty(raw.Mailbox.CredentialsFile, envOrDefault("GMAIL_CREDENTIALS_FILE", "/app/secrets/credentials.json")),
			TokenFile:       firstNonEmpty(raw.Mailbox.TokenFile, envOrDefault("GMAIL_TOKEN_FILE", "/app/secrets/token.json")),
			Label:           firstNonEmpty(raw.Mailbox.Label, envOrDefault("MAILBOX_LABEL", "INBOX")),
		},
		PollInterval: envOrDefaultDuration("POLL_INTERVAL", 60*time.Second),
		FetchTimeout: envOrDefaultDuration("FETCH_TIMEOUT", 15*time.Second),
		BatchLimit:   int64(envOrDefaultInt("BATCH_LIMIT", 25)),
		DatabaseURL:  envOrDefault("DATABASE_URL", "postgres://localhost:5432/mailroom"),
		RedisURL:     firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		AlertsQueue:  firstNonEmpty(raw.Redis.Queues.Alerts, envOrDefault("ALERTS_QUEUE", "mailroom:alerts")),
		ExcerptLimit: envOrDefaultInt("ALERT_EXCERPT_LIMIT", 500),
		Classifier:   classify.DefaultParams(),
		Port:         envOrDefaultInt("PORT", 8080),
	}

	if raw.Classifier != nil {
		cfg.Classifier = *raw.Classifier
	}

	if cfg.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required — set TENANT_ID or tenant_id in config.yaml")
	}
	if cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("POLL_INTERVAL %s too short, minimum 1s", cfg.PollInterval)
	}
	if cfg.BatchLimit <= 0 {
		return nil, fmt.Errorf("BATCH_LIMIT must be positive, got %d", cfg.BatchLimit)
	}
	if err := cfg.Classifier.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
