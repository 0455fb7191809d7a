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

// Mailroom — Email Ingestion Service
//
// Entry point for the mailroom service. It:
//  1. Loads configuration from config.yaml and environment variables
//  2. Connects to PostgreSQL and Redis
//  3. Authenticates against the practice's Gmail mailbox
//  4. Runs the interval poll loop (fetch, normalize, classify, store,
//     auto-process)
//  5. Serves the review API and health check
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avodesk/mailroom/internal/api"
	"github.com/avodesk/mailroom/internal/autoprocess"
	"github.com/avodesk/mailroom/internal/config"
	"github.com/avodesk/mailroom/internal/dedup"
	"github.com/avodesk/mailroom/internal/mailbox"
	"github.com/avodesk/mailroom/internal/notify"
	"github.com/avodesk/mailroom/internal/poller"
	"github.com/avodesk/mailroom/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting mailroom ingestion service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"tenant", cfg.TenantID,
		"poll_interval", cfg.PollInterval,
		"batch_limit", cfg.BatchLimit,
		"label", cfg.Mailbox.Label,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	publisher := notify.NewPublisher(rdb, cfg.AlertsQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Dedup Filter ---
	filter := dedup.NewFilter(rdb)

	// --- Store (Postgres) ---
	st, err := store.NewStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise store", "error", err)
		os.Exit(1)
	}

	// --- Gmail Mailbox ---
	srv, err := mailbox.NewGmailService(ctx, cfg.Mailbox.CredentialsFile, cfg.Mailbox.TokenFile)
	if err != nil {
		slog.Error("failed to authenticate Gmail mailbox", "error", err)
		os.Exit(1)
	}
	mbx := mailbox.NewGmailClient(srv, cfg.Mailbox.Label)

	address, err := mbx.Profile(ctx)
	if err != nil {
		slog.Error("failed to read mailbox profile", "error", err)
		os.Exit(1)
	}
	slog.Info("monitoring mailbox", "address", address, "label", cfg.Mailbox.Label)

	// --- Auto-Processor ---
	processor := autoprocess.NewProcessor(st, publisher, cfg.ExcerptLimit)

	// --- Pipeline + Poller ---
	pipeline := &poller.Pipeline{
		Mailbox:      mbx,
		Dedup:        filter,
		Ingestor:     st,
		Processor:    processor,
		Params:       cfg.Classifier,
		TenantID:     cfg.TenantID,
		FetchTimeout: cfg.FetchTimeout,
	}
	p := poller.New(pipeline, cfg.PollInterval, cfg.BatchLimit)

	// --- API Server ---
	handler := api.NewHandler(st, map[string]api.HealthCheck{
		"postgres": st.Ping,
		"redis":    publisher.Ping,
	})
	ready, err := api.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start API server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Blocks until the context is cancelled.
	p.Run(ctx)

	slog.Info("mailroom ingestion service stopped")
}
