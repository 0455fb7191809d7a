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

// Mailroom — Historical Backfill Command
//
// Standalone CLI tool that ingests historical emails from the practice's
// mailbox within a configurable lookback window. Intended for seeding data
// on new deployments; safe to re-run thanks to idempotent ingestion.
//
// Usage:
//
//	go run ./cmd/backfill/ [--since 720h] [--limit 1000]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avodesk/mailroom/internal/autoprocess"
	"github.com/avodesk/mailroom/internal/backfill"
	"github.com/avodesk/mailroom/internal/config"
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

	// --- CLI Flags ---
	sinceFlag := flag.String("since", "720h", "Lookback duration (e.g. 168h for 1 week, 720h for 30 days)")
	limitFlag := flag.Int64("limit", 0, "Maximum number of messages to process (0 = no cap)")
	flag.Parse()

	sinceDuration, err := time.ParseDuration(*sinceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --since duration %q: %v\n", *sinceFlag, err)
		os.Exit(1)
	}

	slog.Info("starting historical backfill", "since", sinceDuration, "limit", *limitFlag)

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("received shutdown signal, stopping backfill", "signal", sig)
		cancel()
	}()

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

	// --- Store ---
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
	slog.Info("backfilling mailbox", "address", address, "label", cfg.Mailbox.Label)

	// --- Pipeline ---
	// The Redis dedup filter is left out on purpose: backfill windows
	// reach past its TTL, so the store's constraint does the filtering.
	pipeline := &poller.Pipeline{
		Mailbox:      mbx,
		Ingestor:     st,
		Processor:    autoprocess.NewProcessor(st, publisher, cfg.ExcerptLimit),
		Params:       cfg.Classifier,
		TenantID:     cfg.TenantID,
		FetchTimeout: cfg.FetchTimeout,
	}
	// --- Run Backfill ---
	runner := backfill.NewRunner(backfill.RunnerConfig{
		Lister:   mbx,
		Pipeline: pipeline,
	})

	result, err := runner.Run(ctx, backfill.Request{
		Since: sinceDuration,
		Limit: *limitFlag,
	})
	if err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	slog.Info("backfill complete",
		"listed", result.Listed,
		"ingested", result.Ingested,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
}
