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

// Package backfill ingests historical emails by listing mailbox messages
// within a lookback window and running them through the same per-message
// pipeline the poller uses. Intended for seeding data on new deployments;
// idempotent ingestion makes re-runs over the same window safe.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avodesk/mailroom/internal/poller"
)

// Lister lists message IDs matching a provider-side query, read or unread.
type Lister interface {
	ListMessageIDs(ctx context.Context, query string, limit int64) ([]string, error)
}

// Request defines the scope of a historical ingestion run.
type Request struct {
	Since time.Duration // lookback window (e.g. 720h = 30 days)
	Limit int64         // maximum messages to process, 0 = no cap
}

// Result summarises a completed backfill run.
type Result struct {
	Listed   int
	Ingested int
	Skipped  int
	Errors   int
	Elapsed  time.Duration
}

// Runner performs historical email backfill.
type Runner struct {
	lister     Lister
	pipeline   *poller.Pipeline
	batchDelay time.Duration // pause between batches to avoid throttling
	batchSize  int
}

// RunnerConfig holds dependencies for the backfill runner.
type RunnerConfig struct {
	Lister     Lister
	Pipeline   *poller.Pipeline
	BatchDelay time.Duration
	BatchSize  int
}

// NewRunner creates a backfill runner.
func NewRunner(cfg RunnerConfig) *Runner {
	delay := cfg.BatchDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	size := cfg.BatchSize
	if size <= 0 {
		size = 50
	}
	return &Runner{
		lister:     cfg.Lister,
		pipeline:   cfg.Pipeline,
		batchDelay: delay,
		batchSize:  size,
	}
}

// Run lists and processes all messages in the lookback window. Per-message
// failures are counted and skipped; only the listing call itself is fatal.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	since := time.Now().UTC().Add(-req.Since)

	// Gmail search granularity for after: is a calendar day.
	query := fmt.Sprintf("after:%s", since.Format("2006/01/02"))

	slog.Info("starting historical backfill",
		"since", since.Format(time.RFC3339),
		"query", query,
		"limit", req.Limit,
	)

	ids, err := r.lister.ListMessageIDs(ctx, query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("list historical messages: %w", err)
	}

	result := &Result{Listed: len(ids)}

	for i, id := range ids {
		// Rate limit between batches
		if i > 0 && i%r.batchSize == 0 {
			select {
			case <-ctx.Done():
				result.Elapsed = time.Since(start)
				return result, ctx.Err()
			case <-time.After(r.batchDelay):
			}
			slog.Debug("backfill batch complete",
				"processed", i,
				"remaining", len(ids)-i,
			)
		}

		ok, err := r.pipeline.HandleMessage(ctx, id)
		switch {
		case err != nil:
			slog.Warn("backfill: message failed, continuing",
				"message_id", id,
				"error", err,
			)
			result.Errors++
		case ok:
			result.Ingested++
		default:
			result.Skipped++
		}
	}

	result.Elapsed = time.Since(start)

	slog.Info("historical backfill complete",
		"listed", result.Listed,
		"ingested", result.Ingested,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)

	return result, nil
}
