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

package poller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Poller runs the pipeline at a fixed interval. It is a two-state machine:
// Idle between ticks and Polling while a pass is in flight. A tick arriving
// while still Polling is skipped, never queued, so a slow provider or a
// large unread backlog cannot pile up overlapping passes against the same
// mailbox and store.
type Poller struct {
	pipeline   *Pipeline
	interval   time.Duration
	batchLimit int64

	polling atomic.Bool
}

// New creates a poller over the given pipeline.
func New(pipeline *Pipeline, interval time.Duration, batchLimit int64) *Poller {
	return &Poller{
		pipeline:   pipeline,
		interval:   interval,
		batchLimit: batchLimit,
	}
}

// Run starts the polling loop and blocks until the context is cancelled.
// An in-flight pass is abandoned wholesale only on shutdown.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("mailbox poller starting",
		"interval", p.interval,
		"batch_limit", p.batchLimit,
	)

	// Initial poll immediately, then on the ticker.
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("mailbox poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll executes one full pass. Messages are processed sequentially; a
// per-message failure is logged and the pass continues with the rest.
func (p *Poller) poll(ctx context.Context) {
	if !p.polling.CompareAndSwap(false, true) {
		slog.Warn("previous poll still in flight, skipping tick")
		return
	}
	defer p.polling.Store(false)

	runID := uuid.New().String()[:8]
	start := time.Now()

	ids, err := p.pipeline.Mailbox.ListUnreadMessageIDs(ctx, p.batchLimit)
	if err != nil {
		slog.Error("failed to list unread messages", "run_id", runID, "error", err)
		return
	}
	if len(ids) == 0 {
		slog.Debug("no unread messages", "run_id", runID)
		return
	}

	var ingested, failed int
	for _, id := range ids {
		ok, err := p.pipeline.HandleMessage(ctx, id)
		if err != nil {
			slog.Error("message processing failed, continuing",
				"run_id", runID,
				"message_id", id,
				"error", err,
			)
			failed++
			continue
		}
		if ok {
			ingested++
		}
	}

	slog.Info("poll pass complete",
		"run_id", runID,
		"listed", len(ids),
		"ingested", ingested,
		"failed", failed,
		"elapsed", time.Since(start),
	)
}
