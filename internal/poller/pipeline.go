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

// Package poller drives the ingestion pipeline on a fixed interval:
// fetch, normalize, classify, store, auto-process. One message failing
// never aborts the rest of the pass.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avodesk/mailroom/internal/classify"
	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/mailbox"
	"github.com/avodesk/mailroom/internal/normalize"
	"github.com/avodesk/mailroom/internal/store"
)

// Mailbox is the provider surface the pipeline needs.
type Mailbox interface {
	ListUnreadMessageIDs(ctx context.Context, limit int64) ([]string, error)
	FetchMessage(ctx context.Context, id string) (*mailbox.RawMessage, error)
}

// Ingestor persists an email + classification pair idempotently.
type Ingestor interface {
	Ingest(ctx context.Context, tenantID string, in *email.Incoming, cls email.Classification) (*store.Email, bool, error)
}

// Processor runs side effects for fresh inserts.
type Processor interface {
	Process(ctx context.Context, rec *store.Email, cls email.Classification) error
}

// Deduper is the Redis fast-path filter. Optional. Seen is consulted before
// any work; MarkSeen is only called once the row is committed, so a failed
// message stays eligible for the next cycle.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	MarkSeen(ctx context.Context, messageID string) error
}

// Pipeline is the per-message processing chain shared by the poll loop and
// the backfill command.
type Pipeline struct {
	Mailbox      Mailbox
	Dedup        Deduper
	Ingestor     Ingestor
	Processor    Processor
	Params       classify.Params
	TenantID     string
	FetchTimeout time.Duration
}

// HandleMessage runs one message through fetch, normalize, classify, ingest
// and auto-process. It reports whether a fresh row was ingested. An
// auto-processing failure is logged but does not surface as an error: the
// committed insert stands and the missing side effect is reconcilable.
func (pl *Pipeline) HandleMessage(ctx context.Context, id string) (bool, error) {
	if pl.Dedup != nil {
		seen, err := pl.Dedup.Seen(ctx, id)
		if err != nil {
			slog.Warn("dedup check failed, proceeding", "message_id", id, "error", err)
		} else if seen {
			return false, nil
		}
	}

	fetchCtx := ctx
	if pl.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, pl.FetchTimeout)
		defer cancel()
	}

	raw, err := pl.Mailbox.FetchMessage(fetchCtx, id)
	if err != nil {
		// Transient: the message stays unread upstream and is retried
		// on the next cycle.
		return false, fmt.Errorf("fetch message: %w", err)
	}

	in := normalize.Normalize(raw)
	cls := classify.Classify(in, pl.Params)

	rec, wasNew, err := pl.Ingestor.Ingest(ctx, pl.TenantID, in, cls)
	if err != nil {
		return false, fmt.Errorf("ingest message: %w", err)
	}

	// The row is committed: only now is the fast-path allowed to remember
	// the ID. Marking earlier would turn a transient fetch or store failure
	// into a silent skip until the key expires.
	if pl.Dedup != nil {
		if err := pl.Dedup.MarkSeen(ctx, id); err != nil {
			slog.Warn("dedup mark failed", "message_id", id, "error", err)
		}
	}

	if !wasNew {
		slog.Debug("message already ingested, skipping side effects", "message_id", id)
		return false, nil
	}

	slog.Info("ingested email",
		"message_id", id,
		"email_id", rec.ID,
		"type", cls.Type,
		"priority", cls.Priority,
		"confidence", cls.Confidence,
	)

	if err := pl.Processor.Process(ctx, rec, cls); err != nil {
		slog.Warn("auto-processing incomplete",
			"email_id", rec.ID,
			"type", cls.Type,
			"error", err,
		)
	}
	return true, nil
}
