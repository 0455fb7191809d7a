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

// Package autoprocess runs the category-specific side effects for freshly
// ingested emails: prospect creation, client linking, tracking-number
// extraction and critical-alert creation. Handlers are retry safe: the
// caller only invokes them on fresh inserts, and even so each handler
// treats pre-existing linkage or alerts as success rather than error.
package autoprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/store"
	"github.com/avodesk/mailroom/internal/tracking"
)

// DefaultExcerptLimit bounds the body excerpt embedded in alert messages.
const DefaultExcerptLimit = 500

// Store is the persistence surface the processor needs.
type Store interface {
	FindClientByEmail(ctx context.Context, address string) (*store.Client, error)
	CreateClient(ctx context.Context, nc store.NewClient) (*store.Client, error)
	LinkEmailToClient(ctx context.Context, emailID, clientID int64) error
	CreateAlert(ctx context.Context, na store.NewAlert) (*store.Alert, error)
	SetTrackingNumbers(ctx context.Context, emailID int64, numbers []string) error
}

// Notifier pushes created alerts to the UI side channel. Optional.
type Notifier interface {
	PublishAlert(ctx context.Context, a *store.Alert) error
}

// Processor dispatches on the classification type of a fresh insert.
type Processor struct {
	store        Store
	notifier     Notifier
	excerptLimit int
}

// NewProcessor creates a processor. notifier may be nil; excerptLimit <= 0
// selects the default.
func NewProcessor(st Store, notifier Notifier, excerptLimit int) *Processor {
	if excerptLimit <= 0 {
		excerptLimit = DefaultExcerptLimit
	}
	return &Processor{
		store:        st,
		notifier:     notifier,
		excerptLimit: excerptLimit,
	}
}

// Process runs the side effects for one freshly inserted email. Handler
// failures are logged and joined into the returned error; they never undo
// the already-committed insert, so at worst a side effect is missing and a
// later idempotent re-run can supply it.
func (p *Processor) Process(ctx context.Context, rec *store.Email, cls email.Classification) error {
	var errs []error

	switch cls.Type {
	case email.TypeNewClient:
		if err := p.handleNewClient(ctx, rec); err != nil {
			slog.Error("new-client handler failed", "email_id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	case email.TypeClientReply:
		if err := p.handleClientReply(ctx, rec); err != nil {
			slog.Error("client-reply handler failed", "email_id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	case email.TypePostalNotification:
		if err := p.handlePostal(ctx, rec); err != nil {
			slog.Error("postal handler failed", "email_id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	case email.TypeLegalCritical, email.TypeUrgent, email.TypeSpam, email.TypeGeneral:
		// No linkage or extraction side effect for these types.
	}

	if cls.Priority == email.PriorityCritical || cls.Type == email.TypeLegalCritical {
		if err := p.handleAlert(ctx, rec, cls); err != nil {
			slog.Error("alert handler failed", "email_id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// handleNewClient links the email to an existing client matched by sender
// address, or creates exactly one prospect and links that.
func (p *Processor) handleNewClient(ctx context.Context, rec *store.Email) error {
	sender := parseSender(rec.FromAddr)

	existing, err := p.store.FindClientByEmail(ctx, sender.Address)
	if err != nil {
		return fmt.Errorf("find client by email: %w", err)
	}

	if existing != nil {
		slog.Info("linking email to existing client",
			"email_id", rec.ID,
			"client_id", existing.ID,
		)
		return p.store.LinkEmailToClient(ctx, rec.ID, existing.ID)
	}

	client, err := p.store.CreateClient(ctx, store.NewClient{
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
		Email:     sender.Address,
		Status:    "prospect",
		Source:    "email",
		Notes: fmt.Sprintf("Prospect created automatically from email %q received %s",
			rec.Subject, rec.ReceivedAt.Format("2006-01-02")),
	})
	if err != nil {
		return fmt.Errorf("create prospect: %w", err)
	}

	slog.Info("created prospect from inbound email",
		"email_id", rec.ID,
		"client_id", client.ID,
		"address", sender.Address,
	)
	return p.store.LinkEmailToClient(ctx, rec.ID, client.ID)
}

// handleClientReply links the email to an existing client. A reply from an
// unknown address is a no-op: it never fabricates a client.
func (p *Processor) handleClientReply(ctx context.Context, rec *store.Email) error {
	sender := parseSender(rec.FromAddr)

	client, err := p.store.FindClientByEmail(ctx, sender.Address)
	if err != nil {
		return fmt.Errorf("find client by email: %w", err)
	}
	if client == nil {
		slog.Debug("reply from unknown address, leaving unlinked",
			"email_id", rec.ID,
			"address", sender.Address,
		)
		return nil
	}
	return p.store.LinkEmailToClient(ctx, rec.ID, client.ID)
}

// handlePostal extracts tracking numbers from the body. When nothing
// matches, no field is written: an empty-but-present set would be
// indistinguishable from "not yet processed".
func (p *Processor) handlePostal(ctx context.Context, rec *store.Email) error {
	numbers := tracking.Extract(rec.BodyText)
	if len(numbers) == 0 {
		slog.Debug("no tracking numbers found", "email_id", rec.ID)
		return nil
	}

	slog.Info("extracted tracking numbers",
		"email_id", rec.ID,
		"count", len(numbers),
	)
	return p.store.SetTrackingNumbers(ctx, rec.ID, numbers)
}

// handleAlert creates one tenant-scoped alert with a bounded body excerpt.
// Emails without a tenant association are skipped: alerts cannot be
// orphaned.
func (p *Processor) handleAlert(ctx context.Context, rec *store.Email, cls email.Classification) error {
	if rec.TenantID == "" {
		slog.Debug("skipping alert for email without tenant", "email_id", rec.ID)
		return nil
	}

	excerpt := rec.BodyText
	if runes := []rune(excerpt); len(runes) > p.excerptLimit {
		excerpt = string(runes[:p.excerptLimit])
	}

	alert, err := p.store.CreateAlert(ctx, store.NewAlert{
		TenantID: rec.TenantID,
		EmailID:  rec.ID,
		Severity: "CRITICAL",
		Message: fmt.Sprintf("Critical email requires attention (%s)\nSubject: %s\nFrom: %s\nReceived: %s\n\n%s",
			cls.Type, rec.Subject, rec.FromAddr, rec.ReceivedAt.Format(time.RFC3339), excerpt),
	})
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	if p.notifier != nil {
		if err := p.notifier.PublishAlert(ctx, alert); err != nil {
			// The Postgres row is authoritative; the push is best effort.
			slog.Warn("alert notification push failed", "alert_id", alert.ID, "error", err)
		}
	}
	return nil
}
