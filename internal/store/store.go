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

// Package store provides the Postgres persistence boundary for ingested
// emails, their classifications, client records and alerts. Ingestion is
// idempotent: the UNIQUE constraint on message_id turns a re-observed
// message, including a race between concurrent pollers, into a no-op.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avodesk/mailroom/internal/email"
)

// Email is a persisted message row. ClientID and DossierID reference
// entities owned by the surrounding practice-management application.
// TrackingNumbers is nil until the postal handler writes a non-empty set.
type Email struct {
	ID              int64
	MessageID       string
	ThreadID        string
	TenantID        string
	FromAddr        string
	ToAddr          string
	Subject         string
	BodyText        string
	ReceivedAt      time.Time
	ClientID        *int64
	DossierID       *int64
	TrackingNumbers []string
	IsRead          bool
	CreatedAt       time.Time
}

// Client is a practice client or prospect, referenced by ingested emails.
type Client struct {
	ID        int64
	Reference string
	FirstName string
	LastName  string
	Email     string
	Status    string
	Source    string
	Notes     string
	CreatedAt time.Time
}

// NewClient holds the fields for creating a prospect.
type NewClient struct {
	FirstName string
	LastName  string
	Email     string
	Status    string
	Source    string
	Notes     string
}

// Alert is a critical notification scoped to a tenant. At most one alert
// exists per email.
type Alert struct {
	ID        int64
	TenantID  string
	EmailID   int64
	Severity  string
	Message   string
	CreatedAt time.Time
}

// NewAlert holds the fields for creating an alert.
type NewAlert struct {
	TenantID string
	EmailID  int64
	Severity string
	Message  string
}

// EmailWithClassification joins an email row with its owned classification
// for the review surface.
type EmailWithClassification struct {
	Email          Email
	Classification email.Classification
}

// Store provides CRUD operations backed by a Postgres pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates the store and ensures the schema exists.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure ingestion schema: %w", err)
	}
	slog.Info("ingestion store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clients (
			id         BIGSERIAL PRIMARY KEY,
			reference  TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'prospect',
			source     TEXT NOT NULL DEFAULT '',
			notes      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_clients_email ON clients(lower(email));

		CREATE TABLE IF NOT EXISTS emails (
			id               BIGSERIAL PRIMARY KEY,
			message_id       TEXT NOT NULL UNIQUE,
			thread_id        TEXT NOT NULL DEFAULT '',
			tenant_id        TEXT NOT NULL DEFAULT '',
			from_addr        TEXT NOT NULL,
			to_addr          TEXT NOT NULL,
			subject          TEXT NOT NULL,
			body_text        TEXT NOT NULL DEFAULT '',
			received_at      TIMESTAMPTZ NOT NULL,
			client_id        BIGINT REFERENCES clients(id),
			dossier_id       BIGINT,
			tracking_numbers TEXT[],
			is_read          BOOLEAN NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ DEFAULT NOW(),
			updated_at       TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_emails_tenant ON emails(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_emails_received ON emails(received_at);
		CREATE INDEX IF NOT EXISTS idx_emails_client ON emails(client_id);

		CREATE TABLE IF NOT EXISTS classifications (
			id               BIGSERIAL PRIMARY KEY,
			email_id         BIGINT NOT NULL UNIQUE REFERENCES emails(id),
			type             TEXT NOT NULL,
			priority         TEXT NOT NULL,
			confidence       DOUBLE PRECISION NOT NULL,
			tags             TEXT[] NOT NULL DEFAULT '{}',
			suggested_action TEXT NOT NULL DEFAULT '',
			validated        BOOLEAN NOT NULL DEFAULT FALSE,
			validated_by     TEXT NOT NULL DEFAULT '',
			validated_at     TIMESTAMPTZ,
			corrected_type   TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_classifications_type ON classifications(type);

		CREATE TABLE IF NOT EXISTS alerts (
			id         BIGSERIAL PRIMARY KEY,
			tenant_id  TEXT NOT NULL,
			email_id   BIGINT NOT NULL UNIQUE REFERENCES emails(id),
			severity   TEXT NOT NULL,
			message    TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_tenant ON alerts(tenant_id);
	`)
	return err
}

// Ingest persists an email and its classification in one transaction.
// If a row with the same message ID already exists, nothing is written and
// the existing record is returned with wasNew=false; auto-processing must
// only run when wasNew is true.
func (s *Store) Ingest(ctx context.Context, tenantID string, in *email.Incoming, cls email.Classification) (*Email, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec := &Email{
		MessageID:  in.ProviderMessageID,
		ThreadID:   in.ThreadID,
		TenantID:   tenantID,
		FromAddr:   in.From,
		ToAddr:     in.To,
		Subject:    in.Subject,
		BodyText:   in.BodyText,
		ReceivedAt: in.ReceivedAt,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO emails (message_id, thread_id, tenant_id, from_addr, to_addr, subject, body_text, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (message_id) DO NOTHING
		RETURNING id, created_at
	`, rec.MessageID, rec.ThreadID, rec.TenantID, rec.FromAddr, rec.ToAddr,
		rec.Subject, rec.BodyText, rec.ReceivedAt,
	).Scan(&rec.ID, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Duplicate: another cycle (or poller) already ingested it.
		existing, lookupErr := s.GetByMessageID(ctx, in.ProviderMessageID)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("load existing email %s: %w", in.ProviderMessageID, lookupErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert email: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO classifications (email_id, type, priority, confidence, tags, suggested_action)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, string(cls.Type), string(cls.Priority), cls.Confidence, cls.Tags, cls.SuggestedAction)
	if err != nil {
		return nil, false, fmt.Errorf("insert classification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit ingest tx: %w", err)
	}
	return rec, true, nil
}

// GetByMessageID retrieves an email by its provider message ID.
// Returns (nil, nil) when no row exists.
func (s *Store) GetByMessageID(ctx context.Context, messageID string) (*Email, error) {
	row := s.pool.QueryRow(ctx, emailSelect+` WHERE message_id = $1`, messageID)
	return scanEmail(row)
}

// GetEmail retrieves an email by its row ID. Returns (nil, nil) when no row
// exists.
func (s *Store) GetEmail(ctx context.Context, id int64) (*Email, error) {
	row := s.pool.QueryRow(ctx, emailSelect+` WHERE id = $1`, id)
	return scanEmail(row)
}

// FindClientByEmail looks up a client by exact address match
// (case-insensitive). Returns (nil, nil) when none exists.
func (s *Store) FindClientByEmail(ctx context.Context, address string) (*Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, reference, first_name, last_name, email, status, source, notes, created_at
		FROM clients
		WHERE lower(email) = lower($1)
		ORDER BY id
		LIMIT 1
	`, address)

	var c Client
	err := row.Scan(&c.ID, &c.Reference, &c.FirstName, &c.LastName, &c.Email,
		&c.Status, &c.Source, &c.Notes, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a new client row and returns it.
func (s *Store) CreateClient(ctx context.Context, nc NewClient) (*Client, error) {
	c := Client{
		Reference: uuid.New().String(),
		FirstName: nc.FirstName,
		LastName:  nc.LastName,
		Email:     nc.Email,
		Status:    nc.Status,
		Source:    nc.Source,
		Notes:     nc.Notes,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (reference, first_name, last_name, email, status, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, c.Reference, c.FirstName, c.LastName, c.Email, c.Status, c.Source, c.Notes,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return &c, nil
}

// LinkEmailToClient sets the email's client foreign key. An email already
// linked (to this or any client) is left untouched; the call still
// succeeds, since a pre-existing link means the work is already done.
func (s *Store) LinkEmailToClient(ctx context.Context, emailID, clientID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE emails
		SET client_id = $1, updated_at = NOW()
		WHERE id = $2 AND client_id IS NULL
	`, clientID, emailID)
	return err
}

// CreateAlert inserts an alert for an email. If an alert already exists for
// that email the existing one is returned unchanged, so retries never
// produce a second alert.
func (s *Store) CreateAlert(ctx context.Context, na NewAlert) (*Alert, error) {
	a := Alert{
		TenantID: na.TenantID,
		EmailID:  na.EmailID,
		Severity: na.Severity,
		Message:  na.Message,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO alerts (tenant_id, email_id, severity, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email_id) DO NOTHING
		RETURNING id, created_at
	`, a.TenantID, a.EmailID, a.Severity, a.Message).Scan(&a.ID, &a.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		row := s.pool.QueryRow(ctx, `
			SELECT id, tenant_id, email_id, severity, message, created_at
			FROM alerts WHERE email_id = $1
		`, na.EmailID)
		var existing Alert
		if err := row.Scan(&existing.ID, &existing.TenantID, &existing.EmailID,
			&existing.Severity, &existing.Message, &existing.CreatedAt); err != nil {
			return nil, fmt.Errorf("load existing alert: %w", err)
		}
		return &existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return &a, nil
}

// SetTrackingNumbers persists the extracted tracking numbers for an email.
// Callers only invoke this with a non-empty set.
func (s *Store) SetTrackingNumbers(ctx context.Context, emailID int64, numbers []string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE emails SET tracking_numbers = $1, updated_at = NOW() WHERE id = $2
	`, numbers, emailID)
	return err
}

// Validate records a human review decision on a classification. Only the
// validation fields change; the machine-assigned type and confidence stay
// untouched for audit.
func (s *Store) Validate(ctx context.Context, emailID int64, validatedBy string, correctedType email.Type) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE classifications
		SET validated = TRUE, validated_by = $1, validated_at = NOW(), corrected_type = $2
		WHERE email_id = $3
	`, validatedBy, string(correctedType), emailID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no classification for email %d", emailID)
	}
	return nil
}

// ListRecent returns the most recently received emails joined with their
// classifications, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]EmailWithClassification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT e.id, e.message_id, e.thread_id, e.tenant_id, e.from_addr, e.to_addr,
		       e.subject, e.body_text, e.received_at, e.client_id, e.dossier_id,
		       e.tracking_numbers, e.is_read, e.created_at,
		       c.type, c.priority, c.confidence, c.tags, c.suggested_action,
		       c.validated, c.validated_by, c.validated_at, c.corrected_type
		FROM emails e
		JOIN classifications c ON c.email_id = e.id
		ORDER BY e.received_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []EmailWithClassification
	for rows.Next() {
		var r EmailWithClassification
		var typ, priority, correctedType string
		if err := rows.Scan(
			&r.Email.ID, &r.Email.MessageID, &r.Email.ThreadID, &r.Email.TenantID,
			&r.Email.FromAddr, &r.Email.ToAddr, &r.Email.Subject, &r.Email.BodyText,
			&r.Email.ReceivedAt, &r.Email.ClientID, &r.Email.DossierID,
			&r.Email.TrackingNumbers, &r.Email.IsRead, &r.Email.CreatedAt,
			&typ, &priority, &r.Classification.Confidence, &r.Classification.Tags,
			&r.Classification.SuggestedAction, &r.Classification.Validated,
			&r.Classification.ValidatedBy, &r.Classification.ValidatedAt, &correctedType,
		); err != nil {
			return nil, err
		}
		r.Classification.Type = email.Type(typ)
		r.Classification.Priority = email.Priority(priority)
		r.Classification.CorrectedType = email.Type(correctedType)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Ping checks the Postgres connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const emailSelect = `
	SELECT id, message_id, thread_id, tenant_id, from_addr, to_addr, subject,
	       body_text, received_at, client_id, dossier_id, tracking_numbers,
	       is_read, created_at
	FROM emails`

// scanEmail scans a single email row; pgx.ErrNoRows maps to (nil, nil).
func scanEmail(row pgx.Row) (*Email, error) {
	var e Email
	err := row.Scan(
		&e.ID, &e.MessageID, &e.ThreadID, &e.TenantID, &e.FromAddr, &e.ToAddr,
		&e.Subject, &e.BodyText, &e.ReceivedAt, &e.ClientID, &e.DossierID,
		&e.TrackingNumbers, &e.IsRead, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
