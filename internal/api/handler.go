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

// Package api exposes the small HTTP surface the practice-management app
// consumes: recent ingested emails with their classifications, the reviewer
// validation endpoint, and a health check. Validation is a correction
// channel, not a re-classification trigger: it only writes the review
// fields and leaves the machine-assigned type and confidence intact.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/store"
)

// EmailStore is the persistence surface the handler needs.
type EmailStore interface {
	ListRecent(ctx context.Context, limit int) ([]store.EmailWithClassification, error)
	Validate(ctx context.Context, emailID int64, validatedBy string, correctedType email.Type) error
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handler serves the review and diagnostics endpoints.
type Handler struct {
	store  EmailStore
	checks map[string]HealthCheck
}

// NewHandler creates a handler. checks maps a dependency name to its probe.
func NewHandler(st EmailStore, checks map[string]HealthCheck) *Handler {
	return &Handler{store: st, checks: checks}
}

// Register wires the handler's routes onto a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.ServeHealth)
	mux.HandleFunc("/emails", h.ServeEmails)
	mux.HandleFunc("/emails/", h.ServeValidate)
}

// ServeHealth reports 200 when every dependency probe passes.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			http.Error(w, name+" unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

// emailView is the JSON shape of one listed email.
type emailView struct {
	ID              int64      `json:"id"`
	MessageID       string     `json:"message_id"`
	From            string     `json:"from"`
	Subject         string     `json:"subject"`
	ReceivedAt      time.Time  `json:"received_at"`
	ClientID        *int64     `json:"client_id"`
	TrackingNumbers []string   `json:"tracking_numbers,omitempty"`
	IsRead          bool       `json:"is_read"`
	Type            email.Type `json:"type"`
	Priority        string     `json:"priority"`
	Confidence      float64    `json:"confidence"`
	Tags            []string   `json:"tags"`
	SuggestedAction string     `json:"suggested_action,omitempty"`
	Validated       bool       `json:"validated"`
	CorrectedType   email.Type `json:"corrected_type,omitempty"`
}

// ServeEmails lists recent emails with their classifications.
func (h *Handler) ServeEmails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("list recent emails failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]emailView, 0, len(records))
	for _, rec := range records {
		views = append(views, emailView{
			ID:              rec.Email.ID,
			MessageID:       rec.Email.MessageID,
			From:            rec.Email.FromAddr,
			Subject:         rec.Email.Subject,
			ReceivedAt:      rec.Email.ReceivedAt,
			ClientID:        rec.Email.ClientID,
			TrackingNumbers: rec.Email.TrackingNumbers,
			IsRead:          rec.Email.IsRead,
			Type:            rec.Classification.Type,
			Priority:        string(rec.Classification.Priority),
			Confidence:      rec.Classification.Confidence,
			Tags:            rec.Classification.Tags,
			SuggestedAction: rec.Classification.SuggestedAction,
			Validated:       rec.Classification.Validated,
			CorrectedType:   rec.Classification.CorrectedType,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// validateRequest is the reviewer correction payload. corrected_type is
// optional: an empty value confirms the machine classification.
type validateRequest struct {
	ValidatedBy   string `json:"validated_by"`
	CorrectedType string `json:"corrected_type"`
}

// ServeValidate records a reviewer decision: POST /emails/{id}/validate.
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	emailID, err := parseValidatePath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ValidatedBy) == "" {
		http.Error(w, "validated_by is required", http.StatusBadRequest)
		return
	}

	correctedType := email.Type(req.CorrectedType)
	if req.CorrectedType != "" && !correctedType.Valid() {
		http.Error(w, fmt.Sprintf("unknown classification type %q", req.CorrectedType), http.StatusBadRequest)
		return
	}

	if err := h.store.Validate(r.Context(), emailID, req.ValidatedBy, correctedType); err != nil {
		slog.Error("validate classification failed", "email_id", emailID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("classification validated",
		"email_id", emailID,
		"validated_by", req.ValidatedBy,
		"corrected_type", req.CorrectedType,
	)
	w.WriteHeader(http.StatusNoContent)
}

// parseValidatePath extracts the email ID from "/emails/{id}/validate".
func parseValidatePath(path string) (int64, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "emails" || parts[2] != "validate" {
		return 0, fmt.Errorf("unexpected path: %s", path)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid email id: %s", parts[1])
	}
	return id, nil
}

// Serve starts the HTTP server on the given port. It binds immediately and
// signals readiness via the returned channel before accepting connections.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind API port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("API server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return ready, nil
}
