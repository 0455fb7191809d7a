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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/store"
)

// --- Mock store ---

type mockEmailStore struct {
	records []store.EmailWithClassification
	listErr error

	validated struct {
		emailID       int64
		validatedBy   string
		correctedType email.Type
		calls         int
	}
	validateErr error
}

func (m *mockEmailStore) ListRecent(_ context.Context, limit int) ([]store.EmailWithClassification, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *mockEmailStore) Validate(_ context.Context, emailID int64, validatedBy string, correctedType email.Type) error {
	if m.validateErr != nil {
		return m.validateErr
	}
	m.validated.emailID = emailID
	m.validated.validatedBy = validatedBy
	m.validated.correctedType = correctedType
	m.validated.calls++
	return nil
}

func sampleRecord(id int64) store.EmailWithClassification {
	return store.EmailWithClassification{
		Email: store.Email{
			ID:         id,
			MessageID:  "msg-1",
			FromAddr:   "marie@gmail.com",
			Subject:    "Premier contact",
			ReceivedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Classification: email.Classification{
			Type:       email.TypeNewClient,
			Priority:   email.PriorityHigh,
			Confidence: 0.75,
			Tags:       []string{"prospect", "first-contact"},
		},
	}
}

// TestServeEmails_ReturnsJSON verifies the list endpoint shape.
func TestServeEmails_ReturnsJSON(t *testing.T) {
	st := &mockEmailStore{records: []store.EmailWithClassification{sampleRecord(1)}}
	h := NewHandler(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/emails", nil)
	w := httptest.NewRecorder()
	h.ServeEmails(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var views []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d records, want 1", len(views))
	}
	if views[0]["type"] != "new_client" {
		t.Errorf("type = %v, want new_client", views[0]["type"])
	}
	if views[0]["from"] != "marie@gmail.com" {
		t.Errorf("from = %v", views[0]["from"])
	}
}

// TestServeEmails_LimitParam verifies the limit query parameter is applied
// and bounded.
func TestServeEmails_LimitParam(t *testing.T) {
	st := &mockEmailStore{}
	for i := int64(1); i <= 10; i++ {
		st.records = append(st.records, sampleRecord(i))
	}
	h := NewHandler(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/emails?limit=3", nil)
	w := httptest.NewRecorder()
	h.ServeEmails(w, req)

	var views []map[string]any
	json.Unmarshal(w.Body.Bytes(), &views)
	if len(views) != 3 {
		t.Errorf("got %d records, want 3", len(views))
	}
}

// TestServeEmails_MethodNotAllowed rejects writes on the list endpoint.
func TestServeEmails_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&mockEmailStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/emails", nil)
	w := httptest.NewRecorder()
	h.ServeEmails(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

// TestServeEmails_StoreError maps persistence failures to 500.
func TestServeEmails_StoreError(t *testing.T) {
	h := NewHandler(&mockEmailStore{listErr: errors.New("down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/emails", nil)
	w := httptest.NewRecorder()
	h.ServeEmails(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// TestServeValidate_RecordsDecision verifies the happy path.
func TestServeValidate_RecordsDecision(t *testing.T) {
	st := &mockEmailStore{}
	h := NewHandler(st, nil)

	body := strings.NewReader(`{"validated_by": "me.durand", "corrected_type": "client_reply"}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/12/validate", body)
	w := httptest.NewRecorder()
	h.ServeValidate(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (body %q)", w.Code, w.Body.String())
	}
	if st.validated.calls != 1 {
		t.Fatalf("Validate called %d times, want 1", st.validated.calls)
	}
	if st.validated.emailID != 12 || st.validated.validatedBy != "me.durand" {
		t.Errorf("validated = %+v", st.validated)
	}
	if st.validated.correctedType != email.TypeClientReply {
		t.Errorf("correctedType = %q, want client_reply", st.validated.correctedType)
	}
}

// TestServeValidate_ConfirmWithoutCorrection allows an empty corrected_type.
func TestServeValidate_ConfirmWithoutCorrection(t *testing.T) {
	st := &mockEmailStore{}
	h := NewHandler(st, nil)

	body := strings.NewReader(`{"validated_by": "me.durand"}`)
	req := httptest.NewRequest(http.MethodPost, "/emails/12/validate", body)
	w := httptest.NewRecorder()
	h.ServeValidate(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if st.validated.correctedType != "" {
		t.Errorf("correctedType = %q, want empty", st.validated.correctedType)
	}
}

// TestServeValidate_Rejections covers the input validation paths.
func TestServeValidate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"wrong method", http.MethodGet, "/emails/12/validate", "", http.StatusMethodNotAllowed},
		{"bad path", http.MethodPost, "/emails/12/frobnicate", `{"validated_by":"x"}`, http.StatusNotFound},
		{"non-numeric id", http.MethodPost, "/emails/abc/validate", `{"validated_by":"x"}`, http.StatusNotFound},
		{"invalid JSON", http.MethodPost, "/emails/12/validate", `{`, http.StatusBadRequest},
		{"missing validated_by", http.MethodPost, "/emails/12/validate", `{}`, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/emails/12/validate", `{"validated_by":"x","corrected_type":"nonsense"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &mockEmailStore{}
			h := NewHandler(st, nil)

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.ServeValidate(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tc.wantCode)
			}
			if st.validated.calls != 0 {
				t.Errorf("Validate called despite rejection")
			}
		})
	}
}

// TestServeHealth reports dependency state.
func TestServeHealth(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	sick := func(context.Context) error { return errors.New("down") }

	h := NewHandler(&mockEmailStore{}, map[string]HealthCheck{"postgres": healthy, "redis": healthy})
	w := httptest.NewRecorder()
	h.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	h = NewHandler(&mockEmailStore{}, map[string]HealthCheck{"postgres": healthy, "redis": sick})
	w = httptest.NewRecorder()
	h.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
