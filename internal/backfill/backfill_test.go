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

package backfill

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avodesk/mailroom/internal/classify"
	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/mailbox"
	"github.com/avodesk/mailroom/internal/poller"
	"github.com/avodesk/mailroom/internal/store"
)

// --- Mock lister + mailbox ---

type mockMailbox struct {
	ids       []string
	listErr   error
	lastQuery string
	lastLimit int64
	fetchErr  map[string]error
}

func (m *mockMailbox) ListMessageIDs(_ context.Context, query string, limit int64) ([]string, error) {
	m.lastQuery = query
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > 0 && int64(len(m.ids)) > limit {
		return m.ids[:limit], nil
	}
	return m.ids, nil
}

func (m *mockMailbox) ListUnreadMessageIDs(_ context.Context, limit int64) ([]string, error) {
	return nil, errors.New("not used by backfill")
}

func (m *mockMailbox) FetchMessage(_ context.Context, id string) (*mailbox.RawMessage, error) {
	if err, ok := m.fetchErr[id]; ok {
		return nil, err
	}
	return &mailbox.RawMessage{
		ID:           id,
		InternalDate: 1767225600000,
		Headers: []mailbox.Header{
			{Name: "Subject", Value: "Bonjour"},
			{Name: "From", Value: "x@y.fr"},
			{Name: "To", Value: "cabinet@avodesk.fr"},
		},
		Payload: &mailbox.Part{
			MimeType: "text/plain",
			Data:     base64.RawURLEncoding.EncodeToString([]byte("archive")),
		},
	}, nil
}

// --- Mock ingestor ---

type mockIngestor struct {
	duplicate map[string]bool
	ingested  []string
}

func (m *mockIngestor) Ingest(_ context.Context, tenantID string, in *email.Incoming, _ email.Classification) (*store.Email, bool, error) {
	rec := &store.Email{ID: int64(len(m.ingested) + 1), MessageID: in.ProviderMessageID, TenantID: tenantID}
	if m.duplicate[in.ProviderMessageID] {
		return rec, false, nil
	}
	m.ingested = append(m.ingested, in.ProviderMessageID)
	return rec, true, nil
}

type noopProcessor struct{}

func (noopProcessor) Process(context.Context, *store.Email, email.Classification) error { return nil }

func testRunner(mbx *mockMailbox, ing *mockIngestor) *Runner {
	return NewRunner(RunnerConfig{
		Lister: mbx,
		Pipeline: &poller.Pipeline{
			Mailbox:   mbx,
			Ingestor:  ing,
			Processor: noopProcessor{},
			Params:    classify.DefaultParams(),
			TenantID:  "cabinet-1",
		},
		BatchDelay: time.Millisecond,
	})
}

// TestRun_IngestsWindow verifies listing, query shape and counts.
func TestRun_IngestsWindow(t *testing.T) {
	mbx := &mockMailbox{ids: []string{"msg-1", "msg-2", "msg-3"}}
	ing := &mockIngestor{}
	r := testRunner(mbx, ing)

	result, err := r.Run(context.Background(), Request{Since: 720 * time.Hour, Limit: 100})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.HasPrefix(mbx.lastQuery, "after:") {
		t.Errorf("query = %q, want an after: date filter", mbx.lastQuery)
	}
	if mbx.lastLimit != 100 {
		t.Errorf("limit = %d, want 100", mbx.lastLimit)
	}
	if result.Listed != 3 || result.Ingested != 3 || result.Errors != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(ing.ingested) != 3 {
		t.Errorf("ingested = %v", ing.ingested)
	}
}

// TestRun_SkipsDuplicates verifies re-runs over the same window count
// duplicates as skipped.
func TestRun_SkipsDuplicates(t *testing.T) {
	mbx := &mockMailbox{ids: []string{"msg-1", "msg-2"}}
	ing := &mockIngestor{duplicate: map[string]bool{"msg-1": true}}
	r := testRunner(mbx, ing)

	result, err := r.Run(context.Background(), Request{Since: time.Hour})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Ingested != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 ingested / 1 skipped", result)
	}
}

// TestRun_CountsFailuresAndContinues verifies a broken message is recorded
// without aborting the run.
func TestRun_CountsFailuresAndContinues(t *testing.T) {
	mbx := &mockMailbox{
		ids:      []string{"msg-1", "msg-2", "msg-3"},
		fetchErr: map[string]error{"msg-2": errors.New("503")},
	}
	ing := &mockIngestor{}
	r := testRunner(mbx, ing)

	result, err := r.Run(context.Background(), Request{Since: time.Hour})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Ingested != 2 || result.Errors != 1 {
		t.Errorf("result = %+v, want 2 ingested / 1 error", result)
	}
}

// TestRun_ListErrorIsFatal verifies a listing failure aborts the run.
func TestRun_ListErrorIsFatal(t *testing.T) {
	mbx := &mockMailbox{listErr: errors.New("401")}
	r := testRunner(mbx, &mockIngestor{})

	if _, err := r.Run(context.Background(), Request{Since: time.Hour}); err == nil {
		t.Fatal("expected error for failing listing")
	}
}

// TestRun_EmptyWindow verifies clean completion with zero messages.
func TestRun_EmptyWindow(t *testing.T) {
	mbx := &mockMailbox{}
	r := testRunner(mbx, &mockIngestor{})

	result, err := r.Run(context.Background(), Request{Since: time.Hour})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Listed != 0 || result.Ingested != 0 {
		t.Errorf("result = %+v, want all-zero", result)
	}
}
