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

// Package normalize converts a provider-specific raw message into the
// canonical Incoming record. Normalization is total: a malformed header or
// an undecodable MIME part degrades to a default or empty value instead of
// failing the whole message.
package normalize

import (
	"encoding/base64"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/avodesk/mailroom/internal/email"
	"github.com/avodesk/mailroom/internal/mailbox"
)

const (
	defaultSubject = "(no subject)"
	defaultAddress = "Unknown"
)

// Normalize builds the canonical record for a raw message. It never fails;
// missing headers fall back to documented defaults and the received time
// falls back to the ingestion wall clock.
func Normalize(raw *mailbox.RawMessage) *email.Incoming {
	in := &email.Incoming{
		ProviderMessageID: raw.ID,
		ThreadID:          raw.ThreadID,
		Subject:           headerOrDefault(raw.Headers, "Subject", defaultSubject),
		From:              headerOrDefault(raw.Headers, "From", defaultAddress),
		To:                headerOrDefault(raw.Headers, "To", defaultAddress),
		ReceivedAt:        receivedAt(raw),
		Attachments:       []email.Attachment{},
	}

	parts := flattenParts(raw.Payload)
	in.BodyText = extractBody(raw.ID, parts)

	for _, p := range parts {
		if p.Filename == "" {
			continue
		}
		in.Attachments = append(in.Attachments, email.Attachment{
			Filename:  p.Filename,
			SizeBytes: p.Size,
			MimeType:  p.MimeType,
		})
	}

	return in
}

// headerOrDefault looks a header up case-insensitively.
func headerOrDefault(headers []mailbox.Header, name, fallback string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) && strings.TrimSpace(h.Value) != "" {
			return h.Value
		}
	}
	return fallback
}

// receivedAt prefers the provider's internal timestamp, then the Date
// header, then the current wall clock.
func receivedAt(raw *mailbox.RawMessage) time.Time {
	if raw.InternalDate > 0 {
		return time.UnixMilli(raw.InternalDate).UTC()
	}
	if v := headerOrDefault(raw.Headers, "Date", ""); v != "" {
		if t, err := mail.ParseDate(v); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// flattenParts walks the nested MIME tree depth-first into a flat list.
// Multipart container nodes are included so their children are reached, but
// only leaf parts carry data.
func flattenParts(p *mailbox.Part) []*mailbox.Part {
	if p == nil {
		return nil
	}
	parts := []*mailbox.Part{p}
	for _, child := range p.Parts {
		parts = append(parts, flattenParts(child)...)
	}
	return parts
}

// extractBody prefers the first non-empty text/plain part and falls back to
// text/html, decoded but not stripped: the classifier scores raw decoded
// text and tolerates markup.
func extractBody(msgID string, parts []*mailbox.Part) string {
	var htmlBody string
	for _, p := range parts {
		if p.Filename != "" || p.Data == "" {
			continue
		}
		mime := strings.ToLower(p.MimeType)
		switch {
		case strings.HasPrefix(mime, "text/plain"):
			if body := decodePart(msgID, p); body != "" {
				return body
			}
		case strings.HasPrefix(mime, "text/html"):
			if htmlBody == "" {
				htmlBody = decodePart(msgID, p)
			}
		}
	}
	return htmlBody
}

// decodePart decodes a base64url part body. Gmail normally emits raw URL
// encoding but standard base64 shows up in the wild, so both are tried. A
// corrupt part yields "" and a warning; it never aborts the message.
func decodePart(msgID string, p *mailbox.Part) string {
	decoded, err := base64.RawURLEncoding.DecodeString(p.Data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(p.Data)
	}
	if err != nil {
		slog.Warn("failed to decode message part, skipping",
			"message_id", msgID,
			"mime_type", p.MimeType,
			"error", err,
		)
		return ""
	}
	return string(decoded)
}
