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

// Package email defines the canonical message structures shared across the
// ingestion pipeline.
package email

import "time"

// Attachment describes a file attached to a message.
type Attachment struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// Incoming is the provider-agnostic representation of a fetched message.
// It is produced once by the normalizer and never mutated afterwards.
type Incoming struct {
	ProviderMessageID string       `json:"provider_message_id"`
	ThreadID          string       `json:"thread_id,omitempty"`
	From              string       `json:"from"`
	To                string       `json:"to"`
	Subject           string       `json:"subject"`
	BodyText          string       `json:"body_text"`
	ReceivedAt        time.Time    `json:"received_at"`
	Attachments       []Attachment `json:"attachments"`
}
