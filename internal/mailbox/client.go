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

// Package mailbox provides the narrow boundary to the remote mail provider:
// list unread message IDs, fetch a full message, and a best-effort profile
// query for diagnostics. Everything else about the provider (auth flow,
// quotas, labels) stays behind this package.
package mailbox

import "context"

// Header is a single message header as delivered by the provider.
type Header struct {
	Name  string
	Value string
}

// Part is one node of the provider's MIME tree. Data carries the base64url
// payload for leaf parts; Parts carries children for multipart nodes.
type Part struct {
	MimeType string
	Filename string
	Data     string
	Size     int64
	Parts    []*Part
}

// RawMessage is the provider-specific payload before normalization.
type RawMessage struct {
	ID           string
	ThreadID     string
	Headers      []Header
	Payload      *Part
	InternalDate int64 // milliseconds since epoch, 0 if unknown
}

// Client is the provider boundary consumed by the poll loop.
type Client interface {
	// ListUnreadMessageIDs returns up to limit IDs of unread messages.
	ListUnreadMessageIDs(ctx context.Context, limit int64) ([]string, error)

	// FetchMessage retrieves the full message content for an ID.
	FetchMessage(ctx context.Context, id string) (*RawMessage, error)

	// Profile returns the authenticated mailbox address for diagnostics.
	Profile(ctx context.Context) (string, error)
}
