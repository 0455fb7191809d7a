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

package mailbox

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
)

// GmailClient implements Client against the Gmail API for the practice's
// single monitored mailbox ("me").
type GmailClient struct {
	srv   *gmail.Service
	label string
}

// NewGmailClient wraps an authenticated Gmail service. label restricts
// listing to one mailbox label (normally INBOX).
func NewGmailClient(srv *gmail.Service, label string) *GmailClient {
	if label == "" {
		label = "INBOX"
	}
	return &GmailClient{srv: srv, label: label}
}

// ListUnreadMessageIDs lists unread messages in the configured label.
func (c *GmailClient) ListUnreadMessageIDs(ctx context.Context, limit int64) ([]string, error) {
	return c.listIDs(ctx, "is:unread", limit)
}

// ListMessageIDs lists messages matching an arbitrary Gmail search query.
// Used by the backfill command; the poll loop only needs unread listing.
func (c *GmailClient) ListMessageIDs(ctx context.Context, query string, limit int64) ([]string, error) {
	return c.listIDs(ctx, query, limit)
}

// listIDs pages through the list endpoint. limit <= 0 means unbounded.
func (c *GmailClient) listIDs(ctx context.Context, query string, limit int64) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		pageSize := int64(100)
		if limit > 0 {
			if remaining := limit - int64(len(ids)); remaining < pageSize {
				pageSize = remaining
			}
		}

		call := c.srv.Users.Messages.List("me").
			LabelIds(c.label).
			Q(query).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages (%s): %w", query, err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || (limit > 0 && int64(len(ids)) >= limit) {
			break
		}
	}
	return ids, nil
}

// FetchMessage retrieves the full message payload and converts it to the
// provider-neutral RawMessage shape.
func (c *GmailClient) FetchMessage(ctx context.Context, id string) (*RawMessage, error) {
	msg, err := c.srv.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", id, err)
	}

	raw := &RawMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		InternalDate: msg.InternalDate,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			raw.Headers = append(raw.Headers, Header{Name: h.Name, Value: h.Value})
		}
		raw.Payload = convertPart(msg.Payload)
	}
	return raw, nil
}

// Profile returns the mailbox address of the authenticated account.
func (c *GmailClient) Profile(ctx context.Context) (string, error) {
	profile, err := c.srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// convertPart maps the Gmail part tree onto the neutral Part tree.
func convertPart(p *gmail.MessagePart) *Part {
	if p == nil {
		return nil
	}
	part := &Part{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil {
		part.Data = p.Body.Data
		part.Size = p.Body.Size
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}
