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

// Package dedup provides a Redis fast-path filter over message IDs so the
// poll loop can skip messages it has already pushed through the pipeline
// without a round trip to Postgres. It is advisory only: the store's
// uniqueness constraint on message_id is the real idempotency guarantee,
// so a Redis failure or an expired key merely costs a redundant ingest
// attempt.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a seen message ID is remembered. Messages
	// stay "unread" upstream for at most a few poll cycles, so a day of
	// memory comfortably covers re-observation windows.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces dedup keys in Redis.
	keyPrefix = "mailroom:seen:"
)

// Filter tracks which message IDs have already been processed.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a dedup filter backed by Redis.
func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// Seen reports whether the message ID was already fully processed. It is a
// read-only check: a message must stay retryable after a transient fetch or
// store failure, so marking happens separately, only once the row is
// committed. Callers should treat an error as "not seen" and rely on the
// store's constraint instead.
func (f *Filter) Seen(ctx context.Context, messageID string) (bool, error) {
	n, err := f.rdb.Exists(ctx, keyPrefix+messageID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen records a processed message ID. Best effort: a failed write only
// costs a redundant ingest attempt on a later cycle.
func (f *Filter) MarkSeen(ctx context.Context, messageID string) error {
	return f.rdb.Set(ctx, keyPrefix+messageID, 1, f.ttl).Err()
}
