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

// Package notify pushes critical-alert notifications onto a Redis list so
// the practice-management UI can surface them without polling Postgres.
// Delivery is best effort: the alert row in Postgres is authoritative and
// a failed push is only logged.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/avodesk/mailroom/internal/store"
)

// Publisher sends alert notifications to a Redis list.
type Publisher struct {
	rdb      *redis.Client
	listName string
}

// NewPublisher creates a publisher targeting the given list.
func NewPublisher(rdb *redis.Client, listName string) *Publisher {
	return &Publisher{
		rdb:      rdb,
		listName: listName,
	}
}

// alertNotification is the wire shape consumed by the UI backend.
type alertNotification struct {
	NotificationID string    `json:"notification_id"`
	AlertID        int64     `json:"alert_id"`
	TenantID       string    `json:"tenant_id"`
	EmailID        int64     `json:"email_id"`
	Severity       string    `json:"severity"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublishAlert serialises an alert and pushes it onto the list.
func (p *Publisher) PublishAlert(ctx context.Context, a *store.Alert) error {
	n := alertNotification{
		NotificationID: uuid.New().String(),
		AlertID:        a.ID,
		TenantID:       a.TenantID,
		EmailID:        a.EmailID,
		Severity:       a.Severity,
		Message:        a.Message,
		CreatedAt:      a.CreatedAt,
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal alert notification: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.listName, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published alert notification",
		"notification_id", n.NotificationID,
		"alert_id", a.ID,
		"tenant", a.TenantID,
		"list", p.listName,
	)
	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
