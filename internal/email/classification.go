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

package email

import "time"

// Type is the fixed category enumeration assigned to a message. Consumers
// dispatch on it with an exhaustive switch.
type Type string

const (
	TypeLegalCritical      Type = "legal_critical"
	TypeNewClient          Type = "new_client"
	TypeClientReply        Type = "client_reply"
	TypePostalNotification Type = "postal_notification"
	TypeUrgent             Type = "urgent"
	TypeSpam               Type = "spam"
	TypeGeneral            Type = "general"
)

// Valid reports whether t is one of the known classification types.
func (t Type) Valid() bool {
	switch t {
	case TypeLegalCritical, TypeNewClient, TypeClientReply,
		TypePostalNotification, TypeUrgent, TypeSpam, TypeGeneral:
		return true
	}
	return false
}

// Priority orders messages for human triage.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Classification is the category decision computed once at ingestion time.
// Only the validation fields are ever mutated afterwards, and only through
// an explicit reviewer action; the original type and confidence are kept
// for audit even when a reviewer records a correction.
type Classification struct {
	Type            Type       `json:"type"`
	Priority        Priority   `json:"priority"`
	Confidence      float64    `json:"confidence"`
	Tags            []string   `json:"tags"`
	SuggestedAction string     `json:"suggested_action,omitempty"`
	Validated       bool       `json:"validated"`
	ValidatedBy     string     `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time `json:"validated_at,omitempty"`
	CorrectedType   Type       `json:"corrected_type,omitempty"`
}
