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

// Package classify assigns a category to a canonical email using an ordered
// cascade of keyword rule groups. Classification is a pure function of the
// message text: no I/O, no shared state, and the fallback branch guarantees
// a result for any input.
package classify

import (
	"fmt"
	"strings"

	"github.com/avodesk/mailroom/internal/email"
)

// BranchParams tunes a single rule group. Threshold is the minimum number of
// distinct keyword hits for the branch to win; confidence is computed as
// min(Base + Step*hits, Cap).
type BranchParams struct {
	Threshold int     `yaml:"threshold"`
	Base      float64 `yaml:"base"`
	Step      float64 `yaml:"step"`
	Cap       float64 `yaml:"cap"`
}

// Params holds the tunable constants for every branch. The numbers are a
// policy choice, not a derivation; they ship as configuration so they can be
// re-tuned against a representative corpus without a rebuild.
type Params struct {
	LegalCritical BranchParams `yaml:"legal_critical"`
	NewClient     BranchParams `yaml:"new_client"`
	ClientReply   BranchParams `yaml:"client_reply"`
	Urgent        BranchParams `yaml:"urgent"`
	Spam          BranchParams `yaml:"spam"`

	// PostalConfidence is fixed: a carrier-domain sender is unambiguous.
	PostalConfidence float64 `yaml:"postal_confidence"`
}

// DefaultParams returns the hand-tuned defaults.
func DefaultParams() Params {
	return Params{
		LegalCritical:    BranchParams{Threshold: 2, Base: 0.70, Step: 0.10, Cap: 0.95},
		NewClient:        BranchParams{Threshold: 2, Base: 0.60, Step: 0.15, Cap: 0.90},
		ClientReply:      BranchParams{Threshold: 1, Base: 0.55, Step: 0.15, Cap: 0.85},
		Urgent:           BranchParams{Threshold: 2, Base: 0.65, Step: 0.10, Cap: 0.85},
		Spam:             BranchParams{Threshold: 2, Base: 0.70, Step: 0.10, Cap: 0.95},
		PostalConfidence: 0.90,
	}
}

func (b BranchParams) confidence(hits int) float64 {
	c := b.Base + b.Step*float64(hits)
	if c > b.Cap {
		return b.Cap
	}
	return c
}

// Classify maps a canonical email to exactly one classification. Rule groups
// are evaluated highest priority first and the first group whose hit count
// meets its threshold wins; later groups are never reached. The same input
// always yields the same output.
func Classify(in *email.Incoming, p Params) email.Classification {
	// Subject, sender and body scored as one lowercase blob.
	content := strings.ToLower(in.Subject + " " + in.From + " " + in.BodyText)
	sender := strings.ToLower(in.From)
	subject := strings.ToLower(in.Subject)
	body := strings.ToLower(in.BodyText)

	if hits := countHits(content, legalCriticalKeywords); hits >= p.LegalCritical.Threshold {
		return email.Classification{
			Type:            email.TypeLegalCritical,
			Priority:        email.PriorityCritical,
			Confidence:      p.LegalCritical.confidence(hits),
			Tags:            []string{"ceseda", "deadline"},
			SuggestedAction: "escalate immediately: statutory appeal deadlines at stake",
		}
	}

	hits := countHits(content, newClientKeywords)
	compound := containsAny(subject, requestTerms) && containsAny(body, legalAssistanceTerms)
	if hits >= p.NewClient.Threshold || compound {
		if compound && hits < 1 {
			hits = 1
		}
		return email.Classification{
			Type:            email.TypeNewClient,
			Priority:        email.PriorityHigh,
			Confidence:      p.NewClient.confidence(hits),
			Tags:            []string{"prospect", "first-contact"},
			SuggestedAction: "create prospect record and schedule a consultation",
		}
	}

	hits = countHits(content, clientReplyKeywords)
	if isReplySubject(subject) {
		hits++
	}
	if hits >= p.ClientReply.Threshold && !isNoReplySender(sender) {
		return email.Classification{
			Type:            email.TypeClientReply,
			Priority:        email.PriorityHigh,
			Confidence:      p.ClientReply.confidence(hits),
			Tags:            []string{"client", "follow-up"},
			SuggestedAction: "attach to the existing client file",
		}
	}

	// A carrier domain in the sender is sufficient on its own.
	if containsAny(sender, carrierDomains) || containsAny(subject+" "+body, postalTerms) {
		return email.Classification{
			Type:            email.TypePostalNotification,
			Priority:        email.PriorityHigh,
			Confidence:      p.PostalConfidence,
			Tags:            []string{"postal", "tracking"},
			SuggestedAction: "extract tracking numbers and match to a case file",
		}
	}

	if hits := countHits(content, urgentKeywords); hits >= p.Urgent.Threshold {
		return email.Classification{
			Type:            email.TypeUrgent,
			Priority:        email.PriorityCritical,
			Confidence:      p.Urgent.confidence(hits),
			Tags:            []string{"urgent"},
			SuggestedAction: "handle before end of day",
		}
	}

	hits = countHits(content, spamKeywords)
	if hits >= p.Spam.Threshold || isBulkSender(sender) {
		return email.Classification{
			Type:            email.TypeSpam,
			Priority:        email.PriorityLow,
			Confidence:      p.Spam.confidence(hits),
			Tags:            []string{"spam"},
			SuggestedAction: "no action required",
		}
	}

	return email.Classification{
		Type:            email.TypeGeneral,
		Priority:        email.PriorityMedium,
		Confidence:      0.50,
		Tags:            []string{"unclassified"},
		SuggestedAction: "manual review required",
	}
}

// countHits returns the number of distinct keywords present in content.
// A keyword repeated in the text still counts once: thresholds measure
// breadth of evidence, not verbosity.
func countHits(content string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			hits++
		}
	}
	return hits
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func isNoReplySender(sender string) bool {
	return containsAny(sender, noReplyMarkers)
}

// isReplySubject matches the conventional reply prefix on the (lowercased)
// subject only.
func isReplySubject(subject string) bool {
	return strings.HasPrefix(subject, "re:") || strings.HasPrefix(subject, "re :")
}

// isBulkSender matches mailing-infrastructure addresses such as
// newsletter@ or promo@.
func isBulkSender(sender string) bool {
	return containsAny(sender, bulkSenderPatterns)
}

// Validate rejects parameter sets that would make a branch unreachable or
// produce confidences outside [0, 1].
func (p Params) Validate() error {
	branches := map[string]BranchParams{
		"legal_critical": p.LegalCritical,
		"new_client":     p.NewClient,
		"client_reply":   p.ClientReply,
		"urgent":         p.Urgent,
		"spam":           p.Spam,
	}
	for name, b := range branches {
		if b.Threshold < 1 {
			return fmt.Errorf("classifier %s: threshold must be >= 1, got %d", name, b.Threshold)
		}
		if b.Base < 0 || b.Cap > 1 || b.Base > b.Cap {
			return fmt.Errorf("classifier %s: confidence bounds invalid (base=%.2f cap=%.2f)", name, b.Base, b.Cap)
		}
	}
	if p.PostalConfidence <= 0 || p.PostalConfidence > 1 {
		return fmt.Errorf("classifier postal confidence out of range: %.2f", p.PostalConfidence)
	}
	return nil
}
