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

// Package tracking extracts carrier tracking numbers from message bodies.
package tracking

import (
	"regexp"
	"strings"
)

// Carrier-specific formats, most specific first. Patterns run against
// lowercased text; matches are reported uppercase.
var patterns = []*regexp.Regexp{
	// La Poste registered letter: 1A/2C prefix + 11 digits
	regexp.MustCompile(`\b[12][a-z][0-9]{11}\b`),
	// Colissimo domestic: digit + letter + 11 digits
	regexp.MustCompile(`\b[0-9][a-z][0-9]{11}\b`),
	// UPU S10 international (Chronopost, registered international)
	regexp.MustCompile(`\b[a-z]{2}[0-9]{9}[a-z]{2}\b`),
	// UPS
	regexp.MustCompile(`\b1z[0-9a-z]{16}\b`),
	// FedEx / DHL numeric references
	regexp.MustCompile(`\b[0-9]{12,14}\b`),
}

// Extract scans body text and returns the de-duplicated set of tracking
// numbers, uppercased, ordered by carrier pattern then position. The result is empty
// (nil) when nothing matches; callers must not persist an empty set, so
// "no matches" stays distinguishable from "not yet processed".
func Extract(body string) []string {
	text := strings.ToLower(body)

	var numbers []string
	seen := make(map[string]struct{})
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			n := strings.ToUpper(m)
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			numbers = append(numbers, n)
		}
	}
	return numbers
}
