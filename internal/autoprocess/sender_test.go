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

package autoprocess

import "testing"

func TestParseSender(t *testing.T) {
	tests := []struct {
		name string
		from string
		want Sender
	}{
		{
			name: "display name and address",
			from: "Marie Dupont <marie.dupont@gmail.com>",
			want: Sender{FirstName: "Marie", LastName: "Dupont", Address: "marie.dupont@gmail.com"},
		},
		{
			name: "three-part name",
			from: "Jean Pierre Martin <jp.martin@orange.fr>",
			want: Sender{FirstName: "Jean", LastName: "Pierre Martin", Address: "jp.martin@orange.fr"},
		},
		{
			name: "single name falls back to local part",
			from: "Marie <marie@gmail.com>",
			want: Sender{FirstName: "Marie", LastName: "marie", Address: "marie@gmail.com"},
		},
		{
			name: "bare address defaults first name",
			from: "contact@entreprise.fr",
			want: Sender{FirstName: "Prospect", LastName: "contact", Address: "contact@entreprise.fr"},
		},
		{
			name: "surrounding whitespace",
			from: "  marie@gmail.com  ",
			want: Sender{FirstName: "Prospect", LastName: "marie", Address: "marie@gmail.com"},
		},
		{
			name: "quoted display name",
			from: `"Dupont Marie" <marie@gmail.com>`,
			want: Sender{FirstName: "Dupont", LastName: "Marie", Address: "marie@gmail.com"},
		},
		{
			name: "empty header",
			from: "",
			want: Sender{FirstName: "Prospect", LastName: "unknown", Address: ""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseSender(tc.from); got != tc.want {
				t.Errorf("parseSender(%q) = %+v, want %+v", tc.from, got, tc.want)
			}
		})
	}
}
