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

package tracking

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "la poste registered letter",
			body: "Votre courrier recommandé 1A01234567890 est en attente.",
			want: []string{"1A01234567890"},
		},
		{
			name: "colissimo parcel",
			body: "Colis 9L01234567890 livré au point relais.",
			want: []string{"9L01234567890"},
		},
		{
			name: "s10 international",
			body: "Envoi RR123456785FR expédié depuis la France.",
			want: []string{"RR123456785FR"},
		},
		{
			name: "ups",
			body: "Shipment 1Z999AA10123456784 is out for delivery.",
			want: []string{"1Z999AA10123456784"},
		},
		{
			name: "plain numeric",
			body: "Numéro de suivi : 1234567890123.",
			want: []string{"1234567890123"},
		},
		{
			name: "lowercase input normalised to uppercase",
			body: "suivi rr123456785fr",
			want: []string{"RR123456785FR"},
		},
		{
			name: "multiple numbers across carriers",
			body: "Recommandé 1A01234567890 et colis RR123456785FR.",
			want: []string{"1A01234567890", "RR123456785FR"},
		},
		{
			name: "duplicate number reported once",
			body: "1A01234567890 puis encore 1A01234567890.",
			want: []string{"1A01234567890"},
		},
		{
			name: "no numbers",
			body: "Votre courrier est arrivé, passez le récupérer.",
			want: nil,
		},
		{
			name: "short digit runs ignored",
			body: "Dossier 12345678 du 01/02/2026.",
			want: nil,
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.body)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Extract(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}
