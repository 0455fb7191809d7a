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

import (
	"net/mail"
	"regexp"
	"strings"
)

// Sender is the best-effort decomposition of a From header.
type Sender struct {
	FirstName string
	LastName  string
	Address   string
}

var angleAddr = regexp.MustCompile(`<([^<>]+)>`)

// parseSender splits a From header into name parts and an address.
//
// This is inherently lossy: display names are free text and real headers
// are frequently malformed. Fallbacks, in order:
//   - RFC 5322 parse via net/mail
//   - first <...> group as the address, text before it as the name
//   - the whole trimmed header as the address
//
// Name splitting takes the first token as the first name and the remainder
// as the last name. With no display name at all, the first name defaults to
// "Prospect" and the last name to the address local part.
func parseSender(from string) Sender {
	var name, address string

	if addr, err := mail.ParseAddress(strings.TrimSpace(from)); err == nil {
		name = addr.Name
		address = addr.Address
	} else if m := angleAddr.FindStringSubmatch(from); m != nil {
		address = strings.TrimSpace(m[1])
		name = strings.Trim(strings.TrimSpace(from[:strings.Index(from, "<")]), `"`)
	} else {
		address = strings.TrimSpace(from)
	}

	s := Sender{Address: address}

	fields := strings.Fields(name)
	switch {
	case len(fields) >= 2:
		s.FirstName = fields[0]
		s.LastName = strings.Join(fields[1:], " ")
	case len(fields) == 1:
		s.FirstName = fields[0]
		s.LastName = localPart(address)
	default:
		s.FirstName = "Prospect"
		s.LastName = localPart(address)
	}
	return s
}

func localPart(address string) string {
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	if address == "" {
		return "unknown"
	}
	return address
}
